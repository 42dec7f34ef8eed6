package structural

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/hyperifyio/pricescan/internal/format"
	"github.com/hyperifyio/pricescan/internal/price"
	"github.com/hyperifyio/pricescan/internal/textpattern"
)

// attrScanDepth bounds how deep below the node attributes are scanned.
const attrScanDepth = 4

// Attribute confidence baselines. Attributes are explicit machine-readable
// signals, so they sit above every text-derived strategy.
const (
	confAriaLabel     = 0.92
	confPriceDataAttr = 0.9
	confOtherDataAttr = 0.86
)

// Attribute extracts prices from aria-label and data-* attributes on the
// node and its near descendants.
type Attribute struct {
	lib *textpattern.Library
}

func (s *Attribute) Name() price.StrategyTag { return price.StrategyAttribute }
func (s *Attribute) Priority() int           { return price.StrategyAttribute.Priority() }

func (s *Attribute) CanHandle(n *html.Node) bool {
	if n == nil {
		return false
	}
	found := false
	eachElement(n, attrScanDepth, func(el *html.Node) {
		for _, a := range el.Attr {
			if isPriceAttr(a.Key) {
				found = true
			}
		}
	})
	return found
}

func (s *Attribute) Extract(n *html.Node, d format.Descriptor) []price.Candidate {
	return guard(s.Name(), func() []price.Candidate {
		var out []price.Candidate
		eachElement(n, attrScanDepth, func(el *html.Node) {
			for _, a := range el.Attr {
				if !isPriceAttr(a.Key) {
					continue
				}
				conf := attrConfidence(a.Key)
				for _, c := range s.lib.FindTagged(a.Val, d, price.StrategyAttribute, strings.ToLower(a.Key), conf) {
					out = append(out, c)
				}
				// data-price="8.48" style values carry no currency token, so
				// the matcher above misses them; the attribute name itself is
				// the currency context.
				if len(out) == 0 && strings.EqualFold(a.Key, "data-price") {
					if v, ok := price.Normalize(a.Val, d); ok {
						out = append(out, price.Candidate{
							Value:      v,
							Currency:   dataCurrency(n, d),
							Text:       a.Val,
							Confidence: confPriceDataAttr,
							Strategy:   price.StrategyAttribute,
							Source:     "data-price",
						})
					}
				}
			}
		})
		// An offscreen aria twin of visible text must collapse to one
		// candidate.
		return price.Dedupe(out)
	})
}

// isPriceAttr reports whether the attribute can carry a machine-readable
// price: aria-label or any data-* attribute.
func isPriceAttr(key string) bool {
	k := strings.ToLower(key)
	return k == "aria-label" || strings.HasPrefix(k, "data-")
}

func attrConfidence(key string) float64 {
	switch k := strings.ToLower(key); {
	case k == "aria-label":
		return confAriaLabel
	case k == "data-price" || k == "data-currency" || k == "data-amount":
		return confPriceDataAttr
	default:
		return confOtherDataAttr
	}
}

// dataCurrency resolves the currency for a bare data-price value: an
// explicit data-currency attribute nearby wins, else the configured symbol.
func dataCurrency(n *html.Node, d format.Descriptor) string {
	cur := ""
	eachElement(n, attrScanDepth, func(el *html.Node) {
		if v, ok := attrVal(el, "data-currency"); ok && cur == "" {
			cur = strings.TrimSpace(v)
		}
	})
	if cur == "" {
		return d.Symbol
	}
	if len(cur) == 3 {
		// ISO code form; report the symbol for consistency with the
		// text-derived strategies.
		return format.Resolve("", cur).Symbol
	}
	return cur
}

// eachElement visits the node and its descendant elements to a depth limit,
// cycle-safe, in document order.
func eachElement(n *html.Node, maxDepth int, fn func(el *html.Node)) {
	visited := map[*html.Node]bool{}
	var walk func(cur *html.Node, depth int)
	walk = func(cur *html.Node, depth int) {
		if cur == nil || depth > maxDepth || visited[cur] {
			return
		}
		visited[cur] = true
		if cur.Type == html.ElementNode {
			fn(cur)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c, depth+1)
		}
	}
	walk(n, 0)
}
