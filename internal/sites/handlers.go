package sites

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/hyperifyio/pricescan/internal/format"
	"github.com/hyperifyio/pricescan/internal/price"
	"github.com/hyperifyio/pricescan/internal/textpattern"
)

// Site handlers carry the highest confidence in the system: they read
// markup idioms verified per site.
const confSiteSpecific = 0.95

// Amazon reads the a-price idiom: an offscreen span with the full price
// text, duplicated by visible whole/fraction fragments.
func Amazon(lib *textpattern.Library) Handler {
	return Handler{
		Name: "amazon",
		Domains: []string{
			"amazon.com", "amazon.co.uk", "amazon.de", "amazon.fr",
			"amazon.es", "amazon.it", "amazon.ca",
		},
		IsTargetNode: func(n *html.Node) bool {
			return findByClass(n, "a-price") != nil || findByClass(n, "a-offscreen") != nil
		},
		Process: func(n *html.Node, emit func(price.Candidate), d format.Descriptor) bool {
			handled := false

			// Preferred source: the offscreen twin holds the complete text.
			if off := findByClass(n, "a-offscreen"); off != nil {
				for _, c := range lib.FindTagged(nodeText(off), d, price.StrategySiteSpecific, "amazon:a-offscreen", confSiteSpecific) {
					emit(c)
					handled = true
				}
			}
			if handled {
				return true
			}

			// Fallback: assemble whole + fraction fragments.
			whole := findByClass(n, "a-price-whole")
			fraction := findByClass(n, "a-price-fraction")
			if whole == nil {
				return false
			}
			raw := strings.TrimSuffix(strings.TrimSpace(nodeText(whole)), ".")
			if fraction != nil {
				raw += "." + strings.TrimSpace(nodeText(fraction))
			}
			value, ok := price.Normalize(raw, d)
			if !ok {
				return false
			}
			symbol := d.Symbol
			if symEl := findByClass(n, "a-price-symbol"); symEl != nil {
				if s := strings.TrimSpace(nodeText(symEl)); s != "" {
					symbol = s
				}
			}
			emit(price.Candidate{
				Value:      value,
				Currency:   symbol,
				Text:       symbol + raw,
				Confidence: confSiteSpecific,
				Strategy:   price.StrategySiteSpecific,
				Source:     "amazon:a-price",
			})
			return true
		},
	}
}

// WooCommerce reads the bdi idiom: the amount as text with the currency
// symbol in a dedicated child span.
func WooCommerce() Handler {
	return Handler{
		Name:    "woocommerce",
		Domains: []string{"woocommerce.com"},
		IsTargetNode: func(n *html.Node) bool {
			return findByClass(n, "woocommerce-Price-amount") != nil ||
				findByClass(n, "woocommerce-Price-currencySymbol") != nil ||
				findTag(n, "bdi") != nil
		},
		Process: func(n *html.Node, emit func(price.Candidate), d format.Descriptor) bool {
			bdi := findTag(n, "bdi")
			if bdi == nil {
				return false
			}
			symEl := findByClass(bdi, "woocommerce-Price-currencySymbol")
			symbol := d.Symbol
			if symEl != nil {
				if s := strings.TrimSpace(nodeText(symEl)); s != "" {
					symbol = s
				}
			}
			amount := strings.TrimSpace(directText(bdi))
			value, ok := price.Normalize(amount, d)
			if !ok {
				return false
			}
			emit(price.Candidate{
				Value:      value,
				Currency:   symbol,
				Text:       amount + symbol,
				Confidence: confSiteSpecific,
				Strategy:   price.StrategySiteSpecific,
				Source:     "woocommerce:bdi",
			})
			return true
		},
	}
}

// findByClass returns the first element in the subtree whose class list
// contains the given token.
func findByClass(n *html.Node, class string) *html.Node {
	var res *html.Node
	var dfs func(cur *html.Node, depth int)
	dfs = func(cur *html.Node, depth int) {
		if cur == nil || res != nil || depth > 8 {
			return
		}
		if cur.Type == html.ElementNode {
			for _, a := range cur.Attr {
				if strings.EqualFold(a.Key, "class") && hasClassToken(a.Val, class) {
					res = cur
					return
				}
			}
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c, depth+1)
		}
	}
	dfs(n, 0)
	return res
}

func hasClassToken(classAttr, token string) bool {
	for _, c := range strings.Fields(classAttr) {
		if strings.EqualFold(c, token) {
			return true
		}
	}
	return false
}

func findTag(n *html.Node, tag string) *html.Node {
	var res *html.Node
	var dfs func(cur *html.Node, depth int)
	dfs = func(cur *html.Node, depth int) {
		if cur == nil || res != nil || depth > 8 {
			return
		}
		if cur.Type == html.ElementNode && strings.EqualFold(cur.Data, tag) {
			res = cur
			return
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c, depth+1)
		}
	}
	dfs(n, 0)
	return res
}

// nodeText is the subtree's text, trimmed, fragments joined by spaces.
func nodeText(n *html.Node) string {
	var parts []string
	var dfs func(cur *html.Node, depth int)
	dfs = func(cur *html.Node, depth int) {
		if cur == nil || depth > 8 {
			return
		}
		if cur.Type == html.TextNode {
			if t := strings.TrimSpace(cur.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c, depth+1)
		}
	}
	dfs(n, 0)
	return strings.Join(parts, " ")
}

// directText collects only the node's own text children, skipping element
// children (the WooCommerce amount sits beside the symbol span).
func directText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(b.String())
}
