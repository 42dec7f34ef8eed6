package structural

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/hyperifyio/pricescan/internal/format"
)

// ElementContext is a read-only snapshot of how price-like a node's markup
// neighborhood is. It is computed on demand per query and never cached
// across structural mutations.
type ElementContext struct {
	PriceIndicators PriceIndicators
	Hierarchy       Hierarchy
	Attributes      ContextAttributes
	Semantics       Semantics
	Confidence      float64
}

type PriceIndicators struct {
	HasParentContainer bool
	HasPriceClasses    bool
	HasDataAttributes  bool
}

type Hierarchy struct {
	PriceContainer string
	Depth          int
	SiblingCount   int
}

type ContextAttributes struct {
	DataAttributes []string
	PriceRelated   []string
	AriaLabels     []string
}

type Semantics struct {
	ContainerType string
	PriceType     string
	CurrencyHint  string
}

var (
	priceClassExpr    = regexp.MustCompile(`(?i)\b[\w-]*(price|cost|amount|pricing)[\w-]*\b`)
	productClassExpr  = regexp.MustCompile(`(?i)(product|item|offer|listing|card)`)
	cartClassExpr     = regexp.MustCompile(`(?i)(cart|basket|checkout|order)`)
	salePriceExpr     = regexp.MustCompile(`(?i)(sale|discount|special|deal|now)`)
	originalPriceExpr = regexp.MustCompile(`(?i)(was|old|original|regular|strike|list-price)`)
	priceAttrNameExpr = regexp.MustCompile(`(?i)(price|cost|amount|currency)`)
)

// Context scores the node's markup neighborhood. It walks ancestors up to a
// fixed depth with a visited set, so detached or cyclic fragments cannot
// loop it.
func Context(n *html.Node) ElementContext {
	var ec ElementContext
	if n == nil {
		ec.Confidence = 0.1
		return ec
	}

	collectOwnAttributes(n, &ec)

	visited := map[*html.Node]bool{}
	depth := 0
	for cur := n; cur != nil && depth <= maxAncestorDepth && !visited[cur]; cur = cur.Parent {
		visited[cur] = true
		if cur.Type != html.ElementNode {
			depth++
			continue
		}
		cls := classAttr(cur)
		if cls != "" && priceClassExpr.MatchString(cls) {
			if cur == n {
				ec.PriceIndicators.HasPriceClasses = true
			} else {
				ec.PriceIndicators.HasParentContainer = true
				if ec.Hierarchy.PriceContainer == "" {
					ec.Hierarchy.PriceContainer = firstMatchingClass(cls, priceClassExpr)
					ec.Hierarchy.Depth = depth
				}
			}
		}
		if ec.Semantics.ContainerType == "" {
			switch {
			case cartClassExpr.MatchString(cls):
				ec.Semantics.ContainerType = "cart"
			case productClassExpr.MatchString(cls):
				ec.Semantics.ContainerType = "product"
			}
		}
		if ec.Semantics.PriceType == "" {
			switch {
			case originalPriceExpr.MatchString(cls):
				ec.Semantics.PriceType = "original"
			case salePriceExpr.MatchString(cls):
				ec.Semantics.PriceType = "sale"
			}
		}
		depth++
	}

	ec.Hierarchy.SiblingCount = priceSiblings(n)
	if ec.Semantics.CurrencyHint == "" {
		if d, ok := format.Infer(textContent(n)); ok {
			ec.Semantics.CurrencyHint = d.Symbol
		}
	}

	ec.Confidence = contextConfidence(ec)
	return ec
}

func collectOwnAttributes(n *html.Node, ec *ElementContext) {
	eachElement(n, 2, func(el *html.Node) {
		for _, a := range el.Attr {
			k := strings.ToLower(a.Key)
			switch {
			case k == "aria-label":
				ec.Attributes.AriaLabels = append(ec.Attributes.AriaLabels, a.Val)
			case strings.HasPrefix(k, "data-"):
				ec.Attributes.DataAttributes = append(ec.Attributes.DataAttributes, k)
				ec.PriceIndicators.HasDataAttributes = true
				if k == "data-currency" {
					ec.Semantics.CurrencyHint = strings.TrimSpace(a.Val)
				}
			}
			if priceAttrNameExpr.MatchString(k) {
				ec.Attributes.PriceRelated = append(ec.Attributes.PriceRelated, k)
			}
		}
	})
}

// priceSiblings counts siblings that carry price-suggesting classes, a
// corroborating signal for price rows and comparison grids.
func priceSiblings(n *html.Node) int {
	if n == nil || n.Parent == nil {
		return 0
	}
	count := 0
	for c := n.Parent.FirstChild; c != nil; c = c.NextSibling {
		if c == n || c.Type != html.ElementNode {
			continue
		}
		if priceClassExpr.MatchString(classAttr(c)) {
			count++
		}
	}
	return count
}

// contextConfidence bands: several corroborating signals score 0.9+, one
// weak signal lands mid-range, none stays at or below 0.3.
func contextConfidence(ec ElementContext) float64 {
	signals := 0
	if ec.PriceIndicators.HasParentContainer {
		signals++
	}
	if ec.PriceIndicators.HasPriceClasses {
		signals++
	}
	if ec.PriceIndicators.HasDataAttributes {
		signals++
	}
	if len(ec.Attributes.AriaLabels) > 0 {
		signals++
	}
	if ec.Hierarchy.SiblingCount > 0 {
		signals++
	}
	switch {
	case signals >= 4:
		return 0.95
	case signals == 3:
		return 0.85
	case signals == 2:
		return 0.7
	case signals == 1:
		return 0.55
	default:
		return 0.25
	}
}

func firstMatchingClass(cls string, re *regexp.Regexp) string {
	for _, part := range strings.Fields(cls) {
		if re.MatchString(part) {
			return part
		}
	}
	return ""
}
