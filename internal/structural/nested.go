package structural

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/hyperifyio/pricescan/internal/format"
	"github.com/hyperifyio/pricescan/internal/price"
)

const confNested = 0.8

// NestedCurrency handles prices whose currency symbol lives in its own
// descendant or sibling node next to the numeric text, the WooCommerce
// idiom: <bdi>6.26<span>$</span></bdi>. The amount is complete on its own;
// only the symbol placement is structural.
type NestedCurrency struct{}

func (s *NestedCurrency) Name() price.StrategyTag { return price.StrategyNestedCurrency }
func (s *NestedCurrency) Priority() int           { return price.StrategyNestedCurrency.Priority() }

func (s *NestedCurrency) CanHandle(n *html.Node) bool {
	if n == nil {
		return false
	}
	for _, f := range leafFragments(n) {
		if isCurrencyFragment(f) {
			return true
		}
	}
	return false
}

func (s *NestedCurrency) Extract(n *html.Node, d format.Descriptor) []price.Candidate {
	return guard(s.Name(), func() []price.Candidate {
		fragments := leafFragments(n)
		var out []price.Candidate
		for i, f := range fragments {
			if !isCurrencyFragment(f) {
				continue
			}
			symbol := strings.TrimSpace(f)
			// DOM order decides reconstruction: a preceding numeric fragment
			// means amount+symbol, a following one symbol+amount.
			if i > 0 {
				if v, ok := price.Normalize(fragments[i-1], d); ok {
					out = append(out, nestedCandidate(v, symbol, fragments[i-1]+symbol))
				}
			}
			if i+1 < len(fragments) {
				if v, ok := price.Normalize(fragments[i+1], d); ok {
					out = append(out, nestedCandidate(v, symbol, symbol+fragments[i+1]))
				}
			}
		}
		return price.Dedupe(out)
	})
}

func nestedCandidate(value, symbol, text string) price.Candidate {
	return price.Candidate{
		Value:      value,
		Currency:   symbol,
		Text:       text,
		Confidence: confNested,
		Strategy:   price.StrategyNestedCurrency,
		Source:     "nested-symbol",
	}
}

// isCurrencyFragment reports whether a text fragment is exactly one known
// currency symbol and nothing else.
func isCurrencyFragment(f string) bool {
	f = strings.TrimSpace(f)
	if f == "" || len(f) > 4 {
		return false
	}
	d, ok := format.Infer(f)
	if !ok {
		return false
	}
	return f == d.Symbol
}
