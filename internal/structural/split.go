package structural

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/hyperifyio/pricescan/internal/format"
	"github.com/hyperifyio/pricescan/internal/price"
	"github.com/hyperifyio/pricescan/internal/textpattern"
)

const (
	confSplitUnambiguous = 0.85
	confSplitAmbiguous   = 0.7
	splitAdjacencyBonus  = 0.05
)

// SplitComponent reassembles prices whose symbol, integer and fraction
// parts live in separate markup nodes: "449€" + "00", or "$" / "8." / "48".
type SplitComponent struct {
	lib *textpattern.Library
}

func (s *SplitComponent) Name() price.StrategyTag { return price.StrategySplitComponent }
func (s *SplitComponent) Priority() int           { return price.StrategySplitComponent.Priority() }

func (s *SplitComponent) CanHandle(n *html.Node) bool {
	if n == nil {
		return false
	}
	return len(leafFragments(n)) >= 2
}

func (s *SplitComponent) Extract(n *html.Node, d format.Descriptor) []price.Candidate {
	return guard(s.Name(), func() []price.Candidate {
		fragments := leafFragments(n)
		if len(fragments) < 2 {
			return nil
		}

		type window struct {
			cand     price.Candidate
			adjacent bool
		}
		var windows []window
		tryWindow := func(frags []string) {
			// A true split reconstruction must end in a bare fraction
			// fragment; symbol-next-to-amount pairs belong to the
			// nested-currency strategy.
			if !isFraction(frags[len(frags)-1]) {
				return
			}
			c := s.lib.ReconstructSplit(frags, d)
			if c == nil || c.Currency == "" {
				return
			}
			c.Strategy = price.StrategySplitComponent
			c.Source = "split-pattern"
			windows = append(windows, window{cand: *c, adjacent: symbolAdjacentToInteger(frags, d)})
		}
		for i := 0; i+1 < len(fragments); i++ {
			tryWindow(fragments[i : i+2])
		}
		for i := 0; i+2 < len(fragments); i++ {
			tryWindow(fragments[i : i+3])
		}

		// Distinct reconstructed prices decide ambiguity; the same price
		// seen through a 2- and a 3-token window is still unambiguous.
		keys := map[string]bool{}
		for _, w := range windows {
			keys[w.cand.Key()] = true
		}
		var out []price.Candidate
		for _, w := range windows {
			c := w.cand
			if len(keys) == 1 {
				c.Confidence = confSplitUnambiguous
			} else {
				c.Confidence = confSplitAmbiguous
				if w.adjacent {
					c.Confidence += splitAdjacencyBonus
				}
			}
			out = append(out, c)
		}
		return price.Dedupe(out)
	})
}

func isFraction(s string) bool {
	if len(s) < 1 || len(s) > 2 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// symbolAdjacentToInteger prefers windows where the currency symbol touches
// the integer part, either embedded in the same fragment ("449€") or in the
// fragment right before it ("$", "8.").
func symbolAdjacentToInteger(frags []string, d format.Descriptor) bool {
	if d.Symbol == "" || len(frags) < 2 {
		return false
	}
	intFrag := frags[len(frags)-2]
	if strings.Contains(intFrag, d.Symbol) {
		return true
	}
	if len(frags) == 3 && strings.TrimSpace(frags[0]) == d.Symbol {
		return true
	}
	return false
}
