// Package universal recombines the structural strategies into a
// domain-agnostic extractor usable without any site registration.
package universal

import (
	"sort"

	"golang.org/x/net/html"

	"github.com/hyperifyio/pricescan/internal/format"
	"github.com/hyperifyio/pricescan/internal/price"
	"github.com/hyperifyio/pricescan/internal/structural"
	"github.com/hyperifyio/pricescan/internal/textpattern"
)

// Options narrow a universal extraction.
type Options struct {
	// FilterCurrency drops candidates whose currency disagrees with the
	// configured descriptor. Currency-less candidates survive the filter;
	// their context decided the format in the first place.
	FilterCurrency bool

	// MinConfidence discards weaker candidates before merging.
	MinConfidence float64
}

// Extractor runs every structural strategy against a node and merges the
// results. Strategies are stateless and shared across calls.
type Extractor struct {
	strategies []structural.Strategy
}

// New builds an extractor over the full structural strategy set, ordered by
// priority once at construction.
func New(lib *textpattern.Library) *Extractor {
	strategies := structural.All(lib)
	sort.SliceStable(strategies, func(i, j int) bool {
		return strategies[i].Priority() > strategies[j].Priority()
	})
	return &Extractor{strategies: strategies}
}

// Extract merges candidates from every applicable strategy, deduplicated by
// normalized (value, currency) with the highest-confidence instance kept.
func (e *Extractor) Extract(n *html.Node, d format.Descriptor, opts Options) []price.Candidate {
	if n == nil {
		return nil
	}
	var merged []price.Candidate
	for _, s := range e.strategies {
		if !s.CanHandle(n) {
			continue
		}
		for _, c := range s.Extract(n, d) {
			if opts.MinConfidence > 0 && c.Confidence < opts.MinConfidence {
				continue
			}
			if opts.FilterCurrency && c.Currency != "" && c.Currency != d.Symbol && c.Currency != d.Code {
				continue
			}
			merged = append(merged, c)
		}
	}
	return price.Dedupe(merged)
}
