package structural

import (
	"golang.org/x/net/html"

	"github.com/hyperifyio/pricescan/internal/format"
	"github.com/hyperifyio/pricescan/internal/price"
	"github.com/hyperifyio/pricescan/internal/textpattern"
)

// Contextual finds phrase-qualified prices ("Under $20", "from $2.99") in
// the node's text content. The phrase logic itself lives in textpattern and
// is shared with bare-text extraction.
type Contextual struct {
	lib *textpattern.Library
}

func (s *Contextual) Name() price.StrategyTag { return price.StrategyContextual }
func (s *Contextual) Priority() int           { return price.StrategyContextual.Priority() }

func (s *Contextual) CanHandle(n *html.Node) bool {
	return n != nil && textContent(n) != ""
}

func (s *Contextual) Extract(n *html.Node, d format.Descriptor) []price.Candidate {
	return guard(s.Name(), func() []price.Candidate {
		return s.lib.FindContextual(textContent(n), d)
	})
}
