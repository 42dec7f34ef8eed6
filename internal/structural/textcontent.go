package structural

import (
	"golang.org/x/net/html"

	"github.com/hyperifyio/pricescan/internal/format"
	"github.com/hyperifyio/pricescan/internal/price"
	"github.com/hyperifyio/pricescan/internal/textpattern"
)

// Text-content confidence spans confTextBase..confTextBase+confTextSpread
// depending on the element-context score. The ceiling stays below every
// attribute baseline so attribute candidates always outrank text ones for
// the same price.
const (
	confTextBase   = 0.5
	confTextSpread = 0.2
)

// TextContent is the safety net: the plain matcher applied to the node's
// whole text. Lowest structural priority, always applicable.
type TextContent struct {
	lib *textpattern.Library
}

func (s *TextContent) Name() price.StrategyTag { return price.StrategyTextContent }
func (s *TextContent) Priority() int           { return price.StrategyTextContent.Priority() }

func (s *TextContent) CanHandle(n *html.Node) bool {
	return n != nil && textContent(n) != ""
}

func (s *TextContent) Extract(n *html.Node, d format.Descriptor) []price.Candidate {
	return guard(s.Name(), func() []price.Candidate {
		text := textContent(n)
		if text == "" {
			return nil
		}
		conf := confTextBase + confTextSpread*Context(n).Confidence
		out := s.lib.FindTagged(text, d, price.StrategyTextContent, "text-content", conf)
		return price.Dedupe(out)
	})
}
