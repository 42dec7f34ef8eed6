// Package structural detects prices in markup trees. Each strategy analyzes
// one node independently and yields confidence-scored candidates; none of
// them may panic outward, whatever shape the tree is in.
package structural

import (
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/hyperifyio/pricescan/internal/format"
	"github.com/hyperifyio/pricescan/internal/price"
	"github.com/hyperifyio/pricescan/internal/textpattern"
)

// Strategy is one structural detection technique. Implementations are
// stateless and shared; the caller owns only the ordered list.
type Strategy interface {
	Name() price.StrategyTag
	Priority() int
	CanHandle(n *html.Node) bool
	Extract(n *html.Node, d format.Descriptor) []price.Candidate
}

// Traversal bounds. Markup trees are bounded in practice, but detached or
// cyclic fragments are not trusted to prove it.
const (
	maxSubtreeDepth  = 6
	maxAncestorDepth = 6
	maxFragments     = 16
)

// All returns the structural strategies in priority order, highest first.
func All(lib *textpattern.Library) []Strategy {
	return []Strategy{
		&Attribute{lib: lib},
		&SplitComponent{lib: lib},
		&NestedCurrency{},
		&Contextual{lib: lib},
		&TextContent{lib: lib},
	}
}

// guard runs a strategy body and converts a panic into an empty result. A
// strategy fault means "found nothing", never a failed extraction call.
func guard(name price.StrategyTag, fn func() []price.Candidate) (out []price.Candidate) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Str("strategy", string(name)).Interface("panic", r).
				Msg("strategy fault contained")
			out = nil
		}
	}()
	return fn()
}

// textContent collects the subtree's text in document order, depth-limited
// and cycle-safe, with single spaces between fragments.
func textContent(n *html.Node) string {
	return strings.Join(leafFragments(n), " ")
}

// leafFragments returns the trimmed, non-empty text-node contents of the
// subtree in document order.
func leafFragments(n *html.Node) []string {
	var out []string
	visited := map[*html.Node]bool{}
	var walk func(cur *html.Node, depth int)
	walk = func(cur *html.Node, depth int) {
		if cur == nil || depth > maxSubtreeDepth || visited[cur] || len(out) >= maxFragments {
			return
		}
		visited[cur] = true
		if cur.Type == html.TextNode {
			if t := strings.TrimSpace(cur.Data); t != "" {
				out = append(out, t)
			}
			return
		}
		if cur.Type == html.ElementNode {
			switch strings.ToLower(cur.Data) {
			case "script", "style", "noscript":
				return
			}
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c, depth+1)
		}
	}
	walk(n, 0)
	return out
}

// attrVal returns the value of the named attribute, if present.
func attrVal(n *html.Node, key string) (string, bool) {
	if n == nil || n.Type != html.ElementNode {
		return "", false
	}
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// classAttr returns the lower-cased class attribute.
func classAttr(n *html.Node) string {
	v, _ := attrVal(n, "class")
	return strings.ToLower(v)
}
