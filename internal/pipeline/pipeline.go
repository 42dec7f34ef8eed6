// Package pipeline orchestrates the detection strategies: site handlers
// first, then structural extraction, then the text pattern library, with
// confidence arbitration at the end. One invocation is one logical task;
// no state survives between calls except the pattern cache.
package pipeline

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/hyperifyio/pricescan/internal/format"
	"github.com/hyperifyio/pricescan/internal/pattern"
	"github.com/hyperifyio/pricescan/internal/price"
	"github.com/hyperifyio/pricescan/internal/sites"
	"github.com/hyperifyio/pricescan/internal/structural"
	"github.com/hyperifyio/pricescan/internal/textpattern"
)

// Input is what one extraction call works on: bare text, a markup node, or
// both, plus the site identity for handler lookup.
type Input struct {
	Text string
	Node *html.Node
	Host string
}

// Result is the outcome of one invocation. Best is nil when nothing was
// found; Trace and CorrelationID are populated even then, so malformed
// input still yields diagnostics instead of an error.
type Result struct {
	Best          *price.Candidate  `json:"best,omitempty"`
	Candidates    []price.Candidate `json:"candidates,omitempty"`
	Trace         []TraceEntry      `json:"trace,omitempty"`
	CorrelationID string            `json:"correlationId"`
	InputKind     string            `json:"inputKind"`
}

// Pipeline wires the strategy set to a shared pattern builder and an
// externally-owned site registry. Construct once, share across calls.
type Pipeline struct {
	registry    *sites.Registry
	lib         *textpattern.Library
	attribute   structural.Strategy
	split       structural.Strategy
	nested      structural.Strategy
	contextual  structural.Strategy
	textContent structural.Strategy
}

// New builds a pipeline. A nil registry disables the site pass; a nil
// builder gets a default cached one.
func New(registry *sites.Registry, builder *pattern.Builder) *Pipeline {
	if builder == nil {
		builder = pattern.NewBuilder(pattern.NewCache(0))
	}
	lib := textpattern.NewLibrary(builder)
	p := &Pipeline{registry: registry, lib: lib}
	for _, s := range structural.All(lib) {
		switch s.Name() {
		case price.StrategyAttribute:
			p.attribute = s
		case price.StrategySplitComponent:
			p.split = s
		case price.StrategyNestedCurrency:
			p.nested = s
		case price.StrategyContextual:
			p.contextual = s
		case price.StrategyTextContent:
			p.textContent = s
		}
	}
	return p
}

// Extract runs the phases in fixed forward order and arbitrates the
// results. It never returns an error: strategy faults are contained and
// logged, absence of a price is an empty result.
func (p *Pipeline) Extract(in Input, s Settings) Result {
	tr := &tracer{correlationID: uuid.NewString(), debug: s.DebugMode}

	started := time.Now()
	kind := classify(in)
	tr.record(PhaseClassify, kind, started, 0)

	res := Result{CorrelationID: tr.correlationID, InputKind: kind}
	if kind == "empty" {
		res.Trace = tr.entries
		return res
	}

	d := p.descriptorFor(in, s)

	var all []price.Candidate
	stop := false

	runPass := func(phase, context string, fn func() []price.Candidate) {
		if stop {
			return
		}
		if s.OnlyPass != "" && s.OnlyPass != phase {
			return
		}
		started := time.Now()
		got := fn()
		got = filterConfidence(got, s.MinConfidence)
		allowMulti := s.AllowMultipleResults || s.ReturnMultiple || s.Exhaustive
		if !allowMulti && len(got) > 1 {
			got = []price.Candidate{bestOf(got)}
		}
		all = append(all, got...)
		tr.record(phase, context, started, len(got))
		if s.EarlyExitConfidence > 0 && !s.Exhaustive {
			for _, c := range got {
				if c.Confidence >= s.EarlyExitConfidence {
					stop = true
					return
				}
			}
		}
	}

	// Site-specific pass: highest trust, may short-circuit everything else.
	if p.registry != nil && in.Node != nil && in.Host != "" {
		handled := false
		runPass(PhaseSite, in.Host, func() []price.Candidate {
			var got []price.Candidate
			handled = p.registry.Process(in.Host, in.Node, func(c price.Candidate) {
				got = append(got, c)
			}, d)
			return got
		})
		if handled && len(all) > 0 && !s.MultiPassMode && !s.Exhaustive {
			stop = true
		}
	}

	if in.Node != nil {
		runPass(PhaseAttribute, "node", func() []price.Candidate {
			if !p.attribute.CanHandle(in.Node) {
				return nil
			}
			return p.attribute.Extract(in.Node, d)
		})
		runPass(PhaseStructure, "split+nested", func() []price.Candidate {
			var got []price.Candidate
			if p.split.CanHandle(in.Node) {
				got = append(got, p.split.Extract(in.Node, d)...)
			}
			if p.nested.CanHandle(in.Node) {
				got = append(got, p.nested.Extract(in.Node, d)...)
			}
			return got
		})
	}

	runPass(PhasePattern, kind, func() []price.Candidate {
		var got []price.Candidate
		if in.Text != "" {
			got = append(got, p.lib.FindLargeNumbers(in.Text, d)...)
			got = append(got, p.lib.FindSpaceVariations(in.Text, d)...)
			got = append(got, p.lib.FindAll(in.Text, d)...)
		}
		// Structural safety net: the plain matcher over the node's text.
		if in.Node != nil && p.textContent.CanHandle(in.Node) {
			got = append(got, p.textContent.Extract(in.Node, d)...)
		}
		return got
	})

	runPass(PhaseContextual, kind, func() []price.Candidate {
		var got []price.Candidate
		if in.Text != "" {
			got = append(got, p.lib.FindContextual(in.Text, d)...)
		}
		if in.Node != nil && p.contextual.CanHandle(in.Node) {
			got = append(got, p.contextual.Extract(in.Node, d)...)
		}
		return got
	})

	// Arbitration: dedupe keep-highest, rank by confidence with pass order
	// breaking ties (stable sort over append order).
	started = time.Now()
	all = price.Dedupe(all)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Confidence > all[j].Confidence
	})
	tr.record(PhaseArbitration, "dedupe+rank", started, len(all))

	res.Trace = tr.entries
	if len(all) == 0 {
		return res
	}
	best := all[0]
	res.Best = &best
	if s.ReturnMultiple || s.Exhaustive {
		res.Candidates = all
	} else {
		res.Candidates = all[:1]
	}
	return res
}

// descriptorFor resolves the invocation's format: explicit settings win,
// then inference from whatever input is available, then the default.
func (p *Pipeline) descriptorFor(in Input, s Settings) format.Descriptor {
	if s.explicitCurrency() {
		return s.Descriptor()
	}
	if in.Text != "" {
		if d, ok := format.Infer(in.Text); ok {
			return applyOverrides(d, s)
		}
	}
	if in.Node != nil {
		if d, ok := format.Infer(nodeText(in.Node)); ok {
			return applyOverrides(d, s)
		}
	}
	return s.Descriptor()
}

func applyOverrides(d format.Descriptor, s Settings) format.Descriptor {
	if s.Thousands != "" {
		d.Thousands = format.Thousands(s.Thousands)
	}
	if s.Decimal != "" {
		d.Decimal = format.Decimal(s.Decimal)
	}
	return d.Sanitize()
}

func classify(in Input) string {
	switch {
	case in.Text != "" && in.Node != nil:
		return "combined"
	case in.Node != nil:
		return "node"
	case in.Text != "":
		return "text"
	default:
		return "empty"
	}
}

func filterConfidence(in []price.Candidate, min float64) []price.Candidate {
	if min <= 0 {
		return in
	}
	out := in[:0:0]
	for _, c := range in {
		if c.Confidence >= min {
			out = append(out, c)
		}
	}
	return out
}

func bestOf(in []price.Candidate) price.Candidate {
	best := in[0]
	for _, c := range in[1:] {
		if c.Confidence > best.Confidence {
			best = c
		}
	}
	return best
}

// nodeText flattens a node's text for format inference.
func nodeText(n *html.Node) string {
	var b []byte
	var walk func(cur *html.Node, depth int)
	seen := map[*html.Node]bool{}
	walk = func(cur *html.Node, depth int) {
		if cur == nil || depth > 8 || seen[cur] {
			return
		}
		seen[cur] = true
		if cur.Type == html.TextNode {
			b = append(b, cur.Data...)
			b = append(b, ' ')
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c, depth+1)
		}
	}
	walk(n, 0)
	return string(b)
}
