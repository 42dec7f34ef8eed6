package pipeline

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/hyperifyio/pricescan/internal/format"
	"github.com/hyperifyio/pricescan/internal/pattern"
	"github.com/hyperifyio/pricescan/internal/price"
	"github.com/hyperifyio/pricescan/internal/sites"
	"github.com/hyperifyio/pricescan/internal/textpattern"
)

func newPipeline(t *testing.T, registry *sites.Registry) *Pipeline {
	t.Helper()
	return New(registry, pattern.NewBuilder(pattern.NewCache(0)))
}

func parseFragment(t *testing.T, src string) *html.Node {
	t.Helper()
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return root
}

func TestExtract_AriaLabelScenario(t *testing.T) {
	p := newPipeline(t, nil)
	node := parseFragment(t, `<span aria-label="$8.48" class="a-size-base"> $8.48 </span>`)
	res := p.Extract(Input{Node: node}, Settings{})
	if res.Best == nil {
		t.Fatalf("expected a best candidate")
	}
	c := *res.Best
	if c.Value != "8.48" || c.Currency != "$" {
		t.Fatalf("unexpected candidate: %+v", c)
	}
	if c.Strategy != price.StrategyAttribute || c.Source != "aria-label" {
		t.Fatalf("unexpected provenance: %+v", c)
	}
	if c.Confidence <= 0.9 {
		t.Fatalf("expected confidence above 0.9, got %v", c.Confidence)
	}
	if len(res.Candidates) != 1 {
		t.Fatalf("aria twin must dedupe to one candidate, got %+v", res.Candidates)
	}
}

func TestExtract_SplitComponentScenario(t *testing.T) {
	p := newPipeline(t, nil)
	node := parseFragment(t, `<p class="price"><font>449€</font><span>00</span></p>`)
	res := p.Extract(Input{Node: node}, Settings{CurrencySymbol: "€"})
	if res.Best == nil {
		t.Fatalf("expected a best candidate")
	}
	if res.Best.Value != "449.00" || res.Best.Currency != "€" {
		t.Fatalf("unexpected candidate: %+v", res.Best)
	}
	if res.Best.Strategy != price.StrategySplitComponent {
		t.Fatalf("expected splitComponent strategy, got %q", res.Best.Strategy)
	}
}

func TestExtract_ContextualTextScenario(t *testing.T) {
	p := newPipeline(t, nil)
	res := p.Extract(Input{Text: "Under $20"}, Settings{})
	if res.Best == nil {
		t.Fatalf("expected a best candidate")
	}
	c := *res.Best
	if c.Value != "20" || c.Currency != "$" || c.Context != "under" {
		t.Fatalf("unexpected candidate: %+v", c)
	}
	if c.Strategy != price.StrategyContextual {
		t.Fatalf("expected contextual strategy, got %q", c.Strategy)
	}
}

func TestExtract_LargeNumberTextScenario(t *testing.T) {
	p := newPipeline(t, nil)
	node := parseFragment(t, `<span>$2,500,000</span>`)
	res := p.Extract(Input{Node: node}, Settings{OnlyPass: PhasePattern})
	if res.Best == nil {
		t.Fatalf("expected a best candidate")
	}
	if res.Best.Value != "2500000" || res.Best.Strategy != price.StrategyTextContent {
		t.Fatalf("unexpected candidate: %+v", res.Best)
	}
}

func TestExtract_NoCurrencySignal(t *testing.T) {
	p := newPipeline(t, nil)
	res := p.Extract(Input{Text: "Hello world"}, Settings{})
	if res.Best != nil || len(res.Candidates) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
	if res.CorrelationID == "" || len(res.Trace) == 0 {
		t.Fatalf("diagnostics must be populated even for empty results: %+v", res)
	}
}

func TestExtract_MalformedInput(t *testing.T) {
	p := newPipeline(t, nil)
	res := p.Extract(Input{}, Settings{})
	if res.InputKind != "empty" {
		t.Fatalf("expected empty classification, got %q", res.InputKind)
	}
	if res.CorrelationID == "" || len(res.Trace) == 0 {
		t.Fatalf("diagnostics must be populated for empty input: %+v", res)
	}
	// Detached single node without prices: still no error, empty result.
	detached := &html.Node{Type: html.ElementNode, Data: "div"}
	res = p.Extract(Input{Node: detached}, Settings{})
	if res.Best != nil {
		t.Fatalf("expected no candidates for empty detached node, got %+v", res.Best)
	}
}

func TestExtract_SitePassShortCircuits(t *testing.T) {
	registry := sites.NewRegistry()
	lib := textpattern.NewLibrary(pattern.NewBuilder(nil))
	if err := registry.Register(sites.Amazon(lib)); err != nil {
		t.Fatalf("register: %v", err)
	}
	p := newPipeline(t, registry)
	node := parseFragment(t, `<span class="a-price"><span class="a-offscreen">$8.48</span><span aria-hidden="true">$8.48</span></span>`)

	res := p.Extract(Input{Node: node, Host: "www.amazon.com"}, Settings{})
	if res.Best == nil || res.Best.Strategy != price.StrategySiteSpecific {
		t.Fatalf("expected site-specific winner, got %+v", res.Best)
	}
	// Only classify, site and arbitration phases should have run.
	for _, e := range res.Trace {
		if e.Phase == PhaseAttribute || e.Phase == PhaseStructure {
			t.Fatalf("site success must short-circuit later passes, trace: %+v", res.Trace)
		}
	}
}

func TestExtract_MultiPassModeRunsEverything(t *testing.T) {
	registry := sites.NewRegistry()
	lib := textpattern.NewLibrary(pattern.NewBuilder(nil))
	_ = registry.Register(sites.Amazon(lib))
	p := newPipeline(t, registry)
	node := parseFragment(t, `<span class="a-price"><span class="a-offscreen">$8.48</span></span>`)

	res := p.Extract(Input{Node: node, Host: "amazon.com"}, Settings{MultiPassMode: true})
	seen := map[string]bool{}
	for _, e := range res.Trace {
		seen[e.Phase] = true
	}
	for _, phase := range []string{PhaseSite, PhaseAttribute, PhaseStructure, PhasePattern, PhaseContextual} {
		if !seen[phase] {
			t.Fatalf("multi-pass mode must run %s, trace: %+v", phase, res.Trace)
		}
	}
}

func TestExtract_EarlyExitStopsAtThreshold(t *testing.T) {
	p := newPipeline(t, nil)
	node := parseFragment(t, `<span aria-label="$8.48"> $8.48 </span>`)
	res := p.Extract(Input{Node: node}, Settings{EarlyExitConfidence: 0.9})
	for _, e := range res.Trace {
		if e.Phase == PhasePattern || e.Phase == PhaseContextual {
			t.Fatalf("early exit must stop after the attribute pass, trace: %+v", res.Trace)
		}
	}
	if res.Best == nil || res.Best.Strategy != price.StrategyAttribute {
		t.Fatalf("expected attribute winner, got %+v", res.Best)
	}
}

func TestExtract_ExhaustiveReturnsRankedSet(t *testing.T) {
	p := newPipeline(t, nil)
	node := parseFragment(t, `<div class="price">Under $20 or $19.99 today</div>`)
	res := p.Extract(Input{Node: node}, Settings{Exhaustive: true})
	if len(res.Candidates) < 2 {
		t.Fatalf("expected multiple ranked candidates, got %+v", res.Candidates)
	}
	for i := 1; i < len(res.Candidates); i++ {
		if res.Candidates[i-1].Confidence < res.Candidates[i].Confidence {
			t.Fatalf("candidates must be sorted by confidence descending: %+v", res.Candidates)
		}
	}
}

func TestExtract_MinConfidenceFilters(t *testing.T) {
	p := newPipeline(t, nil)
	res := p.Extract(Input{Text: "only $5 today"}, Settings{MinConfidence: 0.99})
	if res.Best != nil {
		t.Fatalf("expected all candidates filtered, got %+v", res.Best)
	}
}

func TestExtract_DebugModeDoesNotChangeResults(t *testing.T) {
	node := `<span aria-label="$8.48"> $8.48 </span>`
	p := newPipeline(t, nil)
	plain := p.Extract(Input{Node: parseFragment(t, node)}, Settings{})
	debug := p.Extract(Input{Node: parseFragment(t, node)}, Settings{DebugMode: true})
	if plain.Best == nil || debug.Best == nil {
		t.Fatalf("expected candidates in both modes")
	}
	if *plain.Best != *debug.Best {
		t.Fatalf("debug mode altered results: %+v vs %+v", plain.Best, debug.Best)
	}
}

func TestExtract_CorrelationIDsUniquePerInvocation(t *testing.T) {
	p := newPipeline(t, nil)
	a := p.Extract(Input{Text: "$5"}, Settings{})
	b := p.Extract(Input{Text: "$5"}, Settings{})
	if a.CorrelationID == "" || a.CorrelationID == b.CorrelationID {
		t.Fatalf("correlation ids must be unique per invocation: %q vs %q", a.CorrelationID, b.CorrelationID)
	}
}

func TestExtract_AttributeOutranksTextContent(t *testing.T) {
	p := newPipeline(t, nil)
	node := parseFragment(t, `<span aria-label="$8.48" class="price"> $8.48 </span>`)
	res := p.Extract(Input{Node: node}, Settings{Exhaustive: true})
	if res.Best == nil || res.Best.Strategy != price.StrategyAttribute {
		t.Fatalf("attribute candidate must outrank text content, got %+v", res.Best)
	}
}

func TestExtract_RoundTripTextReproducesValue(t *testing.T) {
	p := newPipeline(t, nil)
	node := parseFragment(t, `<bdi>6.26<span>$</span></bdi>`)
	first := p.Extract(Input{Node: node}, Settings{})
	if first.Best == nil {
		t.Fatalf("expected a candidate")
	}
	again := p.Extract(Input{Text: first.Best.Text}, Settings{})
	if again.Best == nil {
		t.Fatalf("expected re-extraction from %q to find the price", first.Best.Text)
	}
	if again.Best.Value != first.Best.Value || again.Best.Currency != first.Best.Currency {
		t.Fatalf("round trip mismatch: %+v vs %+v", first.Best, again.Best)
	}
}

func TestSettings_DescriptorSanitizesSeparators(t *testing.T) {
	s := Settings{CurrencySymbol: "$", Thousands: "commas", Decimal: "comma"}
	d := s.Descriptor()
	if d.Thousands == format.ThousandsCommas {
		t.Fatalf("separator collision must be sanitized, got %+v", d)
	}
}
