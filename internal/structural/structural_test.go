package structural

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/hyperifyio/pricescan/internal/format"
	"github.com/hyperifyio/pricescan/internal/pattern"
	"github.com/hyperifyio/pricescan/internal/price"
	"github.com/hyperifyio/pricescan/internal/textpattern"
)

func newLib() *textpattern.Library {
	return textpattern.NewLibrary(pattern.NewBuilder(pattern.NewCache(0)))
}

func parseFragment(t *testing.T, src string) *html.Node {
	t.Helper()
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return root
}

func findElement(n *html.Node, tag string) *html.Node {
	var res *html.Node
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if res != nil {
			return
		}
		if cur.Type == html.ElementNode && strings.EqualFold(cur.Data, tag) {
			res = cur
			return
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
		}
	}
	dfs(n)
	return res
}

var usd = format.Resolve("$", "")
var eur = format.Resolve("€", "")

func TestAttribute_AriaLabel(t *testing.T) {
	root := parseFragment(t, `<span aria-label="$8.48" class="a-size-base"> $8.48 </span>`)
	node := findElement(root, "span")
	s := &Attribute{lib: newLib()}
	if !s.CanHandle(node) {
		t.Fatalf("expected CanHandle for aria-label node")
	}
	got := s.Extract(node, usd)
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %+v", len(got), got)
	}
	c := got[0]
	if c.Value != "8.48" || c.Currency != "$" {
		t.Fatalf("unexpected candidate: %+v", c)
	}
	if c.Strategy != price.StrategyAttribute || c.Source != "aria-label" {
		t.Fatalf("unexpected provenance: %+v", c)
	}
	if c.Confidence <= 0.9 {
		t.Fatalf("expected confidence above 0.9, got %v", c.Confidence)
	}
}

func TestAttribute_OffscreenTwinDeduped(t *testing.T) {
	root := parseFragment(t, `<div>
	  <span aria-label="$8.48"></span>
	  <span data-price-amount="$8.48"></span>
	</div>`)
	node := findElement(root, "div")
	s := &Attribute{lib: newLib()}
	got := s.Extract(node, usd)
	if len(got) != 1 {
		t.Fatalf("expected twin attributes to dedupe to 1 candidate, got %d: %+v", len(got), got)
	}
	if got[0].Source != "aria-label" {
		t.Fatalf("expected the higher-confidence aria-label instance to win, got %+v", got[0])
	}
}

func TestAttribute_BareDataPrice(t *testing.T) {
	root := parseFragment(t, `<div data-price="19.99" data-currency="EUR"></div>`)
	node := findElement(root, "div")
	s := &Attribute{lib: newLib()}
	got := s.Extract(node, eur)
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %+v", len(got), got)
	}
	if got[0].Value != "19.99" || got[0].Currency != "€" {
		t.Fatalf("unexpected candidate: %+v", got[0])
	}
}

func TestAttribute_ToleratesNilNode(t *testing.T) {
	s := &Attribute{lib: newLib()}
	if s.CanHandle(nil) {
		t.Fatalf("nil node must not be handled")
	}
	if got := s.Extract(nil, usd); len(got) != 0 {
		t.Fatalf("expected empty result for nil node, got %+v", got)
	}
}

func TestSplitComponent_CdiscountShape(t *testing.T) {
	root := parseFragment(t, `<p class="price"><font>449€</font><span>00</span></p>`)
	node := findElement(root, "p")
	s := &SplitComponent{lib: newLib()}
	got := s.Extract(node, eur)
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 candidate, got %d: %+v", len(got), got)
	}
	c := got[0]
	if c.Value != "449.00" || c.Currency != "€" {
		t.Fatalf("unexpected candidate: %+v", c)
	}
	if c.Strategy != price.StrategySplitComponent || c.Source != "split-pattern" {
		t.Fatalf("unexpected provenance: %+v", c)
	}
	if c.Confidence < 0.8 {
		t.Fatalf("unambiguous reconstruction should score high, got %v", c.Confidence)
	}
}

func TestSplitComponent_AmazonThreeFragments(t *testing.T) {
	root := parseFragment(t, `<span class="a-price">
	  <span>$</span><span>8.</span><span>48</span>
	</span>`)
	node := findElement(root, "span")
	s := &SplitComponent{lib: newLib()}
	got := s.Extract(node, usd)
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %+v", len(got), got)
	}
	if got[0].Value != "8.48" || got[0].Currency != "$" {
		t.Fatalf("unexpected candidate: %+v", got[0])
	}
}

func TestSplitComponent_NoFalsePositiveOnProse(t *testing.T) {
	root := parseFragment(t, `<p><b>Hello</b><i>world</i><u>42</u></p>`)
	node := findElement(root, "p")
	s := &SplitComponent{lib: newLib()}
	if got := s.Extract(node, usd); len(got) != 0 {
		t.Fatalf("expected no candidates from prose, got %+v", got)
	}
}

func TestNestedCurrency_WooCommerceShape(t *testing.T) {
	root := parseFragment(t, `<bdi>6.26<span class="woocommerce-Price-currencySymbol">$</span></bdi>`)
	node := findElement(root, "bdi")
	s := &NestedCurrency{}
	if !s.CanHandle(node) {
		t.Fatalf("expected CanHandle for nested symbol")
	}
	got := s.Extract(node, usd)
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %+v", len(got), got)
	}
	c := got[0]
	if c.Value != "6.26" || c.Currency != "$" {
		t.Fatalf("unexpected candidate: %+v", c)
	}
	if c.Text != "6.26$" {
		t.Fatalf("DOM order should place the symbol after the amount, got %q", c.Text)
	}
}

func TestNestedCurrency_SymbolBeforeAmount(t *testing.T) {
	root := parseFragment(t, `<span><span>€</span>12,50</span>`)
	node := findElement(root, "span")
	s := &NestedCurrency{}
	got := s.Extract(node, eur)
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %+v", len(got), got)
	}
	if got[0].Value != "12.50" || got[0].Text != "€12,50" {
		t.Fatalf("unexpected candidate: %+v", got[0])
	}
}

func TestContextual_OnNodeText(t *testing.T) {
	root := parseFragment(t, `<div class="deal">Everything <em>Under</em> $20 today</div>`)
	node := findElement(root, "div")
	s := &Contextual{lib: newLib()}
	got := s.Extract(node, usd)
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %+v", len(got), got)
	}
	if got[0].Context != "under" || got[0].Value != "20" {
		t.Fatalf("unexpected candidate: %+v", got[0])
	}
}

func TestTextContent_LargeNumber(t *testing.T) {
	root := parseFragment(t, `<span>$2,500,000</span>`)
	node := findElement(root, "span")
	s := &TextContent{lib: newLib()}
	got := s.Extract(node, usd)
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %+v", len(got), got)
	}
	if got[0].Value != "2500000" || got[0].Strategy != price.StrategyTextContent {
		t.Fatalf("unexpected candidate: %+v", got[0])
	}
}

func TestTextContent_AlwaysBelowAttribute(t *testing.T) {
	root := parseFragment(t, `<span aria-label="$8.48" class="price product-price" data-price="8.48"> $8.48 </span>`)
	node := findElement(root, "span")
	lib := newLib()
	attr := (&Attribute{lib: lib}).Extract(node, usd)
	text := (&TextContent{lib: lib}).Extract(node, usd)
	if len(attr) == 0 || len(text) == 0 {
		t.Fatalf("expected candidates from both strategies: %+v / %+v", attr, text)
	}
	if text[0].Confidence >= attr[0].Confidence {
		t.Fatalf("text content (%v) must not outrank attribute (%v)",
			text[0].Confidence, attr[0].Confidence)
	}
}

func TestContext_ConfidenceBands(t *testing.T) {
	strong := parseFragment(t, `<div class="product-grid">
	  <div class="price-box">
	    <span class="old-price">was $10</span>
	    <span id="p" class="special-price" data-price="8.48" aria-label="$8.48">$8.48</span>
	  </div>
	</div>`)
	var node *html.Node
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if v, ok := attrVal(cur, "id"); ok && v == "p" {
			node = cur
			return
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
		}
	}
	dfs(strong)
	if node == nil {
		t.Fatalf("fixture node not found")
	}
	ec := Context(node)
	if ec.Confidence < 0.9 {
		t.Fatalf("multiple corroborating signals should score 0.9+, got %v (%+v)", ec.Confidence, ec)
	}
	if !ec.PriceIndicators.HasParentContainer || !ec.PriceIndicators.HasPriceClasses {
		t.Fatalf("expected container and class indicators: %+v", ec.PriceIndicators)
	}
	if ec.Semantics.ContainerType != "product" {
		t.Fatalf("expected product container, got %q", ec.Semantics.ContainerType)
	}
	if ec.Semantics.PriceType != "sale" {
		t.Fatalf("expected sale price type, got %q", ec.Semantics.PriceType)
	}

	weak := parseFragment(t, `<div><span id="q">plain text</span></div>`)
	node = nil
	dfs = func(cur *html.Node) {
		if v, ok := attrVal(cur, "id"); ok && v == "q" {
			node = cur
			return
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
		}
	}
	dfs(weak)
	if ec := Context(node); ec.Confidence > 0.3 {
		t.Fatalf("no signals should stay at or below 0.3, got %v", ec.Confidence)
	}
}

func TestContext_NilNode(t *testing.T) {
	ec := Context(nil)
	if ec.Confidence > 0.3 {
		t.Fatalf("nil node must score low, got %v", ec.Confidence)
	}
}
