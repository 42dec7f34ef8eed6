package price

import (
	"testing"

	"github.com/hyperifyio/pricescan/internal/format"
)

var usHint = format.Resolve("$", "")
var euHint = format.Resolve("€", "")

func TestNormalize_StripsCommaGrouping(t *testing.T) {
	got, ok := Normalize("2,500,000", usHint)
	if !ok || got != "2500000" {
		t.Fatalf("expected 2500000, got %q ok=%v", got, ok)
	}
}

func TestNormalize_DotGroupingCommaDecimal(t *testing.T) {
	got, ok := Normalize("1.234,56", euHint)
	if !ok || got != "1234.56" {
		t.Fatalf("expected 1234.56, got %q ok=%v", got, ok)
	}
}

func TestNormalize_SpaceGrouping(t *testing.T) {
	got, ok := Normalize("1 234,56", euHint)
	if !ok || got != "1234.56" {
		t.Fatalf("expected 1234.56, got %q ok=%v", got, ok)
	}
}

func TestNormalize_SeparatorRoleNotPosition(t *testing.T) {
	// A lone dot followed by three digits groups even under a dot-decimal
	// hint; prices carry at most two fraction digits.
	got, ok := Normalize("1.500", usHint)
	if !ok || got != "1500" {
		t.Fatalf("expected 1500, got %q ok=%v", got, ok)
	}
	got, ok = Normalize("8.48", usHint)
	if !ok || got != "8.48" {
		t.Fatalf("expected 8.48, got %q ok=%v", got, ok)
	}
}

func TestNormalize_KeepsFractionZeros(t *testing.T) {
	got, ok := Normalize("449.00", euHint)
	if !ok || got != "449.00" {
		t.Fatalf("expected 449.00, got %q ok=%v", got, ok)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, raw := range []string{"2,500,000", "449.00", "1.234,56", "8.48", "20"} {
		once, ok := Normalize(raw, usHint)
		if !ok {
			t.Fatalf("expected %q to normalize", raw)
		}
		twice, ok := Normalize(once, usHint)
		if !ok || twice != once {
			t.Fatalf("not idempotent for %q: %q then %q", raw, once, twice)
		}
	}
}

func TestNormalize_RejectsNonNumeric(t *testing.T) {
	for _, raw := range []string{"", "   ", "abc", "$", "..,,"} {
		if got, ok := Normalize(raw, usHint); ok {
			t.Fatalf("expected failure for %q, got %q", raw, got)
		}
	}
}

func TestCandidate_KeyIdentity(t *testing.T) {
	a := Candidate{Value: "8.48", Currency: "$", Strategy: StrategyAttribute}
	b := Candidate{Value: "8.48", Currency: "$", Strategy: StrategyTextContent}
	if a.Key() != b.Key() {
		t.Fatalf("same value and currency must share a dedup key")
	}
	c := Candidate{Value: "8.48", Currency: "€"}
	if a.Key() == c.Key() {
		t.Fatalf("different currencies must not collide")
	}
}

func TestDedupe_KeepsHighestConfidence(t *testing.T) {
	in := []Candidate{
		{Value: "8.48", Currency: "$", Confidence: 0.55, Strategy: StrategyTextContent},
		{Value: "19.99", Currency: "$", Confidence: 0.58, Strategy: StrategyPatternMatching},
		{Value: "8.48", Currency: "$", Confidence: 0.92, Strategy: StrategyAttribute},
	}
	got := Dedupe(in)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(got), got)
	}
	// First-seen order preserved, higher-confidence duplicate kept in place.
	if got[0].Strategy != StrategyAttribute || got[0].Confidence != 0.92 {
		t.Fatalf("expected attribute instance to replace the weaker one, got %+v", got[0])
	}
	if got[1].Value != "19.99" {
		t.Fatalf("unexpected second candidate: %+v", got[1])
	}
}

func TestStrategyTag_PriorityOrdering(t *testing.T) {
	order := []StrategyTag{
		StrategySiteSpecific,
		StrategyAttribute,
		StrategySplitComponent,
		StrategyNestedCurrency,
		StrategyPatternMatching,
		StrategyContextual,
		StrategyTextContent,
	}
	for i := 1; i < len(order); i++ {
		if order[i-1].Priority() <= order[i].Priority() {
			t.Fatalf("%s must outrank %s", order[i-1], order[i])
		}
	}
}
