package price

// StrategyTag identifies which detection technique produced a candidate.
// The set is closed; the pipeline sorts passes by tag priority once at
// construction.
type StrategyTag string

const (
	StrategySiteSpecific    StrategyTag = "site-specific"
	StrategyAttribute       StrategyTag = "attribute"
	StrategySplitComponent  StrategyTag = "splitComponent"
	StrategyNestedCurrency  StrategyTag = "nestedCurrency"
	StrategyPatternMatching StrategyTag = "pattern-matching"
	StrategyContextual      StrategyTag = "contextual"
	StrategyTextContent     StrategyTag = "textContent"
)

// strategyPriority orders passes: explicit machine-readable signals first,
// plain text content last.
var strategyPriority = map[StrategyTag]int{
	StrategySiteSpecific:    100,
	StrategyAttribute:       90,
	StrategySplitComponent:  80,
	StrategyNestedCurrency:  75,
	StrategyPatternMatching: 60,
	StrategyContextual:      55,
	StrategyTextContent:     40,
}

// Priority returns the pass ordering rank for a tag; unknown tags rank last.
func (t StrategyTag) Priority() int {
	return strategyPriority[t]
}

// Candidate is one detected, scored price extraction result. Candidates are
// created by exactly one strategy invocation and never mutated afterwards;
// deduplication drops instances, it does not edit them.
type Candidate struct {
	// Value is the canonical numeric string: decimal point normalized to
	// ".", grouping separators stripped. It parses losslessly as a decimal.
	Value string `json:"value"`

	// Currency is the resolved symbol or ISO-like code, empty when
	// undetermined.
	Currency string `json:"currency,omitempty"`

	// Text is the original substring or reconstruction that produced the
	// value, kept for audit and revert by the rendering collaborator.
	Text string `json:"text"`

	// Confidence is a heuristic correctness estimate in [0,1].
	Confidence float64 `json:"confidence"`

	// Strategy tags the technique that produced this candidate.
	Strategy StrategyTag `json:"strategy"`

	// Source carries strategy-specific provenance, e.g. the attribute name
	// or "split-pattern".
	Source string `json:"source,omitempty"`

	// Context marks the qualifying phrase for contextual matches
	// ("under", "from").
	Context string `json:"context,omitempty"`
}

// Key is the deduplication identity: normalized value plus currency. Two
// candidates with equal keys describe the same underlying price.
func (c Candidate) Key() string {
	return c.Value + "\x00" + c.Currency
}
