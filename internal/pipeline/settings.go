package pipeline

import (
	"github.com/hyperifyio/pricescan/internal/format"
)

// Settings is the caller-facing option set, typically decoded from the
// settings store by the embedding application. Unknown keys are ignored by
// the YAML/JSON decoders; zero values mean "default".
type Settings struct {
	// Currency format. Symbol wins over code when both are set and
	// disagree; both empty means "infer from the input".
	CurrencySymbol string `yaml:"currencySymbol" json:"currencySymbol"`
	CurrencyCode   string `yaml:"currencyCode" json:"currencyCode"`

	// Separator overrides, using the format package's token names
	// ("commas", "spacesAndDots", "none" / "dot", "comma").
	Thousands string `yaml:"thousands" json:"thousands"`
	Decimal   string `yaml:"decimal" json:"decimal"`

	// DebugMode toggles trace emission to the log. It never alters
	// extraction results.
	DebugMode bool `yaml:"debugMode" json:"debugMode"`

	// MinConfidence discards candidates below the threshold before
	// arbitration.
	MinConfidence float64 `yaml:"minConfidence" json:"minConfidence"`

	// MultiPassMode forces every pass to run even after a site handler
	// succeeds.
	MultiPassMode bool `yaml:"multiPassMode" json:"multiPassMode"`

	// OnlyPass restricts the run to a single named pass (a debug aid).
	OnlyPass string `yaml:"onlyPass" json:"onlyPass"`

	// Exhaustive runs every applicable pass and returns the full ranked
	// candidate set.
	Exhaustive bool `yaml:"exhaustive" json:"exhaustive"`

	// EarlyExitConfidence stops the run at the first candidate at or above
	// this confidence. Zero disables early exit.
	EarlyExitConfidence float64 `yaml:"earlyExitConfidence" json:"earlyExitConfidence"`

	// ReturnMultiple returns the full ranked set instead of only the best
	// candidate.
	ReturnMultiple bool `yaml:"returnMultiple" json:"returnMultiple"`

	// AllowMultipleResults permits more than one candidate from a single
	// pass; otherwise each pass contributes only its best.
	AllowMultipleResults bool `yaml:"allowMultipleResults" json:"allowMultipleResults"`
}

// Descriptor resolves the settings into a format descriptor, applying
// separator overrides and the separator-collision invariant.
func (s Settings) Descriptor() format.Descriptor {
	d := format.Resolve(s.CurrencySymbol, s.CurrencyCode)
	if s.Thousands != "" {
		d.Thousands = format.Thousands(s.Thousands)
	}
	if s.Decimal != "" {
		d.Decimal = format.Decimal(s.Decimal)
	}
	return d.Sanitize()
}

// explicitCurrency reports whether the caller pinned a currency, as opposed
// to leaving it to inference.
func (s Settings) explicitCurrency() bool {
	return s.CurrencySymbol != "" || s.CurrencyCode != ""
}
