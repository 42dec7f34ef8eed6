package format

import (
	"strings"
	"sync"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// Thousands identifies the grouping-separator style of a currency format.
type Thousands string

// Decimal identifies the decimal-separator style of a currency format.
type Decimal string

const (
	ThousandsCommas        Thousands = "commas"
	ThousandsSpacesAndDots Thousands = "spacesAndDots"
	ThousandsNone          Thousands = "none"

	DecimalDot   Decimal = "dot"
	DecimalComma Decimal = "comma"
)

// Descriptor is the resolved currency format: which symbol and ISO code the
// price carries and how its digits are grouped. Descriptors are value types
// and read-only once built.
type Descriptor struct {
	Symbol    string
	Code      string
	Thousands Thousands
	Decimal   Decimal
	Locale    language.Tag
}

// knownFormats maps a currency symbol to its canonical descriptor. The
// grouping styles follow the dominant locale for each currency, not the
// full CLDR matrix.
var knownFormats = map[string]Descriptor{
	"$":   {Symbol: "$", Code: "USD", Thousands: ThousandsCommas, Decimal: DecimalDot, Locale: language.MustParse("en-US")},
	"€":   {Symbol: "€", Code: "EUR", Thousands: ThousandsSpacesAndDots, Decimal: DecimalComma, Locale: language.MustParse("de-DE")},
	"£":   {Symbol: "£", Code: "GBP", Thousands: ThousandsCommas, Decimal: DecimalDot, Locale: language.MustParse("en-GB")},
	"¥":   {Symbol: "¥", Code: "JPY", Thousands: ThousandsCommas, Decimal: DecimalDot, Locale: language.MustParse("ja-JP")},
	"₹":   {Symbol: "₹", Code: "INR", Thousands: ThousandsCommas, Decimal: DecimalDot, Locale: language.MustParse("en-IN")},
	"₩":   {Symbol: "₩", Code: "KRW", Thousands: ThousandsCommas, Decimal: DecimalDot, Locale: language.MustParse("ko-KR")},
	"R$":  {Symbol: "R$", Code: "BRL", Thousands: ThousandsSpacesAndDots, Decimal: DecimalComma, Locale: language.MustParse("pt-BR")},
	"C$":  {Symbol: "C$", Code: "CAD", Thousands: ThousandsCommas, Decimal: DecimalDot, Locale: language.MustParse("en-CA")},
	"A$":  {Symbol: "A$", Code: "AUD", Thousands: ThousandsCommas, Decimal: DecimalDot, Locale: language.MustParse("en-AU")},
	"kr":  {Symbol: "kr", Code: "SEK", Thousands: ThousandsSpacesAndDots, Decimal: DecimalComma, Locale: language.MustParse("sv-SE")},
	"zł":  {Symbol: "zł", Code: "PLN", Thousands: ThousandsSpacesAndDots, Decimal: DecimalComma, Locale: language.MustParse("pl-PL")},
	"₺":   {Symbol: "₺", Code: "TRY", Thousands: ThousandsSpacesAndDots, Decimal: DecimalComma, Locale: language.MustParse("tr-TR")},
	"₽":   {Symbol: "₽", Code: "RUB", Thousands: ThousandsSpacesAndDots, Decimal: DecimalComma, Locale: language.MustParse("ru-RU")},
	"CHF": {Symbol: "CHF", Code: "CHF", Thousands: ThousandsCommas, Decimal: DecimalDot, Locale: language.MustParse("de-CH")},
}

// codeToSymbol is the inverse view of knownFormats for code-only lookups.
var codeToSymbol = func() map[string]string {
	m := make(map[string]string, len(knownFormats))
	for sym, d := range knownFormats {
		// Prefer the shortest symbol when several map to one code ($ over C$).
		if prev, ok := m[d.Code]; !ok || len(sym) < len(prev) {
			m[d.Code] = sym
		}
	}
	return m
}()

// defaultDescriptor is the US-like fallback used when neither symbol nor
// code is recognized. Unknown input degrades to a permissive format rather
// than failing the caller.
var defaultDescriptor = Descriptor{
	Symbol:    "$",
	Code:      "USD",
	Thousands: ThousandsCommas,
	Decimal:   DecimalDot,
	Locale:    language.MustParse("en-US"),
}

var (
	cacheMu sync.RWMutex
	cache   = map[string]Descriptor{}
)

// Resolve maps a currency symbol and/or ISO code to a format descriptor.
// The symbol wins when symbol and code disagree ("$" with "EUR" resolves to
// the US format). Unknown pairs fall back to a US-like default carrying the
// caller's tokens. Results are cached by the (symbol, code) pair.
func Resolve(symbol, code string) Descriptor {
	symbol = strings.TrimSpace(symbol)
	code = strings.ToUpper(strings.TrimSpace(code))
	key := symbol + "\x00" + code

	cacheMu.RLock()
	if d, ok := cache[key]; ok {
		cacheMu.RUnlock()
		return d
	}
	cacheMu.RUnlock()

	d := resolve(symbol, code)
	cacheMu.Lock()
	cache[key] = d
	cacheMu.Unlock()
	return d
}

func resolve(symbol, code string) Descriptor {
	if d, ok := knownFormats[symbol]; ok {
		return d
	}
	if sym, ok := codeToSymbol[code]; ok {
		d := knownFormats[sym]
		if symbol != "" {
			// Unknown symbol with a known code: keep the caller's symbol but
			// adopt the code's separators and locale.
			d.Symbol = symbol
		}
		return d
	}
	d := defaultDescriptor
	if symbol != "" {
		d.Symbol = symbol
	}
	if code != "" {
		d.Code = code
	}
	return d
}

// ResetCache drops all memoized descriptors. Intended for tests.
func ResetCache() {
	cacheMu.Lock()
	cache = map[string]Descriptor{}
	cacheMu.Unlock()
}

// orderedSymbols lists known symbols longest-first so that multi-rune
// symbols ("R$") are matched before their prefixes ("$").
var orderedSymbols = func() []string {
	syms := make([]string, 0, len(knownFormats))
	for s := range knownFormats {
		syms = append(syms, s)
	}
	for i := 1; i < len(syms); i++ {
		for j := i; j > 0 && len(syms[j]) > len(syms[j-1]); j-- {
			syms[j], syms[j-1] = syms[j-1], syms[j]
		}
	}
	return syms
}()

// Infer scans free text for any known currency symbol or ISO code and
// resolves the first hit. The boolean is false when the text carries no
// currency context at all; that absence is a precondition failure for
// extraction, not a weak match, which is why this is the one lookup that
// does not fall back to a default.
func Infer(text string) (Descriptor, bool) {
	if strings.TrimSpace(text) == "" {
		return Descriptor{}, false
	}
	best := -1
	var bestSym string
	for _, sym := range orderedSymbols {
		if idx := strings.Index(text, sym); idx >= 0 {
			if best == -1 || idx < best {
				best = idx
				bestSym = sym
			}
		}
	}
	if bestSym != "" {
		return Resolve(bestSym, ""), true
	}
	// No symbol: look for an ISO 4217 code as a standalone token.
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z')
	}) {
		if len(tok) != 3 {
			continue
		}
		unit, err := currency.ParseISO(tok)
		if err != nil {
			continue
		}
		return Resolve("", unit.String()), true
	}
	return Descriptor{}, false
}

// Sanitize enforces the invariant that the grouping and decimal separators
// never resolve to the same character. A comma-decimal descriptor that also
// groups with commas is shifted to space-and-dot grouping.
func (d Descriptor) Sanitize() Descriptor {
	if d.Decimal == DecimalComma && d.Thousands == ThousandsCommas {
		d.Thousands = ThousandsSpacesAndDots
	}
	if d.Decimal == DecimalDot && d.Thousands == ThousandsSpacesAndDots {
		d.Thousands = ThousandsCommas
	}
	return d
}
