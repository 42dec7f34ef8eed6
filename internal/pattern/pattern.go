package pattern

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hyperifyio/pricescan/internal/format"
)

// ErrUnknownDelimiter reports a separator token the builder cannot compile.
// This is a caller defect, not untrusted input, so it propagates instead of
// degrading to an empty match.
var ErrUnknownDelimiter = errors.New("not a recognized delimiter")

// Builder compiles price matchers for a currency format and memoizes them
// in an injectable cache. A nil cache disables memoization but keeps the
// builder usable.
type Builder struct {
	cache *Cache
}

// NewBuilder returns a builder backed by the given cache. Pass nil to build
// uncached.
func NewBuilder(c *Cache) *Builder {
	return &Builder{cache: c}
}

// Match compiles (or fetches) a matcher for plain price text in the given
// format. The matcher accepts symbol-before, symbol-after, code-before and
// code-after placements, with or without whitespace between currency and
// amount, with or without grouping, with or without a fraction.
func (b *Builder) Match(symbol, code string, thousands format.Thousands, decimal format.Decimal) (*regexp.Regexp, error) {
	return b.compile("plain", symbol, code, thousands, decimal)
}

// ReverseMatch compiles a matcher for text this system already annotated:
// a plain price followed by a parenthesized worked-time estimate such as
// "(3h 20m)" or "(45 minutes)". Re-scans use it to skip converted content.
func (b *Builder) ReverseMatch(symbol, code string, thousands format.Thousands, decimal format.Decimal) (*regexp.Regexp, error) {
	return b.compile("reverse", symbol, code, thousands, decimal)
}

func (b *Builder) compile(kind, symbol, code string, thousands format.Thousands, decimal format.Decimal) (*regexp.Regexp, error) {
	key := strings.Join([]string{kind, symbol, code, string(thousands), string(decimal)}, "|")
	if b.cache != nil {
		if re, ok := b.cache.Get(key); ok {
			return re, nil
		}
	}
	expr, err := buildExpr(kind, symbol, code, thousands, decimal)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile price matcher: %w", err)
	}
	if b.cache != nil {
		b.cache.Add(key, re)
	}
	return re, nil
}

func buildExpr(kind, symbol, code string, thousands format.Thousands, decimal format.Decimal) (string, error) {
	thou, err := thousandsExpr(thousands)
	if err != nil {
		return "", err
	}
	dec, err := decimalExpr(decimal)
	if err != nil {
		return "", err
	}

	num := `\d+`
	if thou != "" {
		num = `\d{1,3}(?:` + thou + `\d{3})*`
	}
	num += `(?:` + dec + `\d{1,2})?`

	var curAlts []string
	if symbol != "" {
		curAlts = append(curAlts, regexp.QuoteMeta(symbol))
	}
	if code != "" {
		curAlts = append(curAlts, `(?i:`+regexp.QuoteMeta(code)+`)`)
	}
	if len(curAlts) == 0 {
		// Currency-less matching is never valid for price detection.
		return "", fmt.Errorf("%w: empty symbol and code", ErrUnknownDelimiter)
	}
	cur := `(?:` + strings.Join(curAlts, `|`) + `)`

	ws := `[ \x{00A0}]?`
	expr := `(?:` + cur + ws + num + `|` + num + ws + cur + `)`
	if kind == "reverse" {
		expr += `\s*\((?:\d+\s*h(?:ours?)?[ ,]*)?\d+\s*m(?:in(?:ute)?s?)?\)`
	}
	return expr, nil
}

func thousandsExpr(t format.Thousands) (string, error) {
	switch t {
	case format.ThousandsCommas:
		return `,`, nil
	case format.ThousandsSpacesAndDots:
		return `[. \x{00A0}]`, nil
	case format.ThousandsNone:
		return ``, nil
	default:
		return ``, fmt.Errorf("%w: thousands separator %q", ErrUnknownDelimiter, string(t))
	}
}

func decimalExpr(d format.Decimal) (string, error) {
	switch d {
	case format.DecimalDot:
		return `\.`, nil
	case format.DecimalComma:
		return `,`, nil
	default:
		return ``, fmt.Errorf("%w: decimal separator %q", ErrUnknownDelimiter, string(d))
	}
}

// ForDescriptor is a convenience wrapper building the plain matcher straight
// from a resolved descriptor.
func (b *Builder) ForDescriptor(d format.Descriptor) (*regexp.Regexp, error) {
	return b.Match(d.Symbol, d.Code, d.Thousands, d.Decimal)
}
