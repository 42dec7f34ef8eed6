// Package textpattern detects prices in bare text, without a markup tree.
// Its sub-patterns also serve as building blocks for the structural
// strategies: each takes a string plus a format descriptor and yields
// confidence-scored candidates.
package textpattern

import (
	"regexp"
	"strings"
	"sync"

	"github.com/hyperifyio/pricescan/internal/format"
	"github.com/hyperifyio/pricescan/internal/pattern"
	"github.com/hyperifyio/pricescan/internal/price"
)

// Confidence baselines for text-only detection. Tunable; only the relative
// ordering against structural strategies is load-bearing.
const (
	confLargeNumber    = 0.68
	confContextual     = 0.65
	confSpaceVariation = 0.62
	confPlain          = 0.58
)

// Library bundles the text sub-patterns around a shared pattern builder.
type Library struct {
	builder *pattern.Builder
}

// NewLibrary wires the text patterns to the given builder. A nil builder
// gets an uncached one.
func NewLibrary(b *pattern.Builder) *Library {
	if b == nil {
		b = pattern.NewBuilder(nil)
	}
	return &Library{builder: b}
}

// Hints narrows SelectBest: an explicit format descriptor and, optionally,
// contextual phrases the caller already observed near the text.
type Hints struct {
	Format  *format.Descriptor
	Phrases []string
}

// FindAll applies the plain matcher across the text and returns one
// candidate per non-overlapping match, tagged pattern-matching.
func (l *Library) FindAll(text string, d format.Descriptor) []price.Candidate {
	re, err := l.builder.ForDescriptor(d)
	if err != nil {
		return nil
	}
	var out []price.Candidate
	for _, m := range re.FindAllString(text, -1) {
		if c, ok := l.candidateFrom(m, d, price.StrategyPatternMatching, "plain", confPlain); ok {
			out = append(out, c)
		}
	}
	return out
}

// FindTagged runs the plain matcher but stamps the caller's strategy tag,
// source and confidence onto each candidate. The structural strategies use
// it to score attribute and text-content matches on their own scale.
func (l *Library) FindTagged(text string, d format.Descriptor, tag price.StrategyTag, source string, conf float64) []price.Candidate {
	re, err := l.builder.ForDescriptor(d)
	if err != nil {
		return nil
	}
	var out []price.Candidate
	for _, m := range re.FindAllString(text, -1) {
		if c, ok := l.candidateFrom(m, d, tag, source, conf); ok {
			out = append(out, c)
		}
	}
	return out
}

// candidateFrom splits a matched string into currency and amount, then
// normalizes the amount. The currency token may sit before or after the
// digits.
func (l *Library) candidateFrom(match string, d format.Descriptor, tag price.StrategyTag, source string, conf float64) (price.Candidate, bool) {
	cur, raw := SplitCurrency(match, d)
	value, ok := price.Normalize(raw, d)
	if !ok {
		return price.Candidate{}, false
	}
	return price.Candidate{
		Value:      value,
		Currency:   cur,
		Text:       strings.TrimSpace(match),
		Confidence: conf,
		Strategy:   tag,
		Source:     source,
	}, true
}

// SplitCurrency separates the currency token (symbol or ISO code) from the
// numeric remainder of a matched price string. The currency comes back as
// the descriptor's symbol when either form matched.
func SplitCurrency(match string, d format.Descriptor) (currency, rest string) {
	rest = match
	if d.Symbol != "" && strings.Contains(rest, d.Symbol) {
		rest = strings.Replace(rest, d.Symbol, "", 1)
		return d.Symbol, strings.TrimSpace(rest)
	}
	if d.Code != "" {
		lower := strings.ToLower(rest)
		code := strings.ToLower(d.Code)
		if idx := strings.Index(lower, code); idx >= 0 {
			rest = rest[:idx] + rest[idx+len(code):]
			return d.Symbol, strings.TrimSpace(rest)
		}
	}
	return "", strings.TrimSpace(rest)
}

// spaceVariationExpr matches symbol-adjacent prices where the separator
// style may disagree with the descriptor: decimal comma in a dot locale and
// vice versa. Normalize resolves the separators by role afterwards.
var spaceVariationExpr = `\d{1,3}(?:[ \x{00A0}.,]\d{3})*(?:[.,]\d{1,2})?`

// FindSpaceVariations tolerates unexpected whitespace and swapped decimal
// separators around the configured symbol.
func (l *Library) FindSpaceVariations(text string, d format.Descriptor) []price.Candidate {
	if d.Symbol == "" {
		return nil
	}
	sym := regexp.QuoteMeta(d.Symbol)
	re, err := regexCached(`(?:` + sym + `\s*` + spaceVariationExpr + `|` + spaceVariationExpr + `\s*` + sym + `)`)
	if err != nil {
		return nil
	}
	var out []price.Candidate
	for _, m := range re.FindAllString(text, -1) {
		if c, ok := l.candidateFrom(m, d, price.StrategyPatternMatching, "space-variation", confSpaceVariation); ok {
			out = append(out, c)
		}
	}
	return out
}

// FindLargeNumbers targets grouped amounts: at least one grouping separator
// must be present, so plain small prices stay with the other sub-patterns.
func (l *Library) FindLargeNumbers(text string, d format.Descriptor) []price.Candidate {
	if d.Symbol == "" {
		return nil
	}
	sym := regexp.QuoteMeta(d.Symbol)
	num := `\d{1,3}(?:[ \x{00A0}.,]\d{3})+(?:[.,]\d{1,2})?`
	re, err := regexCached(`(?:` + sym + `\s*` + num + `|` + num + `\s*` + sym + `)`)
	if err != nil {
		return nil
	}
	var out []price.Candidate
	for _, m := range re.FindAllString(text, -1) {
		if c, ok := l.candidateFrom(m, d, price.StrategyPatternMatching, "large-number", confLargeNumber); ok {
			out = append(out, c)
		}
	}
	return out
}

// ReconstructSplit assembles a price from pre-tokenized fragments, e.g.
// ["$", "8.", "48"] or ["449€", "00"]. It returns nil when the fragments do
// not reconstruct to a single unambiguous price.
func (l *Library) ReconstructSplit(fragments []string, d format.Descriptor) *price.Candidate {
	joined := reconstruct(fragments, d)
	if joined == "" {
		return nil
	}
	c, ok := l.candidateFrom(joined, d, price.StrategyPatternMatching, "split-pattern", confLargeNumber)
	if !ok {
		return nil
	}
	c.Text = strings.Join(fragments, " ")
	return &c
}

// reconstruct joins fragments into one price string, inserting the decimal
// separator between an integer fragment and a 1-2 digit fraction fragment.
func reconstruct(fragments []string, d format.Descriptor) string {
	trimmed := make([]string, 0, len(fragments))
	for _, f := range fragments {
		f = strings.TrimSpace(f)
		if f != "" {
			trimmed = append(trimmed, f)
		}
	}
	if len(trimmed) < 2 || len(trimmed) > 3 {
		return ""
	}
	last := trimmed[len(trimmed)-1]
	if isFractionFragment(last) {
		head := strings.Join(trimmed[:len(trimmed)-1], " ")
		// A trailing separator on the integer fragment ("8.") already
		// carries the decimal point.
		if strings.HasSuffix(head, ".") || strings.HasSuffix(head, ",") {
			return head + last
		}
		return head + "." + last
	}
	return strings.Join(trimmed, " ")
}

func isFractionFragment(s string) bool {
	if len(s) < 1 || len(s) > 2 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var (
	regexCache   = map[string]*regexp.Regexp{}
	regexCacheMu sync.Mutex
)

// regexCached compiles ad-hoc expressions once. Distinct from the pattern
// builder cache: these expressions are internal to this package.
func regexCached(expr string) (*regexp.Regexp, error) {
	regexCacheMu.Lock()
	defer regexCacheMu.Unlock()
	if re, ok := regexCache[expr]; ok {
		return re, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	regexCache[expr] = re
	return re, nil
}
