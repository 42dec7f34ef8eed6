package textpattern

import (
	"regexp"
	"strings"

	"github.com/hyperifyio/pricescan/internal/format"
	"github.com/hyperifyio/pricescan/internal/price"
)

// leadingPhrases qualify a price that follows them; trailingPhrases qualify
// one that precedes them. Matching is case-insensitive and the context tag
// is the canonical lowercase phrase.
var leadingPhrases = []string{
	"under",
	"from",
	"starting at",
	"up to",
	"as low as",
	"over",
	"only",
}

var trailingPhrases = []string{
	"or less",
	"and under",
	"and up",
}

// contextTag collapses multi-word phrases to their qualifier word so that
// "and under" and "under" report the same context.
func contextTag(phrase string) string {
	phrase = strings.ToLower(strings.TrimSpace(phrase))
	switch phrase {
	case "or less", "and under":
		return "under"
	case "and up", "starting at", "as low as":
		return "from"
	case "up to":
		return "under"
	default:
		return phrase
	}
}

// FindContextual locates prices qualified by a fixed phrase immediately
// before or after the price token. Multiple contextual prices in one text
// yield candidates in left-to-right order.
func (l *Library) FindContextual(text string, d format.Descriptor) []price.Candidate {
	re, err := l.builder.ForDescriptor(d)
	if err != nil {
		return nil
	}
	priceExpr := re.String()

	leading := `(?i)\b(` + phraseAlternation(leadingPhrases) + `)\b[\s:]*(` + priceExpr + `)`
	trailing := `(?i)(` + priceExpr + `)\s+(` + phraseAlternation(trailingPhrases) + `)\b`

	type hit struct {
		pos    int
		phrase string
		match  string
	}
	var hits []hit

	if cre, err := regexCached(leading); err == nil {
		for _, m := range cre.FindAllStringSubmatchIndex(text, -1) {
			hits = append(hits, hit{
				pos:    m[0],
				phrase: text[m[2]:m[3]],
				match:  text[m[4]:m[5]],
			})
		}
	}
	if cre, err := regexCached(trailing); err == nil {
		for _, m := range cre.FindAllStringSubmatchIndex(text, -1) {
			hits = append(hits, hit{
				pos:    m[0],
				phrase: text[m[4]:m[5]],
				match:  text[m[2]:m[3]],
			})
		}
	}

	// Keep document order when both expressions fired.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	var out []price.Candidate
	for _, h := range hits {
		c, ok := l.candidateFrom(h.match, d, price.StrategyContextual, "contextual-phrase", confContextual)
		if !ok {
			continue
		}
		c.Context = contextTag(h.phrase)
		out = append(out, c)
	}
	return out
}

func phraseAlternation(phrases []string) string {
	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return strings.Join(quoted, `|`)
}

// SelectBest runs every sub-pattern over the text and returns the single
// highest-confidence candidate. Ties resolve by sub-pattern registration
// order, so identical input always yields the identical choice. Returns nil
// when nothing matches or no currency context exists.
func (l *Library) SelectBest(text string, hints *Hints) *price.Candidate {
	var d format.Descriptor
	if hints != nil && hints.Format != nil {
		d = *hints.Format
	} else {
		inferred, ok := format.Infer(text)
		if !ok {
			return nil
		}
		d = inferred
	}

	// Registration order is the tie-break order.
	groups := [][]price.Candidate{
		l.FindLargeNumbers(text, d),
		l.FindContextual(text, d),
		l.FindSpaceVariations(text, d),
		l.FindAll(text, d),
	}
	var best *price.Candidate
	for _, g := range groups {
		for i := range g {
			if best == nil || g[i].Confidence > best.Confidence {
				c := g[i]
				best = &c
			}
		}
	}
	return best
}
