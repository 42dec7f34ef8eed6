package price

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hyperifyio/pricescan/internal/format"
)

// Normalize converts a raw digit-and-separator string into the canonical
// dot-decimal form: grouping separators stripped, the decimal separator
// rewritten to ".". The boolean is false for empty or non-numeric input.
// Normalize is idempotent: feeding its own output back yields the same
// string.
//
// The separator roles come first from the format hint and second from how
// the separator behaves in the string (a separator repeated or followed by
// exactly three digits groups; a final separator followed by one or two
// digits marks the fraction). Role, not position, decides.
func Normalize(raw string, hint format.Descriptor) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	var digits []rune
	var seps []sepUse
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits = append(digits, r)
		case r == '.' || r == ',':
			seps = append(seps, sepUse{char: r, afterDigit: len(digits), pos: i})
		case r == ' ' || r == '\u00a0' || r == '\'':
			// Grouping-only characters; never a fraction marker.
			if len(digits) == 0 {
				return "", false
			}
		default:
			return "", false
		}
	}
	if len(digits) == 0 {
		return "", false
	}

	decIdx := decimalSeparator(s, seps, hint)
	if decIdx == -1 {
		return string(digits), true
	}
	d := seps[decIdx]
	intDigits := string(digits[:d.afterDigit])
	fracDigits := string(digits[d.afterDigit:])
	if intDigits == "" || fracDigits == "" {
		return "", false
	}
	out := intDigits + "." + fracDigits
	if _, err := decimal.NewFromString(out); err != nil {
		return "", false
	}
	return out, true
}

type sepUse struct {
	char       rune
	afterDigit int
	pos        int
}

// decimalSeparator picks which separator occurrence, if any, is the
// fraction marker. Returns -1 when every separator groups.
//
// Role rules: a separator character that repeats always groups; only the
// final occurrence can mark the fraction, and only with one or two trailing
// digits (prices carry at most two). A hint with no grouping separator at
// all widens that to three, since then no separator can group.
func decimalSeparator(s string, seps []sepUse, hint format.Descriptor) int {
	if len(seps) == 0 {
		return -1
	}
	last := len(seps) - 1
	trailing := trailingDigits(s, seps[last].pos)

	if len(seps) == 1 && hint.Thousands == format.ThousandsNone {
		if trailing >= 1 && trailing <= 3 {
			return 0
		}
		return -1
	}
	if trailing < 1 || trailing > 2 {
		return -1
	}
	if countChar(seps, seps[last].char) > 1 {
		return -1
	}
	// Mixed separators resolve by position of the final one: "1.234,56"
	// and "1,234.56" both land on the right fraction marker.
	return last
}

func trailingDigits(s string, pos int) int {
	n := 0
	for _, r := range s[pos+1:] {
		if r < '0' || r > '9' {
			break
		}
		n++
	}
	return n
}

func countChar(seps []sepUse, c rune) int {
	n := 0
	for _, s := range seps {
		if s.char == c {
			n++
		}
	}
	return n
}
