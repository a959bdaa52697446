// Package normalizer provides text canonicalization and value coercion for
// budget imports. All coercers are total functions: malformed input maps to a
// zero value instead of an error, except date parsing which reports failure
// explicitly so callers can surface it as a field error.
package normalizer

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CentsMode controls the magnitude-correction heuristic for monetary values.
// Files exported by systems that store prices as integer cents produce values
// like "35000" meaning R$ 350,00; guessing silently can corrupt legitimately
// large prices, so the correction is an explicit caller choice.
type CentsMode int

const (
	// CentsModeOff parses the value as major units with no correction.
	CentsModeOff CentsMode = iota
	// CentsModeWarn divides values above CentsThreshold by 100 and reports
	// the correction so the caller can attach a row warning.
	CentsModeWarn
	// CentsModeForce treats every value as integer cents (caller asserts the
	// source system's convention).
	CentsModeForce
)

// CentsThreshold is the major-unit value above which CentsModeWarn assumes a
// miskeyed magnitude. Repair quotes above R$ 100.000,00 do not occur in
// practice; cents-as-integer exports cross it constantly.
const CentsThreshold = 100_000

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeText lowercases, strips accents and BOM markers, and collapses
// runs of whitespace. Used wherever headers or free text are compared loosely.
func NormalizeText(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	if stripped, _, err := transform.String(accentStripper, s); err == nil {
		s = stripped
	}
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// CanonicalToken converts header text to a canonical token: normalized,
// with every non-alphanumeric run collapsed to a single underscore.
// "Preço Total" and "preco_total" both become "preco_total".
func CanonicalToken(s string) string {
	s = NormalizeText(s)
	var b strings.Builder
	b.Grow(len(s))
	pendingSep := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		} else {
			pendingSep = true
		}
	}
	return b.String()
}

// CleanText trims and collapses internal whitespace without changing case.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ParseCurrency converts a raw monetary string to integer cents.
// It strips currency symbols, resolves `,`/`.` as decimal or thousands
// separators, and applies the magnitude correction selected by mode.
// corrected reports whether the cents heuristic fired; ok is false when no
// number could be extracted (cents is then 0).
func ParseCurrency(raw string, mode CentsMode) (cents int64, corrected bool, ok bool) {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == ',' || r == '.' || r == '-' {
			return r
		}
		return -1
	}, raw)

	negative := strings.HasPrefix(cleaned, "-")
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	if cleaned == "" {
		return 0, false, false
	}

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")

	switch {
	case hasComma && hasDot:
		// Rightmost separator is the decimal point.
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case hasComma:
		// A single comma followed by at most two digits is a decimal mark,
		// otherwise the commas are thousands separators.
		idx := strings.LastIndex(cleaned, ",")
		if strings.Count(cleaned, ",") == 1 && len(cleaned)-idx-1 <= 2 {
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case hasDot:
		// Same rule for dot-only values ("1.234" is a thousand, "350.00" is not).
		idx := strings.LastIndex(cleaned, ".")
		if strings.Count(cleaned, ".") == 1 && len(cleaned)-idx-1 <= 2 {
			// Already a decimal point.
		} else {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		}
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, false, false
	}
	if negative {
		value = value.Neg()
	}

	switch mode {
	case CentsModeForce:
		cents = value.Round(0).IntPart()
	case CentsModeWarn:
		if value.Abs().GreaterThan(decimal.NewFromInt(CentsThreshold)) {
			cents = value.Round(0).IntPart()
			corrected = true
		} else {
			cents = value.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
		}
	default:
		cents = value.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	}
	return cents, corrected, true
}

// FormatCents renders integer cents as a canonical major-unit string with a
// dot decimal mark ("35000" cents -> "350.00"). Re-parsing the output with
// ParseCurrency yields the same cents value.
func FormatCents(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}

var truthyTokens = map[string]struct{}{
	"sim": {}, "yes": {}, "true": {}, "1": {}, "verdadeiro": {}, "s": {}, "y": {},
}

// ParseBool matches against a truthy allow-list after normalization;
// everything else, including empty input, is false.
func ParseBool(raw string) bool {
	_, ok := truthyTokens[NormalizeText(raw)]
	return ok
}

// ParseInt strips every non-digit rune and parses what remains; values with
// no digits yield 0.
func ParseInt(raw string) int {
	n := 0
	seen := false
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			n = n*10 + int(r-'0')
			seen = true
		}
	}
	if !seen {
		return 0
	}
	return n
}

// ParsePhone strips non-digits and re-formats Brazilian numbers:
// 11 digits -> (XX) XXXXX-XXXX, 10 digits -> (XX) XXXX-XXXX. Anything else
// comes back as the bare digit string.
func ParsePhone(raw string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	switch len(digits) {
	case 11:
		return fmt.Sprintf("(%s) %s-%s", digits[:2], digits[2:7], digits[7:])
	case 10:
		return fmt.Sprintf("(%s) %s-%s", digits[:2], digits[2:6], digits[6:])
	default:
		return digits
	}
}

// PhoneDigits returns just the digits of a phone value, for plausibility checks.
func PhoneDigits(raw string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
}

// dateFormats are tried in order; day-first formats come before month-first
// because the importer's primary sources are Brazilian exports.
var dateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"2006/01/02",
	"02.01.2006",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04",
	"02/01/06",
}

// ParseDate parses a date using flexible format detection. A configured
// format, when non-empty, is tried first.
func ParseDate(raw string, format string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if loc == nil {
		loc = time.UTC
	}

	if format != "" {
		if t, err := time.ParseInLocation(format, s, loc); err == nil {
			return t, nil
		}
	}
	for _, f := range dateFormats {
		if t, err := time.ParseInLocation(f, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %s", s)
}

// DetectDateFormat inspects sample values and picks the layout that parses
// the most of them, preferring day-first when a sample proves the first
// component exceeds 12.
func DetectDateFormat(samples []string) string {
	best := ""
	bestHits := 0
	for _, f := range dateFormats {
		hits := 0
		for _, s := range samples {
			if _, err := time.Parse(f, strings.TrimSpace(s)); err == nil {
				hits++
			}
		}
		if hits > bestHits {
			bestHits = hits
			best = f
		}
	}

	// A day value above 12 disambiguates DD/MM from MM/DD.
	if best == "01/02/2006" || best == "02/01/2006" {
		for _, s := range samples {
			parts := strings.FieldsFunc(s, func(r rune) bool { return r == '/' || r == '-' || r == '.' })
			if len(parts) >= 2 {
				if first := ParseInt(parts[0]); first > 12 && first <= 31 {
					return "02/01/2006"
				}
			}
		}
	}
	return best
}
