package normalizer

import (
	"strconv"
	"strings"
)

// Dialect is the regional formatting profile inferred from sample values
// of a file's amount and date columns.
type Dialect struct {
	// DecimalComma is true for Brazilian/European amounts (1.234,56) and
	// false for US-style amounts (1,234.56).
	DecimalComma bool
	// DateFormat is the Go layout that parsed the most date samples, or
	// empty when no sample settled one.
	DateFormat string
	// LikelyCents is true when every amount sample is a bare integer and
	// at least one exceeds the cents threshold, which is what a source
	// that stores integer cents looks like.
	LikelyCents bool
	// Confidence is the winning share of the separator hints, 0–1.
	Confidence float64
}

// ProbeDialect infers the dialect from sample values. Amount samples vote
// on the decimal separator (separator position plus currency-symbol hints);
// date samples pick the date layout, with a day-first tie-break when the
// amounts voted Brazilian/European.
func ProbeDialect(amountSamples, dateSamples []string) Dialect {
	brHints, usHints := 0, 0
	bareIntegers, nonEmpty := 0, 0
	var maxBare int64

	for _, s := range amountSamples {
		cleaned := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' || r == ',' || r == '.' {
				return r
			}
			return -1
		}, s)
		if cleaned == "" {
			continue
		}
		nonEmpty++

		switch hint := amountFormatHint(cleaned); {
		case hint > 0:
			brHints++
		case hint < 0:
			usHints++
		default:
			if n, err := strconv.ParseInt(cleaned, 10, 64); err == nil {
				bareIntegers++
				if n > maxBare {
					maxBare = n
				}
			}
		}

		if strings.Contains(s, "R$") || strings.Contains(s, "€") {
			brHints++
		} else if strings.Contains(s, "$") {
			usHints++
		}
	}

	d := Dialect{DecimalComma: brHints >= usHints}
	if total := brHints + usHints; total > 0 {
		winning := brHints
		if usHints > brHints {
			winning = usHints
		}
		d.Confidence = float64(winning) / float64(total)
	}
	d.LikelyCents = nonEmpty > 0 && bareIntegers == nonEmpty && maxBare > CentsThreshold

	d.DateFormat = DetectDateFormat(dateSamples)
	if d.DateFormat == "" && len(dateSamples) > 0 && d.DecimalComma {
		d.DateFormat = "02/01/2006"
	}
	return d
}

// amountFormatHint votes on one cleaned amount: >0 Brazilian/European,
// <0 US, 0 when the value carries no separator evidence.
func amountFormatHint(cleaned string) int {
	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")

	switch {
	case hasComma && hasDot:
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			return 1
		}
		return -1
	case hasComma:
		if len(cleaned)-strings.LastIndex(cleaned, ",")-1 <= 2 {
			return 1
		}
		return 0
	case hasDot:
		if len(cleaned)-strings.LastIndex(cleaned, ".")-1 <= 2 {
			return -1
		}
		return 0
	default:
		return 0
	}
}
