package validator

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/orcafacil/backend/internal/domain/importer/mapper"
	"github.com/orcafacil/backend/internal/domain/importer/normalizer"
)

// Confidence grades a DataSuggestion. High suggestions are safe to apply
// without asking; medium and low ones need a human decision.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// DataSuggestion proposes a replacement value for a field that failed
// validation.
type DataSuggestion struct {
	Field          string
	CurrentValue   string
	SuggestedValue string
	Reason         string
	Confidence     Confidence
}

// SuggestFixes pattern-matches a row's blocking errors against known repair
// strategies. raw carries the original pre-cleanup values so suggestions can
// look at what the user actually typed.
func SuggestFixes(row ValidatedRow, raw map[string]string) []DataSuggestion {
	var out []DataSuggestion
	for _, fieldErr := range row.Errors {
		if s, ok := suggestFor(fieldErr, row, raw); ok {
			out = append(out, s)
		}
	}
	return out
}

func suggestFor(fieldErr FieldError, row ValidatedRow, raw map[string]string) (DataSuggestion, bool) {
	current := raw[fieldErr.Field]

	switch {
	case strings.Contains(fieldErr.Message, "negative"):
		cents, _ := strconv.ParseInt(row.Data[fieldErr.Field], 10, 64)
		return DataSuggestion{
			Field:          fieldErr.Field,
			CurrentValue:   current,
			SuggestedValue: strconv.FormatInt(-cents, 10),
			Reason:         "negative prices are recorded as their absolute value",
			Confidence:     ConfidenceHigh,
		}, true

	case strings.Contains(fieldErr.Message, "not a valid price"):
		// Retry on the bare digits: "R$ abc 150" style noise.
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' || r == ',' || r == '.' {
				return r
			}
			return -1
		}, current)
		if cents, _, ok := normalizer.ParseCurrency(digits, normalizer.CentsModeOff); ok {
			return DataSuggestion{
				Field:          fieldErr.Field,
				CurrentValue:   current,
				SuggestedValue: strconv.FormatInt(cents, 10),
				Reason:         fmt.Sprintf("extracted %s from the noisy value", normalizer.FormatCents(cents)),
				Confidence:     ConfidenceMedium,
			}, true
		}
		return DataSuggestion{}, false

	case strings.Contains(fieldErr.Message, "not a valid date"):
		return DataSuggestion{
			Field:          fieldErr.Field,
			CurrentValue:   current,
			SuggestedValue: time.Now().AddDate(0, 0, 15).Format("2006-01-02"),
			Reason:         "unreadable validity date, replace with the default 15-day window",
			Confidence:     ConfidenceMedium,
		}, true

	case strings.Contains(fieldErr.Message, "required field is empty"):
		if fieldErr.Field == mapper.FieldDeviceModel {
			if model := modelFromNotes(raw); model != "" {
				return DataSuggestion{
					Field:          fieldErr.Field,
					CurrentValue:   current,
					SuggestedValue: model,
					Reason:         "device model found in the notes column",
					Confidence:     ConfidenceLow,
				}, true
			}
		}
		return DataSuggestion{}, false

	case strings.Contains(fieldErr.Message, "greater than zero"):
		return DataSuggestion{}, false
	}
	return DataSuggestion{}, false
}

// modelFromNotes scans the free-text fields for something that looks like a
// device mention.
func modelFromNotes(raw map[string]string) string {
	for _, field := range []string{mapper.FieldNotes, mapper.FieldDeviceIssue} {
		text := normalizer.CleanText(raw[field])
		if text == "" {
			continue
		}
		if inferDeviceType(map[string]string{mapper.FieldDeviceModel: text}) != "" &&
			hasDeviceKeyword(text) {
			return text
		}
	}
	return ""
}

func hasDeviceKeyword(text string) bool {
	normalized := []byte(normalizer.NormalizeText(text))
	for _, dm := range deviceMatchers {
		if len(dm.matcher.Match(normalized)) > 0 {
			return true
		}
	}
	return false
}

// ApplySuggestions applies every high-confidence suggestion to the row,
// clears the errors they addressed, and reports whether the row was fully
// recovered. A row is recoverable only when every blocking error received a
// high-confidence fix.
func ApplySuggestions(row *ValidatedRow, suggestions []DataSuggestion) bool {
	fixed := map[string]bool{}
	for _, s := range suggestions {
		if s.Confidence != ConfidenceHigh {
			continue
		}
		row.Data[s.Field] = s.SuggestedValue
		row.AutoFixes = append(row.AutoFixes,
			fmt.Sprintf("%s: %s", s.Field, s.Reason))
		fixed[s.Field] = true
	}

	remaining := row.Errors[:0]
	for _, fieldErr := range row.Errors {
		if !fixed[fieldErr.Field] {
			remaining = append(remaining, fieldErr)
		}
	}
	row.Errors = remaining
	row.IsValid = len(row.Errors) == 0
	return row.IsValid
}
