// Package validator checks and repairs mapped budget rows. Each row passes
// through four ordered stages: value cleanup, auto-fill of absent optional
// fields, the required-field gate, and business-rule checks. Only the gate
// and impossible values block a row; everything else degrades to warnings.
package validator

import (
	"fmt"
	"strconv"
	"time"

	"github.com/orcafacil/backend/internal/domain/importer/mapper"
	"github.com/orcafacil/backend/internal/domain/importer/normalizer"
)

// FieldKind selects the coercer applied during cleanup.
type FieldKind int

const (
	KindText FieldKind = iota
	KindCurrency
	KindBool
	KindInt
	KindPhone
	KindDate
)

// FieldRule describes how one canonical field is cleaned, defaulted and
// checked. WarnMin/WarnMax bound the advisory band: values outside it warn
// but do not block (cents for currency kinds, plain units otherwise).
type FieldRule struct {
	Field    string
	Kind     FieldKind
	Required bool
	Default  string
	// Infer derives a default from the other cleaned fields when Default
	// alone is not enough (device type from the model string, cash price
	// from the total). Consulted only when the field is empty.
	Infer            func(data map[string]string) string
	WarnMin, WarnMax int64
}

// FieldError is a blocking problem with a single field of a single row.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidatedRow is the outcome of validating one mapped row. Data holds the
// cleaned canonical values: currency as integer cents, booleans as
// "true"/"false", dates as ISO-8601. A row with warnings still counts as
// valid; only Errors exclude it from output.
type ValidatedRow struct {
	RowIndex  int
	Data      map[string]string
	Errors    []FieldError
	Warnings  []string
	AutoFixes []string
	IsValid   bool
}

// Options configures a Validator. The zero value is usable: cents
// correction off, flexible date parsing in local time.
type Options struct {
	CentsMode  normalizer.CentsMode
	DateFormat string
	Location   *time.Location
}

// Validator applies a rule set to mapped rows. Construct one per import and
// pass it where needed; there is no shared instance.
type Validator struct {
	rules []FieldRule
	opts  Options
}

func New(rules []FieldRule, opts Options) *Validator {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Validator{rules: rules, opts: opts}
}

// DefaultBudgetRules is the rule set for the budget record shape. Only the
// device model and total price are required; every other field either
// defaults or stays empty, so messy real-world exports are accepted rather
// than rejected wholesale.
func DefaultBudgetRules() []FieldRule {
	return []FieldRule{
		{Field: mapper.FieldDeviceType, Kind: KindText, Infer: inferDeviceType},
		{Field: mapper.FieldDeviceModel, Kind: KindText, Required: true},
		{Field: mapper.FieldDeviceIssue, Kind: KindText},
		{Field: mapper.FieldTotalPrice, Kind: KindCurrency, Required: true, WarnMin: 500, WarnMax: 2_000_000},
		{Field: mapper.FieldCashPrice, Kind: KindCurrency, WarnMin: 500, WarnMax: 2_000_000,
			Infer: inferCashPrice},
		{Field: mapper.FieldInstallmentPrice, Kind: KindCurrency, WarnMin: 500, WarnMax: 2_000_000},
		{Field: mapper.FieldInstallments, Kind: KindInt, Default: "1", WarnMin: 1, WarnMax: 24},
		{Field: mapper.FieldPaymentCondition, Kind: KindText},
		{Field: mapper.FieldWarrantyMonths, Kind: KindInt, Default: "3", WarnMin: 0, WarnMax: 60},
		{Field: mapper.FieldIncludesDelivery, Kind: KindBool},
		{Field: mapper.FieldIncludesScreenProtector, Kind: KindBool},
		{Field: mapper.FieldValidUntil, Kind: KindDate},
		{Field: mapper.FieldClientName, Kind: KindText},
		{Field: mapper.FieldClientPhone, Kind: KindPhone},
		{Field: mapper.FieldStatus, Kind: KindText, Default: "pending"},
		{Field: mapper.FieldWorkflowStatus, Kind: KindText, Default: "pending"},
		{Field: mapper.FieldNotes, Kind: KindText},
	}
}

// inferCashPrice mirrors the total into the cash price, but only when the
// total is a sane positive amount. A broken total must surface one error on
// the field the user actually supplied, not a second one on the copy.
func inferCashPrice(data map[string]string) string {
	cents, err := strconv.ParseInt(data[mapper.FieldTotalPrice], 10, 64)
	if err != nil || cents <= 0 {
		return ""
	}
	return data[mapper.FieldTotalPrice]
}

// ValidateRow runs the four-stage pipeline over one row's canonical-field
// values. The input map is not mutated.
func (v *Validator) ValidateRow(rowIndex int, raw map[string]string) ValidatedRow {
	row := ValidatedRow{
		RowIndex: rowIndex,
		Data:     make(map[string]string, len(v.rules)),
	}

	// Stage 1: cleanup through the field's coercer.
	for _, rule := range v.rules {
		value := normalizer.CleanText(raw[rule.Field])
		if value == "" {
			continue
		}
		v.cleanField(rule, value, &row)
	}

	// Stage 2: auto-fill absent optional fields.
	for _, rule := range v.rules {
		if rule.Required || row.Data[rule.Field] != "" {
			continue
		}
		filled := rule.Default
		if rule.Infer != nil {
			if inferred := rule.Infer(row.Data); inferred != "" {
				filled = inferred
			}
		}
		if filled == "" {
			continue
		}
		row.Data[rule.Field] = filled
		row.AutoFixes = append(row.AutoFixes,
			fmt.Sprintf("%s: filled with %q", rule.Field, filled))
	}

	// Stage 3: required-field gate.
	for _, rule := range v.rules {
		if rule.Required && row.Data[rule.Field] == "" {
			row.Errors = append(row.Errors, FieldError{
				Field:   rule.Field,
				Message: "required field is empty",
			})
		}
	}

	// Stage 4: business rules.
	for _, rule := range v.rules {
		v.checkField(rule, &row)
	}

	row.IsValid = len(row.Errors) == 0
	return row
}

func (v *Validator) cleanField(rule FieldRule, value string, row *ValidatedRow) {
	switch rule.Kind {
	case KindCurrency:
		cents, corrected, ok := normalizer.ParseCurrency(value, v.opts.CentsMode)
		if !ok {
			row.Errors = append(row.Errors, FieldError{
				Field:   rule.Field,
				Message: fmt.Sprintf("%q is not a valid price", value),
			})
			return
		}
		cleaned := strconv.FormatInt(cents, 10)
		row.Data[rule.Field] = cleaned
		if corrected {
			row.Warnings = append(row.Warnings, fmt.Sprintf(
				"%s: %q looks like integer cents, corrected to %s",
				rule.Field, value, normalizer.FormatCents(cents)))
		} else if cleaned != value {
			row.AutoFixes = append(row.AutoFixes,
				fmt.Sprintf("%s: cleaned %q to %s cents", rule.Field, value, cleaned))
		}
	case KindBool:
		cleaned := strconv.FormatBool(normalizer.ParseBool(value))
		row.Data[rule.Field] = cleaned
		if cleaned != value {
			row.AutoFixes = append(row.AutoFixes,
				fmt.Sprintf("%s: interpreted %q as %s", rule.Field, value, cleaned))
		}
	case KindInt:
		cleaned := strconv.Itoa(normalizer.ParseInt(value))
		row.Data[rule.Field] = cleaned
		if cleaned != value {
			row.AutoFixes = append(row.AutoFixes,
				fmt.Sprintf("%s: cleaned %q to %s", rule.Field, value, cleaned))
		}
	case KindPhone:
		cleaned := normalizer.ParsePhone(value)
		row.Data[rule.Field] = cleaned
		if cleaned != value {
			row.AutoFixes = append(row.AutoFixes,
				fmt.Sprintf("%s: formatted %q as %q", rule.Field, value, cleaned))
		}
	case KindDate:
		parsed, err := normalizer.ParseDate(value, v.opts.DateFormat, v.opts.Location)
		if err != nil {
			row.Errors = append(row.Errors, FieldError{
				Field:   rule.Field,
				Message: fmt.Sprintf("%q is not a valid date", value),
			})
			return
		}
		cleaned := parsed.Format("2006-01-02")
		row.Data[rule.Field] = cleaned
		if cleaned != value {
			row.AutoFixes = append(row.AutoFixes,
				fmt.Sprintf("%s: normalized %q to %s", rule.Field, value, cleaned))
		}
	default:
		row.Data[rule.Field] = value
	}
}

func (v *Validator) checkField(rule FieldRule, row *ValidatedRow) {
	value := row.Data[rule.Field]
	if value == "" {
		return
	}

	switch rule.Kind {
	case KindCurrency:
		cents, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return
		}
		switch {
		case cents < 0:
			row.Errors = append(row.Errors, FieldError{
				Field:   rule.Field,
				Message: "price cannot be negative",
			})
		case cents == 0 && rule.Required:
			row.Errors = append(row.Errors, FieldError{
				Field:   rule.Field,
				Message: "price must be greater than zero",
			})
		case cents < rule.WarnMin || cents > rule.WarnMax:
			row.Warnings = append(row.Warnings, fmt.Sprintf(
				"%s: %s is outside the usual range for repair quotes",
				rule.Field, normalizer.FormatCents(cents)))
		}
	case KindInt:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return
		}
		if n < rule.WarnMin || n > rule.WarnMax {
			row.Warnings = append(row.Warnings, fmt.Sprintf(
				"%s: %d is outside the expected range [%d, %d]",
				rule.Field, n, rule.WarnMin, rule.WarnMax))
		}
	case KindPhone:
		digits := normalizer.PhoneDigits(value)
		if n := len(digits); n != 0 && n != 10 && n != 11 {
			row.Warnings = append(row.Warnings, fmt.Sprintf(
				"%s: %d digits is not a plausible Brazilian phone number",
				rule.Field, n))
		}
	}
}
