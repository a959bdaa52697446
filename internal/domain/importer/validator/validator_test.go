package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orcafacil/backend/internal/domain/importer/mapper"
	"github.com/orcafacil/backend/internal/domain/importer/normalizer"
)

func newBudgetValidator() *Validator {
	return New(DefaultBudgetRules(), Options{})
}

func TestValidateRow_MinimalValidRow(t *testing.T) {
	v := newBudgetValidator()

	row := v.ValidateRow(1, map[string]string{
		mapper.FieldDeviceModel: "iPhone 12",
		mapper.FieldTotalPrice:  "350,00",
	})

	assert.True(t, row.IsValid)
	assert.Empty(t, row.Errors)

	assert.Equal(t, "35000", row.Data[mapper.FieldTotalPrice])
	assert.Equal(t, "35000", row.Data[mapper.FieldCashPrice])
	assert.Equal(t, "Smartphone", row.Data[mapper.FieldDeviceType])
	assert.Equal(t, "3", row.Data[mapper.FieldWarrantyMonths])
	assert.Equal(t, "1", row.Data[mapper.FieldInstallments])
	assert.Equal(t, "pending", row.Data[mapper.FieldStatus])
	assert.Equal(t, "pending", row.Data[mapper.FieldWorkflowStatus])

	// Every defaulted field leaves a trace.
	for _, field := range []string{
		mapper.FieldDeviceType, mapper.FieldCashPrice,
		mapper.FieldWarrantyMonths, mapper.FieldInstallments,
		mapper.FieldStatus, mapper.FieldWorkflowStatus,
	} {
		found := false
		for _, fix := range row.AutoFixes {
			if strings.HasPrefix(fix, field+":") {
				found = true
				break
			}
		}
		assert.Truef(t, found, "no autofix note for %s", field)
	}
}

func TestValidateRow_MissingRequiredField(t *testing.T) {
	v := newBudgetValidator()

	row := v.ValidateRow(2, map[string]string{
		mapper.FieldDeviceModel: "",
		mapper.FieldTotalPrice:  "100",
	})

	assert.False(t, row.IsValid)
	require.NotEmpty(t, row.Errors)
	assert.Equal(t, mapper.FieldDeviceModel, row.Errors[0].Field)
	assert.Contains(t, row.Errors[0].Message, "required")
}

func TestValidateRow_NegativePriceBlocks(t *testing.T) {
	v := newBudgetValidator()

	row := v.ValidateRow(3, map[string]string{
		mapper.FieldDeviceModel: "Galaxy S21",
		mapper.FieldTotalPrice:  "-50,00",
	})

	assert.False(t, row.IsValid)
	require.Len(t, row.Errors, 1)
	assert.Equal(t, mapper.FieldTotalPrice, row.Errors[0].Field)
	assert.Contains(t, row.Errors[0].Message, "negative")

	// The broken total must not cascade into the cash price.
	assert.Empty(t, row.Data[mapper.FieldCashPrice])
}

func TestValidateRow_BusinessRuleWarnings(t *testing.T) {
	v := newBudgetValidator()

	t.Run("warranty out of band", func(t *testing.T) {
		row := v.ValidateRow(1, map[string]string{
			mapper.FieldDeviceModel:    "Moto G",
			mapper.FieldTotalPrice:     "200,00",
			mapper.FieldWarrantyMonths: "99",
		})
		assert.True(t, row.IsValid)
		require.NotEmpty(t, row.Warnings)
		assert.Contains(t, row.Warnings[0], mapper.FieldWarrantyMonths)
	})

	t.Run("implausible phone digit count", func(t *testing.T) {
		row := v.ValidateRow(1, map[string]string{
			mapper.FieldDeviceModel: "Moto G",
			mapper.FieldTotalPrice:  "200,00",
			mapper.FieldClientPhone: "12345",
		})
		assert.True(t, row.IsValid)
		found := false
		for _, w := range row.Warnings {
			if strings.Contains(w, "phone") {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("price outside usual band warns but passes", func(t *testing.T) {
		row := v.ValidateRow(1, map[string]string{
			mapper.FieldDeviceModel: "MacBook Pro",
			mapper.FieldTotalPrice:  "25.000,00",
		})
		assert.True(t, row.IsValid)
		require.NotEmpty(t, row.Warnings)
		assert.Contains(t, row.Warnings[0], mapper.FieldTotalPrice)
	})
}

func TestValidateRow_CentsCorrectionWarns(t *testing.T) {
	v := New(DefaultBudgetRules(), Options{CentsMode: normalizer.CentsModeWarn})

	row := v.ValidateRow(1, map[string]string{
		mapper.FieldDeviceModel: "iPhone 12",
		mapper.FieldTotalPrice:  "350000",
	})

	assert.True(t, row.IsValid)
	assert.Equal(t, "350000", row.Data[mapper.FieldTotalPrice])
	require.NotEmpty(t, row.Warnings)
	assert.Contains(t, row.Warnings[0], "integer cents")
}

func TestValidateRow_InvalidDate(t *testing.T) {
	v := newBudgetValidator()

	row := v.ValidateRow(1, map[string]string{
		mapper.FieldDeviceModel: "iPhone 12",
		mapper.FieldTotalPrice:  "350,00",
		mapper.FieldValidUntil:  "amanhã",
	})

	assert.False(t, row.IsValid)
	require.Len(t, row.Errors, 1)
	assert.Equal(t, mapper.FieldValidUntil, row.Errors[0].Field)
}

func TestValidateRow_DateNormalized(t *testing.T) {
	v := newBudgetValidator()

	row := v.ValidateRow(1, map[string]string{
		mapper.FieldDeviceModel: "iPhone 12",
		mapper.FieldTotalPrice:  "350,00",
		mapper.FieldValidUntil:  "15/09/2026",
	})

	assert.True(t, row.IsValid)
	assert.Equal(t, "2026-09-15", row.Data[mapper.FieldValidUntil])
}

func TestInferDeviceType(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"iPhone 12", DeviceSmartphone},
		{"Galaxy Tab A8", DeviceTablet},
		{"MacBook Air M1", DeviceNotebook},
		{"Apple Watch SE", DeviceSmartwatch},
		{"PlayStation 5", DeviceConsole},
		{"aparelho desconhecido", DeviceSmartphone},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			got := inferDeviceType(map[string]string{mapper.FieldDeviceModel: tt.model})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSuggestFixes_NegativePriceRecovers(t *testing.T) {
	v := newBudgetValidator()
	raw := map[string]string{
		mapper.FieldDeviceModel: "Galaxy S21",
		mapper.FieldTotalPrice:  "-50,00",
	}

	row := v.ValidateRow(1, raw)
	require.False(t, row.IsValid)

	suggestions := SuggestFixes(row, raw)
	require.Len(t, suggestions, 1)
	assert.Equal(t, ConfidenceHigh, suggestions[0].Confidence)
	assert.Equal(t, "5000", suggestions[0].SuggestedValue)

	recovered := ApplySuggestions(&row, suggestions)
	assert.True(t, recovered)
	assert.True(t, row.IsValid)
	assert.Equal(t, "5000", row.Data[mapper.FieldTotalPrice])
}

func TestSuggestFixes_EmptyRequiredFieldIsNotRecoverable(t *testing.T) {
	v := newBudgetValidator()
	raw := map[string]string{
		mapper.FieldDeviceModel: "",
		mapper.FieldTotalPrice:  "100,00",
	}

	row := v.ValidateRow(1, raw)
	require.False(t, row.IsValid)

	suggestions := SuggestFixes(row, raw)
	recovered := ApplySuggestions(&row, suggestions)
	assert.False(t, recovered)
	assert.False(t, row.IsValid)
}

func TestSuggestFixes_ModelFromNotes(t *testing.T) {
	v := newBudgetValidator()
	raw := map[string]string{
		mapper.FieldDeviceModel: "",
		mapper.FieldTotalPrice:  "100,00",
		mapper.FieldNotes:       "troca de tela iphone 11",
	}

	row := v.ValidateRow(1, raw)
	suggestions := SuggestFixes(row, raw)

	require.Len(t, suggestions, 1)
	assert.Equal(t, mapper.FieldDeviceModel, suggestions[0].Field)
	assert.Equal(t, ConfidenceLow, suggestions[0].Confidence)

	// Low confidence is never auto-applied.
	recovered := ApplySuggestions(&row, suggestions)
	assert.False(t, recovered)
}
