package mapper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orcafacil/backend/internal/domain/importer/normalizer"
	"github.com/orcafacil/backend/internal/domain/importer/sniffer"
)

func TestMapHeaders_BudgetAliases(t *testing.T) {
	m := New(sniffer.RecordTypeBudgets)

	tests := []struct {
		header  string
		field   string
		minConf int
	}{
		{"Preço Total", FieldTotalPrice, 80},
		{"preco_total", FieldTotalPrice, 80},
		{"Modelo do Aparelho", FieldDeviceModel, 80},
		{"Modelo", FieldDeviceModel, 80},
		{"Defeito", FieldDeviceIssue, 80},
		{"Garantia (meses)", FieldWarrantyMonths, 80},
		{"Garantia", FieldWarrantyMonths, 80},
		{"Fone", FieldClientPhone, 80},
		{"WhatsApp", FieldClientPhone, 80},
		{"Validade", FieldValidUntil, 80},
		{"Obs", FieldNotes, 80},
		{"Condição de Pagamento", FieldPaymentCondition, 80},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			mappings, _ := m.MapHeaders([]string{tt.header})
			require.Len(t, mappings, 1)
			assert.Equal(t, tt.field, mappings[0].CanonicalField)
			assert.GreaterOrEqual(t, mappings[0].Confidence, tt.minConf)
		})
	}
}

func TestMapHeaders_AccentVariantsScoreEqually(t *testing.T) {
	m := New(sniffer.RecordTypeBudgets)

	pretty, _ := m.MapHeaders([]string{"Preço Total"})
	ascii, _ := m.MapHeaders([]string{"preco_total"})

	assert.Equal(t, pretty[0].CanonicalField, ascii[0].CanonicalField)
	assert.Equal(t, pretty[0].Confidence, ascii[0].Confidence)
}

func TestMapHeaders_Typo(t *testing.T) {
	m := New(sniffer.RecordTypeBudgets)

	mappings, _ := m.MapHeaders([]string{"Parcela"})
	assert.Equal(t, FieldInstallments, mappings[0].CanonicalField)
	assert.GreaterOrEqual(t, mappings[0].Confidence, 80)
}

func TestMapHeaders_Unknown(t *testing.T) {
	m := New(sniffer.RecordTypeBudgets)

	mappings, conflicts := m.MapHeaders([]string{"zzz", ""})
	assert.Empty(t, conflicts)
	for _, mp := range mappings {
		assert.Equal(t, FieldUnknown, mp.CanonicalField)
		assert.Zero(t, mp.Confidence)
	}
}

func TestMapHeaders_DuplicateFieldConflict(t *testing.T) {
	m := New(sniffer.RecordTypeBudgets)

	mappings, conflicts := m.MapHeaders([]string{"Preço", "Valor Total"})
	assert.Equal(t, FieldTotalPrice, mappings[0].CanonicalField)
	assert.Equal(t, FieldTotalPrice, mappings[1].CanonicalField)

	require.Len(t, conflicts, 1)
	assert.Contains(t, conflicts[0], FieldTotalPrice)
	assert.Contains(t, conflicts[0], "Valor Total")
}

func TestMapHeaders_ClientAndPartDictionaries(t *testing.T) {
	clients := New(sniffer.RecordTypeClients)
	mappings, _ := clients.MapHeaders([]string{"Nome", "Telefone", "Email"})
	assert.Equal(t, FieldClientName, mappings[0].CanonicalField)
	assert.Equal(t, FieldClientPhone, mappings[1].CanonicalField)
	assert.Equal(t, FieldNotes, mappings[2].CanonicalField)

	parts := New(sniffer.RecordTypeParts)
	mappings, _ = parts.MapHeaders([]string{"Peça", "Custo"})
	assert.Equal(t, FieldNotes, mappings[0].CanonicalField)
	assert.Equal(t, FieldTotalPrice, mappings[1].CanonicalField)
}

// Every template header must resolve to its field with full confidence,
// otherwise a file exported from our own template would import degraded.
func TestTemplateColumns_RoundTrip(t *testing.T) {
	m := New(sniffer.RecordTypeBudgets)

	wantFields := []string{
		FieldDeviceType, FieldDeviceModel, FieldDeviceIssue,
		FieldTotalPrice, FieldCashPrice, FieldInstallmentPrice, FieldInstallments,
		FieldPaymentCondition, FieldWarrantyMonths, FieldIncludesDelivery,
		FieldIncludesScreenProtector, FieldValidUntil, FieldClientName,
		FieldClientPhone, FieldStatus, FieldNotes,
	}

	cols := TemplateColumns()
	require.Len(t, cols, len(wantFields))

	mappings, conflicts := m.MapHeaders(cols)
	assert.Empty(t, conflicts)
	for i, mp := range mappings {
		assert.Equalf(t, wantFields[i], mp.CanonicalField, "column %q", cols[i])
		assert.Equalf(t, 100, mp.Confidence, "column %q", cols[i])
	}
}

// Each template header tokenizes to the primary alias of its field, which is
// what guarantees the exact-match score above.
func TestTemplateColumns_PrimaryAliases(t *testing.T) {
	primary := map[string]string{}
	for _, fa := range budgetFields {
		primary[fa.aliases[0]] = fa.field
	}

	for _, col := range TemplateColumns() {
		token := normalizer.CanonicalToken(col)
		_, ok := primary[token]
		assert.Truef(t, ok, "header %q (token %q) is not a primary alias", col, token)
	}
}

func TestExportTemplate(t *testing.T) {
	data, err := ExportTemplate()
	require.NoError(t, err)

	require.True(t, len(data) > 3)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, data[:3])

	lines := strings.Split(strings.TrimSpace(string(data[3:])), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(TemplateColumns(), ","), strings.TrimSpace(lines[0]))
	assert.Contains(t, lines[1], "iPhone 12")
}

func TestExportRows(t *testing.T) {
	data, err := ExportRows([]map[string]string{
		{FieldDeviceModel: "Galaxy S21", FieldTotalPrice: "250,00"},
	})
	require.NoError(t, err)

	body := string(data[3:])
	assert.Contains(t, body, "Galaxy S21")
	assert.Contains(t, body, "250,00")
}
