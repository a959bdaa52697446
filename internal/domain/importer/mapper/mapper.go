// Package mapper resolves arbitrary column headers to the importer's
// canonical field names. Matching is tolerant: known aliases, containment,
// and edit distance all contribute, and every column gets a per-column
// confidence so the caller can surface uncertain mappings for confirmation.
package mapper

import (
	"fmt"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/orcafacil/backend/internal/domain/importer/normalizer"
	"github.com/orcafacil/backend/internal/domain/importer/sniffer"
)

// Canonical field names. Every header variant the mapper understands resolves
// to one of these; downstream code never sees raw header text.
const (
	FieldDeviceType              = "device_type"
	FieldDeviceModel             = "device_model"
	FieldDeviceIssue             = "device_issue"
	FieldTotalPrice              = "total_price"
	FieldCashPrice               = "cash_price"
	FieldInstallmentPrice        = "installment_price"
	FieldInstallments            = "installments"
	FieldPaymentCondition        = "payment_condition"
	FieldWarrantyMonths          = "warranty_months"
	FieldIncludesDelivery        = "includes_delivery"
	FieldIncludesScreenProtector = "includes_screen_protector"
	FieldValidUntil              = "valid_until"
	FieldClientName              = "client_name"
	FieldClientPhone             = "client_phone"
	FieldStatus                  = "status"
	FieldWorkflowStatus          = "workflow_status"
	FieldNotes                   = "notes"

	// FieldUnknown is the sentinel for headers nothing matched.
	FieldUnknown = "unknown"
)

// ColumnMapping binds one source column to a canonical field.
// Confidence is on a 0–100 scale.
type ColumnMapping struct {
	SourceIndex    int
	SourceHeader   string
	CanonicalField string
	Confidence     int
}

// fieldAliases lists the known header variants for one canonical field, in
// token form (see normalizer.CanonicalToken). The first alias is the primary
// name used by the export template; TemplateColumns depends on that.
type fieldAliases struct {
	field   string
	aliases []string
}

// Budget dictionary. Order matters twice over: earlier fields win exact-score
// ties, and containment scores compare against every alias of a field.
var budgetFields = []fieldAliases{
	{FieldDeviceType, []string{"tipo_de_aparelho", "tipo_aparelho", "tipo", "categoria", "device_type"}},
	{FieldDeviceModel, []string{"modelo_do_aparelho", "modelo", "aparelho", "equipamento", "celular", "device_model", "device"}},
	{FieldDeviceIssue, []string{"defeito", "problema", "descricao_do_defeito", "servico", "issue"}},
	{FieldTotalPrice, []string{"preco_total", "valor_total", "preco", "valor", "total", "price", "valor_do_orcamento"}},
	{FieldCashPrice, []string{"preco_a_vista", "valor_a_vista", "a_vista", "avista", "cash_price"}},
	{FieldInstallmentPrice, []string{"preco_parcelado", "valor_parcelado", "installment_price"}},
	{FieldInstallments, []string{"parcelas", "numero_de_parcelas", "qtd_parcelas", "vezes", "installments"}},
	{FieldPaymentCondition, []string{"condicao_de_pagamento", "forma_de_pagamento", "pagamento", "payment"}},
	{FieldWarrantyMonths, []string{"garantia_meses", "garantia", "meses_de_garantia", "warranty"}},
	{FieldIncludesDelivery, []string{"entrega", "inclui_entrega", "delivery"}},
	{FieldIncludesScreenProtector, []string{"pelicula", "inclui_pelicula", "screen_protector"}},
	{FieldValidUntil, []string{"validade", "valido_ate", "data_de_validade", "vencimento"}},
	{FieldClientName, []string{"nome_do_cliente", "cliente", "nome", "client_name"}},
	{FieldClientPhone, []string{"telefone_do_cliente", "telefone", "celular_do_cliente", "fone", "whatsapp", "phone"}},
	{FieldStatus, []string{"status", "situacao"}},
	{FieldWorkflowStatus, []string{"status_do_servico", "andamento", "workflow_status", "etapa"}},
	{FieldNotes, []string{"observacoes", "obs", "notas", "comentarios", "notes"}},
}

var clientFields = []fieldAliases{
	{FieldClientName, []string{"nome_do_cliente", "nome", "cliente", "client_name"}},
	{FieldClientPhone, []string{"telefone_do_cliente", "telefone", "celular", "fone", "whatsapp", "phone"}},
	{FieldNotes, []string{"observacoes", "obs", "notas", "endereco", "email"}},
}

var partFields = []fieldAliases{
	{FieldDeviceModel, []string{"modelo", "aparelho", "compatibilidade"}},
	{FieldNotes, []string{"peca", "descricao", "observacoes"}},
	{FieldTotalPrice, []string{"custo", "preco", "valor"}},
}

// Mapper maps header rows of one record type. Construct explicitly and pass
// it to whatever orchestration needs it; there is no package-level instance.
type Mapper struct {
	fields []fieldAliases
}

// New returns a mapper for the given record type. Unknown and mixed types
// fall back to the budget dictionary, the richest one.
func New(recordType sniffer.RecordType) *Mapper {
	switch recordType {
	case sniffer.RecordTypeClients:
		return &Mapper{fields: clientFields}
	case sniffer.RecordTypeParts:
		return &Mapper{fields: partFields}
	default:
		return &Mapper{fields: budgetFields}
	}
}

// MapHeaders resolves every header to its best canonical field. conflicts
// lists human-readable descriptions of columns that resolved to the same
// field; the later column's value wins during row construction, which is why
// the conflict must be surfaced rather than silently accepted.
func (m *Mapper) MapHeaders(headers []string) (mappings []ColumnMapping, conflicts []string) {
	mappings = make([]ColumnMapping, len(headers))
	firstByField := map[string]int{}

	for i, header := range headers {
		field, score := m.bestField(header)
		mappings[i] = ColumnMapping{
			SourceIndex:    i,
			SourceHeader:   header,
			CanonicalField: field,
			Confidence:     int(score * 100),
		}
		if field == FieldUnknown {
			continue
		}
		if prev, dup := firstByField[field]; dup {
			conflicts = append(conflicts, fmt.Sprintf(
				"columns %q and %q both map to %s; the value from %q will be used",
				headers[prev], header, field, header))
		} else {
			firstByField[field] = i
		}
	}
	return mappings, conflicts
}

// bestField scores the header against every alias of every field and keeps
// the maximum. Ties keep the first field evaluated, so dictionary order is
// part of the mapper's contract.
func (m *Mapper) bestField(header string) (string, float64) {
	token := normalizer.CanonicalToken(header)
	if token == "" {
		return FieldUnknown, 0
	}

	bestField := FieldUnknown
	bestScore := 0.0
	for _, fa := range m.fields {
		for _, alias := range fa.aliases {
			if s := aliasScore(token, alias); s > bestScore {
				bestScore = s
				bestField = fa.field
			}
		}
	}
	if bestScore < 0.5 {
		return FieldUnknown, 0
	}
	return bestField, bestScore
}

// aliasScore compares a canonical header token against one alias:
// 1.0 exact, 0.9 containment either way, otherwise a Levenshtein ratio with
// a fuzzy subsequence match as a lower bound.
func aliasScore(token, alias string) float64 {
	if token == alias {
		return 1.0
	}
	if containsToken(token, alias) || containsToken(alias, token) {
		return 0.9
	}

	maxLen := len(token)
	if len(alias) > maxLen {
		maxLen = len(alias)
	}
	if maxLen == 0 {
		return 0
	}
	score := 1 - float64(fuzzy.LevenshteinDistance(token, alias))/float64(maxLen)

	// Subsequence matches ("tel_cliente" against "telefone_do_cliente")
	// deserve more credit than raw edit distance gives them.
	if fuzzy.MatchNormalizedFold(token, alias) && score < 0.6 {
		score = 0.6
	}
	if score < 0 {
		return 0
	}
	return score
}

// containsToken reports whether needle appears in haystack on token
// boundaries ("preco" in "preco_total", but not "obs" in "observacoes"
// by substring accident — underscore boundaries count as word edges).
func containsToken(haystack, needle string) bool {
	if len(needle) < 3 {
		return false
	}
	idx := 0
	for {
		j := indexFrom(haystack, needle, idx)
		if j < 0 {
			return false
		}
		leftOK := j == 0 || haystack[j-1] == '_'
		right := j + len(needle)
		rightOK := right == len(haystack) || haystack[right] == '_'
		if leftOK && rightOK {
			return true
		}
		idx = j + 1
	}
}

func indexFrom(s, sub string, from int) int {
	if from >= len(s) {
		return -1
	}
	for i := from; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
