package sniffer

import (
	"errors"
	"strings"

	"github.com/cloudflare/ahocorasick"

	"github.com/orcafacil/backend/internal/domain/importer/normalizer"
)

// RecordType is the coarse classification of what a tabular file contains.
type RecordType string

const (
	RecordTypeBudgets RecordType = "budgets"
	RecordTypeClients RecordType = "clients"
	RecordTypeParts   RecordType = "parts"
	RecordTypeMixed   RecordType = "mixed"
	RecordTypeUnknown RecordType = "unknown"
)

// Structure describes the detected layout of a CSV/TSV payload.
// Confidence is on a 0–100 scale.
type Structure struct {
	Separator   rune
	HasHeaders  bool
	HeaderRow   int
	Headers     []string
	SampleRows  [][]string
	FileType    RecordType
	Confidence  int
	Suggestions []string
}

var (
	ErrEmptyFile      = errors.New("file is empty")
	ErrNoHeadersFound = errors.New("could not find data headers")
	ErrNoDataRows     = errors.New("file has no data rows")
)

// Keywords that identify a header line. Weighted +3 per hit when scoring
// candidate header rows.
var headerKeywords = []string{
	"nome", "preco", "telefone", "modelo", "cliente",
	"aparelho", "valor", "garantia", "defeito", "pagamento",
}

// Keyword dictionaries for record-type classification, matched with
// Aho-Corasick over normalized sample text.
var (
	budgetMatcher = ahocorasick.NewStringMatcher([]string{
		"orcamento", "aparelho", "modelo", "defeito", "garantia",
		"parcela", "pagamento", "validade", "preco total", "valor total",
	})
	clientMatcher = ahocorasick.NewStringMatcher([]string{
		"cliente", "telefone", "celular", "email", "endereco",
		"cpf", "cidade", "bairro", "contato",
	})
	partMatcher = ahocorasick.NewStringMatcher([]string{
		"peca", "estoque", "quantidade", "fornecedor", "custo",
		"sku", "codigo", "compatibilidade",
	})
)

const (
	headerScanLines   = 5
	classifyLines     = 10
	headerScoreCutoff = 5
)

// StructureDetector determines delimiter, header row, and record type of
// CSV/TSV text. Construct one per import; it carries no mutable state beyond
// its sampling caps, which tests override.
type StructureDetector struct {
	// SampleLines caps how many lines delimiter scoring examines.
	SampleLines int
}

// NewStructureDetector returns a detector with the default sampling cap.
func NewStructureDetector() *StructureDetector {
	return &StructureDetector{SampleLines: 50}
}

// Detect analyzes CSV/TSV text. It returns an error only for file-level
// failures (empty input, no header row); classification ambiguity is
// reported through FileType and Suggestions instead.
func (d *StructureDetector) Detect(text string) (*Structure, error) {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil, ErrEmptyFile
	}

	sep, lowVariance := d.chooseDelimiter(lines)
	if sep == 0 {
		sep = ','
		lowVariance = false
	}

	st := &Structure{
		Separator: sep,
		FileType:  RecordTypeUnknown,
	}

	headerRow, found := findHeaderRow(lines, sep)
	st.HasHeaders = found
	st.HeaderRow = headerRow
	if found {
		st.Headers = splitFields(lines[headerRow], sep)
	} else {
		st.Suggestions = append(st.Suggestions,
			"no header row recognized in the first lines; map columns manually or add a header row")
	}

	dataStart := headerRow
	if found {
		dataStart = headerRow + 1
	}
	for i := dataStart; i < len(lines) && len(st.SampleRows) < classifyLines; i++ {
		st.SampleRows = append(st.SampleRows, splitFields(lines[i], sep))
	}

	st.FileType = classifyRecordType(lines, st.SampleRows)
	if st.FileType == RecordTypeUnknown {
		st.Suggestions = append(st.Suggestions,
			"could not tell whether this file contains budgets, clients or parts; pick the record type manually")
	}
	if st.FileType == RecordTypeMixed {
		st.Suggestions = append(st.Suggestions,
			"file matches more than one record type; consider splitting it into separate files")
	}

	st.Confidence = 50
	if st.HasHeaders {
		st.Confidence += 20
	}
	if st.FileType != RecordTypeUnknown && st.FileType != RecordTypeMixed {
		st.Confidence += 20
	}
	if lowVariance {
		st.Confidence += 10
	}
	return st, nil
}

// DetectRows analyzes an already-tokenized table (Excel sheets, JSON or XML
// records) where the delimiter question does not apply. Header and record
// type detection work the same way as for delimited text.
func (d *StructureDetector) DetectRows(rows [][]string) (*Structure, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	// Rows arrive already split, so there is no separator to report;
	// Separator stays zero on this path.
	st := &Structure{
		FileType: RecordTypeUnknown,
	}

	headerRow, found := -1, false
	limit := headerScanLines
	if limit > len(rows) {
		limit = len(rows)
	}
	for i := 0; i < limit; i++ {
		if scoreHeaderCells(rows[i]) >= headerScoreCutoff {
			headerRow, found = i, true
			break
		}
	}
	st.HasHeaders = found
	if found {
		st.HeaderRow = headerRow
		st.Headers = rows[headerRow]
	} else {
		st.Suggestions = append(st.Suggestions,
			"no header row recognized in the first lines; map columns manually or add a header row")
	}

	dataStart := 0
	if found {
		dataStart = headerRow + 1
	}
	lines := make([]string, 0, classifyLines)
	for i := dataStart; i < len(rows) && len(st.SampleRows) < classifyLines; i++ {
		st.SampleRows = append(st.SampleRows, rows[i])
		lines = append(lines, strings.Join(rows[i], " "))
	}
	if found {
		lines = append([]string{strings.Join(rows[headerRow], " ")}, lines...)
	}

	st.FileType = classifyRecordType(lines, st.SampleRows)
	if st.FileType == RecordTypeUnknown {
		st.Suggestions = append(st.Suggestions,
			"could not tell whether this file contains budgets, clients or parts; pick the record type manually")
	}
	if st.FileType == RecordTypeMixed {
		st.Suggestions = append(st.Suggestions,
			"file matches more than one record type; consider splitting it into separate files")
	}

	st.Confidence = 60
	if st.HasHeaders {
		st.Confidence += 20
	}
	if st.FileType != RecordTypeUnknown && st.FileType != RecordTypeMixed {
		st.Confidence += 20
	}
	return st, nil
}

// chooseDelimiter scores each candidate by modal column count minus a
// variance penalty (inconsistent lines scaled by 10), over the sampling cap.
func (d *StructureDetector) chooseDelimiter(lines []string) (rune, bool) {
	limit := d.SampleLines
	if limit <= 0 {
		limit = 50
	}
	if limit > len(lines) {
		limit = len(lines)
	}
	sample := lines[:limit]

	var best rune
	bestScore := 0.0
	bestVariance := 0.0
	for _, cand := range candidateDelimiters {
		mean, variance := columnVariance(sample, cand)
		if mean < 2 {
			continue
		}
		score := mean - variance*10
		if score > bestScore {
			best = cand
			bestScore = score
			bestVariance = variance
		}
	}
	return best, best != 0 && bestVariance < 0.5
}

func columnVariance(lines []string, d rune) (mean, variance float64) {
	if len(lines) == 0 {
		return 0, 0
	}
	counts := make([]float64, len(lines))
	for i, line := range lines {
		counts[i] = float64(strings.Count(line, string(d)) + 1)
		mean += counts[i]
	}
	mean /= float64(len(counts))
	for _, c := range counts {
		variance += (c - mean) * (c - mean)
	}
	variance /= float64(len(counts))
	return mean, variance
}

// findHeaderRow scans the first few lines, scoring keyword hits (+3 each)
// against penalties for cells that look numeric or currency-like. The first
// line at or above the cutoff wins.
func findHeaderRow(lines []string, sep rune) (int, bool) {
	limit := headerScanLines
	if limit > len(lines) {
		limit = len(lines)
	}
	for i := 0; i < limit; i++ {
		if scoreHeaderCells(splitFields(lines[i], sep)) >= headerScoreCutoff {
			return i, true
		}
	}
	return 0, false
}

func scoreHeaderCells(cells []string) int {
	score := 0
	normalized := normalizer.NormalizeText(strings.Join(cells, " "))
	for _, kw := range headerKeywords {
		if strings.Contains(normalized, kw) {
			score += 3
		}
	}
	for _, cell := range cells {
		if looksNumeric(cell) || looksCurrency(cell) {
			score--
		}
	}
	return score
}

// classifyRecordType sums Aho-Corasick keyword hits per category over a
// sample, plus shape bonuses: currency-looking tokens favor budgets,
// phone-looking tokens favor clients.
func classifyRecordType(lines []string, sampleRows [][]string) RecordType {
	limit := classifyLines
	if limit > len(lines) {
		limit = len(lines)
	}
	normalized := normalizer.NormalizeText(strings.Join(lines[:limit], "\n"))
	blob := []byte(normalized)

	budgetScore := len(budgetMatcher.Match(blob))
	clientScore := len(clientMatcher.Match(blob))
	partScore := len(partMatcher.Match(blob))

	for _, row := range sampleRows {
		for _, cell := range row {
			if looksCurrency(cell) {
				budgetScore++
			}
			if looksPhone(cell) {
				clientScore++
			}
		}
	}

	top, second := RecordTypeUnknown, 0
	topScore := 0
	for _, entry := range []struct {
		t RecordType
		s int
	}{
		{RecordTypeBudgets, budgetScore},
		{RecordTypeClients, clientScore},
		{RecordTypeParts, partScore},
	} {
		if entry.s > topScore {
			second = topScore
			top, topScore = entry.t, entry.s
		} else if entry.s > second {
			second = entry.s
		}
	}

	if topScore == 0 {
		return RecordTypeUnknown
	}
	if second == topScore {
		return RecordTypeMixed
	}
	return top
}

func looksNumeric(cell string) bool {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return false
	}
	digits := 0
	for _, r := range cell {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' || r == ',' || r == '-' || r == ' ':
		default:
			return false
		}
	}
	return digits > 0
}

func looksCurrency(cell string) bool {
	cell = strings.TrimSpace(cell)
	if strings.HasPrefix(cell, "R$") || strings.HasPrefix(cell, "$") {
		return true
	}
	// 123,45 / 1.234,56 shaped values
	if !looksNumeric(cell) {
		return false
	}
	idx := strings.LastIndexAny(cell, ",.")
	return idx > 0 && len(cell)-idx-1 == 2
}

func looksPhone(cell string) bool {
	digits := normalizer.PhoneDigits(cell)
	if len(digits) != 10 && len(digits) != 11 {
		return false
	}
	// Currency values rarely reach ten digits; require phone punctuation or
	// a bare digit string.
	return !strings.ContainsAny(cell, ",.") || strings.ContainsAny(cell, "()-+ ")
}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for i, line := range raw {
		line = strings.TrimRight(line, "\r")
		if i == 0 {
			line = strings.TrimPrefix(line, "\uFEFF")
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func splitFields(line string, sep rune) []string {
	fields := strings.Split(line, string(sep))
	for i, f := range fields {
		fields[i] = strings.TrimSpace(strings.Trim(strings.TrimSpace(f), "\""))
	}
	return fields
}
