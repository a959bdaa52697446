// Package service orchestrates the import pipeline: format detection,
// decoding, structure detection, header mapping, row validation and
// conversion to persistence-ready budget records.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orcafacil/backend/internal/domain/budget"
	"github.com/orcafacil/backend/internal/domain/importer/mapper"
	"github.com/orcafacil/backend/internal/domain/importer/normalizer"
	"github.com/orcafacil/backend/internal/domain/importer/reader"
	"github.com/orcafacil/backend/internal/domain/importer/sniffer"
	"github.com/orcafacil/backend/internal/domain/importer/validator"
	"github.com/orcafacil/backend/pkg/metrics"
	"github.com/orcafacil/backend/pkg/money"
)

const (
	defaultBatchSize    = 500
	defaultValidityDays = 15
)

// ProgressFunc receives batch-boundary progress updates.
type ProgressFunc func(percent int, statusText string)

// Options configures an import run. Zero values fall back to the defaults
// above; Logger and Metrics may be nil.
type Options struct {
	BatchSize    int
	ValidityDays int
	CentsMode    normalizer.CentsMode
	DateFormat   string
	Location     *time.Location
	Progress     ProgressFunc
}

// RowError is a blocking problem on one data row.
type RowError struct {
	Row     int
	Field   string
	Message string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d, %s: %s", e.Row, e.Field, e.Message)
}

// BatchResult is the full outcome of importing one file. Records holds only
// rows that passed validation; everything else is accounted for in the
// counters and message lists.
type BatchResult struct {
	JobID          uuid.UUID
	Detection      sniffer.FormatDetection
	Structure      *sniffer.Structure
	Mappings       []mapper.ColumnMapping
	TotalRows      int
	ValidRows      int
	InvalidRows    int
	WarningRows    int
	RecoveredRows  int
	Errors         []RowError
	Warnings       []string
	AutoFixes      []string
	Suggestions    []validator.DataSuggestion
	Records        []budget.Budget
	ProcessingTime time.Duration
}

// Service runs imports. Construct one explicitly with New and share it
// through dependency wiring; it holds no per-import state.
type Service struct {
	detector *sniffer.StructureDetector
	opts     Options
	logger   *slog.Logger
	metrics  *metrics.ImportMetrics
}

func New(opts Options, logger *slog.Logger, m *metrics.ImportMetrics) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.ValidityDays <= 0 {
		opts.ValidityDays = defaultValidityDays
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		detector: sniffer.NewStructureDetector(),
		opts:     opts,
		logger:   logger,
		metrics:  m,
	}
}

// ImportFile runs the whole pipeline over one file. Row-level problems are
// collected in the result and never abort the run; only file-level failures
// (unreadable payload, no header row, zero data rows) return an error, and
// then the result carries the detection info gathered so far with no
// records. Cancellation is honored at batch boundaries.
func (s *Service) ImportFile(ctx context.Context, ownerID uuid.UUID, filename string, data []byte) (*BatchResult, error) {
	start := time.Now()
	res := &BatchResult{JobID: uuid.New()}

	det := sniffer.DetectFormat(data, filename)
	res.Detection = det
	if det.Confidence < 0.5 {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"file format guessed as %s with low confidence; check the result carefully", det.Format))
	}

	log := s.logger.With("job_id", res.JobID, "filename", filename, "format", det.Format)

	rows, err := reader.Decode(data, det)
	if err != nil {
		s.countImport(det, "failed")
		return res, fmt.Errorf("decode %s file: %w", det.Format, err)
	}

	st, err := s.detector.DetectRows(rows)
	if err != nil {
		s.countImport(det, "failed")
		return res, err
	}
	res.Structure = st
	if !st.HasHeaders {
		s.countImport(det, "failed")
		return res, sniffer.ErrNoHeadersFound
	}

	dataRows := rows[st.HeaderRow+1:]
	if len(dataRows) == 0 {
		s.countImport(det, "failed")
		return res, sniffer.ErrNoDataRows
	}

	if st.Confidence < 70 {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"file structure detected with low confidence (%d); column mapping may need review", st.Confidence))
	}
	res.Warnings = append(res.Warnings, st.Suggestions...)

	m := mapper.New(st.FileType)
	mappings, conflicts := m.MapHeaders(st.Headers)
	res.Mappings = mappings
	res.Warnings = append(res.Warnings, conflicts...)
	for _, cm := range mappings {
		if cm.CanonicalField == mapper.FieldUnknown {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"column %q was not recognized and will be ignored", cm.SourceHeader))
		} else if cm.Confidence < 60 {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"column %q mapped to %s with low confidence (%d)",
				cm.SourceHeader, cm.CanonicalField, cm.Confidence))
		}
	}

	// Probe the regional dialect from sample cells of the price and
	// validity columns; explicit options always win over the probe.
	dialect := normalizer.ProbeDialect(
		columnSamples(dataRows, mappings, mapper.FieldTotalPrice),
		columnSamples(dataRows, mappings, mapper.FieldValidUntil),
	)
	dateFormat := s.opts.DateFormat
	if dateFormat == "" {
		dateFormat = dialect.DateFormat
	}
	centsMode := s.opts.CentsMode
	if centsMode == normalizer.CentsModeOff && dialect.LikelyCents {
		centsMode = normalizer.CentsModeWarn
		res.Warnings = append(res.Warnings,
			"price values look like integer cents; large amounts will be divided by 100, each with a row warning")
	}

	v := validator.New(validator.DefaultBudgetRules(), validator.Options{
		CentsMode:  centsMode,
		DateFormat: dateFormat,
		Location:   s.opts.Location,
	})

	res.TotalRows = len(dataRows)
	processed := 0
	for batchStart := 0; batchStart < len(dataRows); batchStart += s.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			s.countImport(det, "canceled")
			return res, err
		}

		end := batchStart + s.opts.BatchSize
		if end > len(dataRows) {
			end = len(dataRows)
		}
		for i := batchStart; i < end; i++ {
			// 1-based data row numbers, counting from below the header.
			s.processRow(ownerID, i+1, dataRows[i], mappings, v, res)
		}

		processed = end
		if s.opts.Progress != nil {
			percent := processed * 100 / len(dataRows)
			s.opts.Progress(percent, fmt.Sprintf("processed %d of %d rows", processed, len(dataRows)))
		}
	}

	res.ProcessingTime = time.Since(start)
	s.countImport(det, "ok")
	if s.metrics != nil {
		s.metrics.ImportDuration.Observe(res.ProcessingTime.Seconds())
	}
	log.Info("import finished",
		"total_rows", res.TotalRows,
		"valid_rows", res.ValidRows,
		"invalid_rows", res.InvalidRows,
		"recovered_rows", res.RecoveredRows,
		"duration", res.ProcessingTime)
	return res, nil
}

func (s *Service) processRow(ownerID uuid.UUID, rowNum int, cells []string, mappings []mapper.ColumnMapping, v *validator.Validator, res *BatchResult) {
	raw := rowValues(cells, mappings)

	row := v.ValidateRow(rowNum, raw)
	recovered := false
	if !row.IsValid {
		suggestions := validator.SuggestFixes(row, raw)
		recovered = validator.ApplySuggestions(&row, suggestions)
		for _, sg := range suggestions {
			if sg.Confidence != validator.ConfidenceHigh {
				res.Suggestions = append(res.Suggestions, sg)
			}
		}
	}

	for _, w := range row.Warnings {
		res.Warnings = append(res.Warnings, fmt.Sprintf("row %d: %s", rowNum, w))
	}
	for _, fix := range row.AutoFixes {
		res.AutoFixes = append(res.AutoFixes, fmt.Sprintf("row %d: %s", rowNum, fix))
	}
	if len(row.Warnings) > 0 {
		res.WarningRows++
	}

	if !row.IsValid {
		res.InvalidRows++
		s.countRow(metrics.RowInvalid)
		for _, fieldErr := range row.Errors {
			res.Errors = append(res.Errors, RowError{
				Row:     rowNum,
				Field:   fieldErr.Field,
				Message: fieldErr.Message,
			})
		}
		return
	}

	res.ValidRows++
	if recovered {
		res.RecoveredRows++
		s.countRow(metrics.RowRecovered)
	} else {
		s.countRow(metrics.RowValid)
	}
	res.Records = append(res.Records, s.buildRecord(ownerID, row.Data))
}

const dialectSampleLimit = 20

// columnSamples gathers up to dialectSampleLimit non-empty cells from the
// column mapped to the given canonical field, for dialect probing.
func columnSamples(rows [][]string, mappings []mapper.ColumnMapping, field string) []string {
	idx := -1
	for _, cm := range mappings {
		if cm.CanonicalField == field {
			idx = cm.SourceIndex
		}
	}
	if idx < 0 {
		return nil
	}
	samples := make([]string, 0, dialectSampleLimit)
	for _, row := range rows {
		if len(samples) == dialectSampleLimit {
			break
		}
		if idx < len(row) && strings.TrimSpace(row[idx]) != "" {
			samples = append(samples, row[idx])
		}
	}
	return samples
}

// rowValues joins one raw row with the column mappings into a canonical
// field map. When two columns map to the same field the later non-empty
// cell wins — an empty duplicate cell never erases an earlier value. The
// mapper has already emitted a conflict warning for duplicate targets.
func rowValues(cells []string, mappings []mapper.ColumnMapping) map[string]string {
	raw := make(map[string]string, len(mappings))
	for _, cm := range mappings {
		if cm.CanonicalField == mapper.FieldUnknown || cm.SourceIndex >= len(cells) {
			continue
		}
		if value := cells[cm.SourceIndex]; value != "" {
			raw[cm.CanonicalField] = value
		}
	}
	return raw
}

// buildRecord converts validated canonical values into the typed budget
// record, computing the derived fields: validity date from the configured
// window and the display payment-condition string from installments.
func (s *Service) buildRecord(ownerID uuid.UUID, data map[string]string) budget.Budget {
	b := budget.Budget{
		OwnerID:                 ownerID,
		DeviceType:              data[mapper.FieldDeviceType],
		DeviceModel:             data[mapper.FieldDeviceModel],
		DeviceIssue:             data[mapper.FieldDeviceIssue],
		TotalPriceCents:         parseCents(data[mapper.FieldTotalPrice]),
		CashPriceCents:          parseCents(data[mapper.FieldCashPrice]),
		InstallmentPriceCents:   parseCents(data[mapper.FieldInstallmentPrice]),
		Installments:            parseCount(data[mapper.FieldInstallments], 1),
		PaymentCondition:        data[mapper.FieldPaymentCondition],
		WarrantyMonths:          parseCount(data[mapper.FieldWarrantyMonths], 0),
		IncludesDelivery:        data[mapper.FieldIncludesDelivery] == "true",
		IncludesScreenProtector: data[mapper.FieldIncludesScreenProtector] == "true",
		ClientName:              data[mapper.FieldClientName],
		ClientPhone:             data[mapper.FieldClientPhone],
		Status:                  data[mapper.FieldStatus],
		WorkflowStatus:          data[mapper.FieldWorkflowStatus],
		Notes:                   data[mapper.FieldNotes],
	}

	// Auto-fill skips the cash price when the total arrived broken; once a
	// suggestion has repaired the total, the default still applies here.
	if b.CashPriceCents == 0 {
		b.CashPriceCents = b.TotalPriceCents
	}

	if raw := data[mapper.FieldValidUntil]; raw != "" {
		if t, err := time.ParseInLocation("2006-01-02", raw, s.opts.Location); err == nil {
			b.ValidUntil = &t
		}
	}
	if b.ValidUntil == nil {
		t := time.Now().In(s.opts.Location).AddDate(0, 0, s.opts.ValidityDays)
		t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.opts.Location)
		b.ValidUntil = &t
	}

	if b.PaymentCondition == "" {
		b.PaymentCondition = paymentCondition(b)
	}
	b.Fingerprint = b.ComputeFingerprint()
	return b
}

// paymentCondition renders the display string shown on the quote:
// "à vista" for single payments, "3x de R$126,67" otherwise. Split keeps
// the cents exact, so the first installment absorbs any remainder.
func paymentCondition(b budget.Budget) string {
	if b.Installments <= 1 {
		return "à vista"
	}
	total := b.InstallmentPriceCents
	if total == 0 {
		total = b.TotalPriceCents
	}
	parts, err := money.New(total, money.BRL).Split(b.Installments)
	if err != nil || len(parts) == 0 {
		return fmt.Sprintf("%dx", b.Installments)
	}
	return fmt.Sprintf("%dx de %s", b.Installments, parts[len(parts)-1].Display())
}

func parseCents(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func parseCount(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func (s *Service) countImport(det sniffer.FormatDetection, result string) {
	if s.metrics != nil {
		s.metrics.ImportsTotal.WithLabelValues(string(det.Format), result).Inc()
	}
}

func (s *Service) countRow(result string) {
	if s.metrics != nil {
		s.metrics.RowsTotal.WithLabelValues(result).Inc()
	}
}
