package service

import (
	"strconv"

	"github.com/orcafacil/backend/internal/domain/budget"
	"github.com/orcafacil/backend/internal/domain/importer/mapper"
	"github.com/orcafacil/backend/internal/domain/importer/normalizer"
)

// ExportBudgets renders quotes back into the import template layout, so a
// user can edit them in a spreadsheet and re-import. Values are written in
// the formats the coercers parse back losslessly: prices as major units
// with two decimals, booleans as sim/não, dates as ISO-8601.
func ExportBudgets(budgets []budget.Budget) ([]byte, error) {
	rows := make([]map[string]string, 0, len(budgets))
	for i := range budgets {
		b := &budgets[i]
		row := map[string]string{
			mapper.FieldDeviceType:              b.DeviceType,
			mapper.FieldDeviceModel:             b.DeviceModel,
			mapper.FieldDeviceIssue:             b.DeviceIssue,
			mapper.FieldTotalPrice:              normalizer.FormatCents(b.TotalPriceCents),
			mapper.FieldCashPrice:               normalizer.FormatCents(b.CashPriceCents),
			mapper.FieldInstallments:            strconv.Itoa(b.Installments),
			mapper.FieldPaymentCondition:        b.PaymentCondition,
			mapper.FieldWarrantyMonths:          strconv.Itoa(b.WarrantyMonths),
			mapper.FieldIncludesDelivery:        boolWord(b.IncludesDelivery),
			mapper.FieldIncludesScreenProtector: boolWord(b.IncludesScreenProtector),
			mapper.FieldClientName:              b.ClientName,
			mapper.FieldClientPhone:             b.ClientPhone,
			mapper.FieldStatus:                  b.Status,
			mapper.FieldNotes:                   b.Notes,
		}
		if b.InstallmentPriceCents > 0 {
			row[mapper.FieldInstallmentPrice] = normalizer.FormatCents(b.InstallmentPriceCents)
		}
		if b.ValidUntil != nil {
			row[mapper.FieldValidUntil] = b.ValidUntil.Format("2006-01-02")
		}
		rows = append(rows, row)
	}
	return mapper.ExportRows(rows)
}

func boolWord(v bool) string {
	if v {
		return "sim"
	}
	return "não"
}
