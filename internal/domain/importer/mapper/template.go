package mapper

import (
	"bytes"

	"github.com/gocarina/gocsv"
)

// templateRow defines the export template's header row through its csv tags.
// The tags are the primary aliases of the budget dictionary, so a file
// exported from this template re-imports with full mapping confidence. Keep
// the two in lockstep: renaming a tag without updating budgetFields silently
// degrades round-trip confidence.
type templateRow struct {
	DeviceType       string `csv:"Tipo de Aparelho"`
	DeviceModel      string `csv:"Modelo do Aparelho"`
	DeviceIssue      string `csv:"Defeito"`
	TotalPrice       string `csv:"Preço Total"`
	CashPrice        string `csv:"Preço à Vista"`
	InstallmentPrice string `csv:"Preço Parcelado"`
	Installments     string `csv:"Parcelas"`
	PaymentCondition string `csv:"Condição de Pagamento"`
	WarrantyMonths   string `csv:"Garantia (meses)"`
	Delivery         string `csv:"Entrega"`
	ScreenProtector  string `csv:"Película"`
	ValidUntil       string `csv:"Validade"`
	ClientName       string `csv:"Nome do Cliente"`
	ClientPhone      string `csv:"Telefone do Cliente"`
	Status           string `csv:"Status"`
	Notes            string `csv:"Observações"`
}

// TemplateColumns returns the ordered header list of the budget import
// template, as written by ExportTemplate.
func TemplateColumns() []string {
	return []string{
		"Tipo de Aparelho", "Modelo do Aparelho", "Defeito",
		"Preço Total", "Preço à Vista", "Preço Parcelado", "Parcelas",
		"Condição de Pagamento", "Garantia (meses)", "Entrega", "Película",
		"Validade", "Nome do Cliente", "Telefone do Cliente", "Status",
		"Observações",
	}
}

// ExportTemplate produces the budget import template: UTF-8 CSV with a BOM
// (so spreadsheet applications keep the accents) and one example row.
func ExportTemplate() ([]byte, error) {
	rows := []*templateRow{{
		DeviceType:       "Smartphone",
		DeviceModel:      "iPhone 12",
		DeviceIssue:      "Troca de tela",
		TotalPrice:       "350,00",
		CashPrice:        "350,00",
		InstallmentPrice: "380,00",
		Installments:     "3",
		PaymentCondition: "3x de R$ 126,67",
		WarrantyMonths:   "3",
		Delivery:         "sim",
		ScreenProtector:  "não",
		ValidUntil:       "2026-09-30",
		ClientName:       "Maria Silva",
		ClientPhone:      "(11) 98765-4321",
		Status:           "pending",
		Notes:            "",
	}}

	body, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write([]byte{0xEF, 0xBB, 0xBF})
	buf.Write(body)
	return buf.Bytes(), nil
}

// ExportRows renders already-imported budget field values back into the
// template layout. Each row is a canonical-field map as produced by the
// import pipeline; missing fields render as empty cells.
func ExportRows(rows []map[string]string) ([]byte, error) {
	out := make([]*templateRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, &templateRow{
			DeviceType:       r[FieldDeviceType],
			DeviceModel:      r[FieldDeviceModel],
			DeviceIssue:      r[FieldDeviceIssue],
			TotalPrice:       r[FieldTotalPrice],
			CashPrice:        r[FieldCashPrice],
			InstallmentPrice: r[FieldInstallmentPrice],
			Installments:     r[FieldInstallments],
			PaymentCondition: r[FieldPaymentCondition],
			WarrantyMonths:   r[FieldWarrantyMonths],
			Delivery:         r[FieldIncludesDelivery],
			ScreenProtector:  r[FieldIncludesScreenProtector],
			ValidUntil:       r[FieldValidUntil],
			ClientName:       r[FieldClientName],
			ClientPhone:      r[FieldClientPhone],
			Status:           r[FieldStatus],
			Notes:            r[FieldNotes],
		})
	}

	body, err := gocsv.MarshalBytes(&out)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write([]byte{0xEF, 0xBB, 0xBF})
	buf.Write(body)
	return buf.Bytes(), nil
}
