package budget

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

// TestDataGenerator produces realistic quote data for tests and demos.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGenerator creates a generator with a specific seed so test
// fixtures are reproducible.
func NewTestDataGenerator(seed int64) *TestDataGenerator {
	return &TestDataGenerator{faker: gofakeit.New(seed)}
}

var deviceModels = map[string][]string{
	"Smartphone": {"iPhone 11", "iPhone 12", "iPhone 13 Pro", "Galaxy S21", "Galaxy A52", "Moto G60", "Redmi Note 11"},
	"Tablet":     {"iPad 9", "iPad Air", "Galaxy Tab A8"},
	"Notebook":   {"MacBook Air M1", "Dell Inspiron 15", "Lenovo IdeaPad 3", "Acer Aspire 5"},
}

var deviceIssues = []string{
	"Troca de tela", "Troca de bateria", "Conector de carga",
	"Não liga", "Troca de tampa traseira", "Limpeza por oxidação",
}

// Budget generates one random quote for the given owner.
func (g *TestDataGenerator) Budget(ownerID uuid.UUID) Budget {
	deviceType := g.faker.RandomString([]string{"Smartphone", "Smartphone", "Smartphone", "Tablet", "Notebook"})
	total := int64(g.faker.Number(8000, 150000))
	installments := g.faker.Number(1, 6)
	validUntil := time.Now().AddDate(0, 0, g.faker.Number(7, 30))

	b := Budget{
		OwnerID:                 ownerID,
		DeviceType:              deviceType,
		DeviceModel:             g.faker.RandomString(deviceModels[deviceType]),
		DeviceIssue:             g.faker.RandomString(deviceIssues),
		TotalPriceCents:         total,
		CashPriceCents:          total,
		InstallmentPriceCents:   total + total/10,
		Installments:            installments,
		WarrantyMonths:          3,
		IncludesDelivery:        g.faker.Bool(),
		IncludesScreenProtector: deviceType == "Smartphone" && g.faker.Bool(),
		ValidUntil:              &validUntil,
		ClientName:              g.faker.Name(),
		ClientPhone:             g.Phone(),
		Status:                  StatusPending,
	}
	b.Fingerprint = b.ComputeFingerprint()
	return b
}

// Budgets generates n random quotes.
func (g *TestDataGenerator) Budgets(ownerID uuid.UUID, n int) []Budget {
	out := make([]Budget, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, g.Budget(ownerID))
	}
	return out
}

// Phone generates a formatted Brazilian mobile number.
func (g *TestDataGenerator) Phone() string {
	ddd := g.faker.Number(11, 99)
	prefix := g.faker.Number(90000, 99999)
	suffix := g.faker.Number(1000, 9999)
	return fmt.Sprintf("(%d) %d-%04d", ddd, prefix, suffix)
}

// CSV renders quotes as a messy hand-made spreadsheet export: Brazilian
// headers, comma decimal marks, sim/não booleans. Useful as import-pipeline
// test input.
func (g *TestDataGenerator) CSV(budgets []Budget) []byte {
	var sb strings.Builder
	sb.WriteString("Modelo do Aparelho,Defeito,Preço Total,Parcelas,Garantia (meses),Entrega,Nome do Cliente,Telefone do Cliente,Validade\n")
	for i := range budgets {
		b := &budgets[i]
		entrega := "não"
		if b.IncludesDelivery {
			entrega = "sim"
		}
		fmt.Fprintf(&sb, "%s,%s,\"%d,%02d\",%d,%d,%s,%s,%s,%s\n",
			b.DeviceModel, b.DeviceIssue,
			b.TotalPriceCents/100, b.TotalPriceCents%100,
			b.Installments, b.WarrantyMonths, entrega,
			b.ClientName, b.ClientPhone,
			b.ValidUntil.Format("02/01/2006"),
		)
	}
	return []byte(sb.String())
}
