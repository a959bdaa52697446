// Package money provides currency-safe arithmetic for quote prices using
// integer cents. It wraps go-money for safe arithmetic and currency-aware
// display, and shopspring/decimal for precise conversions.
package money

import (
	"errors"
	"fmt"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency codes used by the application (ISO-4217). Quotes are priced in
// BRL; the other codes exist for display of imported foreign price lists.
const (
	BRL = "BRL" // Brazilian Real
	USD = "USD" // US Dollar
	EUR = "EUR" // Euro
)

// Money represents a monetary value with currency.
type Money struct {
	m *gomoney.Money
}

// New creates a Money value from cents (minor units) and currency code.
func New(amountCents int64, currencyCode string) *Money {
	return &Money{m: gomoney.New(amountCents, currencyCode)}
}

// NewFromDecimal creates Money from a decimal major-unit amount.
func NewFromDecimal(amount decimal.Decimal, currencyCode string) *Money {
	cents := amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	return New(cents, currencyCode)
}

// Zero returns a zero Money value for the given currency
func Zero(currencyCode string) *Money {
	return New(0, currencyCode)
}

// Amount returns the amount in minor units (cents)
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// Currency returns the ISO-4217 currency code
func (m *Money) Currency() string {
	if m == nil || m.m == nil {
		return BRL
	}
	return m.m.Currency().Code
}

// IsZero returns true if the amount is zero
func (m *Money) IsZero() bool {
	return m.Amount() == 0
}

// IsPositive returns true if the amount is greater than zero
func (m *Money) IsPositive() bool {
	return m.Amount() > 0
}

// IsNegative returns true if the amount is less than zero
func (m *Money) IsNegative() bool {
	return m.Amount() < 0
}

// Abs returns the absolute value
func (m *Money) Abs() *Money {
	if m.IsNegative() {
		return New(-m.Amount(), m.Currency())
	}
	return m
}

// Add adds two Money values. Returns error if currencies don't match.
func (m *Money) Add(other *Money) (*Money, error) {
	if m.Currency() != other.Currency() {
		return nil, fmt.Errorf("currency mismatch: %s vs %s", m.Currency(), other.Currency())
	}
	sum, err := m.m.Add(other.m)
	if err != nil {
		return nil, err
	}
	return &Money{m: sum}, nil
}

// Subtract subtracts other from m. Returns error if currencies don't match.
func (m *Money) Subtract(other *Money) (*Money, error) {
	if m.Currency() != other.Currency() {
		return nil, fmt.Errorf("currency mismatch: %s vs %s", m.Currency(), other.Currency())
	}
	diff, err := m.m.Subtract(other.m)
	if err != nil {
		return nil, err
	}
	return &Money{m: diff}, nil
}

// Multiply scales the amount by an integer factor.
func (m *Money) Multiply(factor int64) *Money {
	return New(m.Amount()*factor, m.Currency())
}

// Split divides money into n equal parts, distributing the remainder cent by
// cent to the first parts so no money is lost. Used to derive installment
// values on a quote.
func (m *Money) Split(n int) ([]*Money, error) {
	if m == nil || m.m == nil {
		return nil, errors.New("cannot split nil money")
	}
	if n <= 0 {
		return nil, errors.New("n must be positive")
	}

	parts, err := m.m.Split(n)
	if err != nil {
		return nil, err
	}

	result := make([]*Money, len(parts))
	for i, p := range parts {
		result[i] = &Money{m: p}
	}
	return result, nil
}

// Percentage applies a discount or markup and returns the adjusted value.
func (m *Money) Percentage(percent float64) *Money {
	adjusted := decimal.NewFromInt(m.Amount()).
		Mul(decimal.NewFromFloat(percent)).
		Div(decimal.NewFromInt(100)).
		Round(0).IntPart()
	return New(adjusted, m.Currency())
}

// Display renders the value with its currency symbol and locale separators
// ("R$350,00").
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return "R$0,00"
	}
	return m.m.Display()
}

// String returns the amount as a plain decimal string ("350.00").
func (m *Money) String() string {
	if m == nil || m.m == nil {
		return "0.00"
	}
	return m.ToDecimal().StringFixed(2)
}

// ToDecimal converts to a decimal major-unit amount for precise calculations.
func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	fraction := int32(m.m.Currency().Fraction)
	return decimal.NewFromInt(m.m.Amount()).Div(decimal.New(1, fraction))
}

// Equals compares value and currency.
func (m *Money) Equals(other *Money) bool {
	return m.Currency() == other.Currency() && m.Amount() == other.Amount()
}
