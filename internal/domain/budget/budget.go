// Package budget holds the repair-quote record model and its persistence
// layer. Records arrive here only after the import pipeline has mapped,
// coerced and validated them; fields are typed and prices are integer cents.
package budget

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Quote lifecycle statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusExpired  = "expired"
)

// Budget is a single device-repair quote.
type Budget struct {
	ID                      uuid.UUID  `db:"id"`
	OwnerID                 uuid.UUID  `db:"owner_id"`
	DeviceType              string     `db:"device_type"`
	DeviceModel             string     `db:"device_model"`
	DeviceIssue             string     `db:"device_issue"`
	TotalPriceCents         int64      `db:"total_price_cents"`
	CashPriceCents          int64      `db:"cash_price_cents"`
	InstallmentPriceCents   int64      `db:"installment_price_cents"`
	Installments            int        `db:"installments"`
	PaymentCondition        string     `db:"payment_condition"`
	WarrantyMonths          int        `db:"warranty_months"`
	IncludesDelivery        bool       `db:"includes_delivery"`
	IncludesScreenProtector bool       `db:"includes_screen_protector"`
	ValidUntil              *time.Time `db:"valid_until"`
	ClientName              string     `db:"client_name"`
	ClientPhone             string     `db:"client_phone"`
	Status                  string     `db:"status"`
	WorkflowStatus          string     `db:"workflow_status"`
	Notes                   string     `db:"notes"`
	Fingerprint             string     `db:"fingerprint"`
	CreatedAt               time.Time  `db:"created_at"`
	UpdatedAt               time.Time  `db:"updated_at"`
}

// ComputeFingerprint derives the dedupe key used by BulkInsert. Two imports
// of the same file produce identical fingerprints, so re-running an import
// after a partial failure inserts only the missing rows.
func (b *Budget) ComputeFingerprint() string {
	validUntil := ""
	if b.ValidUntil != nil {
		validUntil = b.ValidUntil.Format("2006-01-02")
	}
	payload := strings.Join([]string{
		b.OwnerID.String(),
		strings.ToLower(b.DeviceModel),
		strings.ToLower(b.ClientName),
		b.ClientPhone,
		fmt.Sprintf("%d", b.TotalPriceCents),
		validUntil,
	}, "|")
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
