package models

import (
	"time"

	"github.com/educycle/marketplace/internal/constants"

	"gorm.io/gorm"
)

// Payment is one payment attempt against an order. An order may
// accumulate several attempts. ProviderRef holds the gateway
// transaction id reported by the webhook; its unique index is the
// dedupe key that makes webhook replays harmless.
type Payment struct {
	ID              uint                    `gorm:"primarykey" json:"id"`                            // primary key
	OrderID         uint                    `gorm:"index;not null" json:"order_id"`                  // paid order
	Method          constants.PaymentMethod `gorm:"type:varchar(10);not null" json:"method"`         // card/wallet/cod
	Amount          Money                   `gorm:"type:decimal(20,2);not null" json:"amount"`       // charged amount
	Currency        string                  `gorm:"not null" json:"currency"`                        // ISO currency code
	Status          string                  `gorm:"index;not null" json:"status"`                    // pending/processing/completed/failed/refunded
	ProviderIntent  string                  `gorm:"index" json:"provider_intent"`                    // intent / provider order id from initiation
	ProviderRef     *string                 `gorm:"uniqueIndex" json:"provider_ref,omitempty"`       // gateway transaction id, webhook dedupe key
	ProviderPayload string                  `gorm:"type:text" json:"-"`                              // raw webhook body kept for audit
	PaidAt          *time.Time              `gorm:"index" json:"paid_at"`                            // completion time
	RefundedAt      *time.Time              `gorm:"index" json:"refunded_at"`                        // refund time
	CreatedAt       time.Time               `gorm:"index" json:"created_at"`                         // created time
	UpdatedAt       time.Time               `gorm:"index" json:"updated_at"`                         // updated time
	DeletedAt       gorm.DeletedAt          `gorm:"index" json:"-"`                                  // soft delete time
}

// TableName sets the table name.
func (Payment) TableName() string {
	return "payments"
}
