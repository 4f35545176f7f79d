package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/carqr-app/carqr-backend/internal/utils"
)

// Payment statuses. The only legal transition is pending → completed,
// applied exactly once at verification time.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
)

// Payment tracks a razorpay order from creation to verification
type Payment struct {
	ID           string     `json:"id" gorm:"primaryKey"`
	UserID       string     `json:"userId" gorm:"index;not null"`
	OrderID      string     `json:"orderId" gorm:"index;not null"`
	Amount       int64      `json:"amount" gorm:"not null"` // paise
	Currency     string     `json:"currency" gorm:"default:INR"`
	Status       string     `json:"status" gorm:"default:pending"`
	PlanDuration int        `json:"planDuration" gorm:"default:365"` // days
	VerifiedAt   *time.Time `json:"verifiedAt"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"-"`

	User *User `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// BeforeCreate hook to auto-generate the payment ID
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = utils.GenerateSecureID("pay_")
	}
	if p.Status == "" {
		p.Status = PaymentStatusPending
	}
	return nil
}
