package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/carqr-app/carqr-backend/internal/utils"
)

// Accepted print sizes and output formats for generated QR codes
var (
	ValidQRSizes   = []string{"3x3", "4x4"}
	ValidQRFormats = []string{"pdf", "svg", "png"}
)

// QRCode is the persisted record of a generated code. QRValue is the
// stable URL the rendered image encodes; the image itself is not stored.
type QRCode struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	CarID     string    `json:"carId" gorm:"index;not null"`
	Size      string    `json:"size" gorm:"not null"`
	Format    string    `json:"format" gorm:"not null"`
	QRValue   string    `json:"qrValue" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`

	Car *Car `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// BeforeCreate hook to auto-generate the QR record ID
func (q *QRCode) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = utils.GenerateSecureID("qr_")
	}
	return nil
}

// IsValidQRSize checks a requested size against the accepted set
func IsValidQRSize(size string) bool {
	for _, s := range ValidQRSizes {
		if s == size {
			return true
		}
	}
	return false
}

// IsValidQRFormat checks a requested format against the accepted set
func IsValidQRFormat(format string) bool {
	for _, f := range ValidQRFormats {
		if f == format {
			return true
		}
	}
	return false
}
