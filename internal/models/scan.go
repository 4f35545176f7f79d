package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/carqr-app/carqr-backend/internal/utils"
)

// ScanEvent records that somebody scanned a car's QR code. Rows are
// append-only; there is no update or delete path.
type ScanEvent struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	CarID        string    `json:"carId" gorm:"index;not null"`
	ScannerPhone string    `json:"scannerPhone" gorm:"not null"`
	ScannerEmail string    `json:"scannerEmail" gorm:"not null"`
	Notes        *string   `json:"notes"`
	Timestamp    time.Time `json:"timestamp" gorm:"index"`

	Car *Car `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// BeforeCreate hook to auto-generate the scan ID and stamp the event
func (s *ScanEvent) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = utils.GenerateSecureID("scan_")
	}
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now()
	}
	return nil
}

// ScanFilter bounds a scan history query. From/To are inclusive.
type ScanFilter struct {
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}
