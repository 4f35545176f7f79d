package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/carqr-app/carqr-backend/internal/utils"
)

// Plan names a user can hold
const (
	PlanBasic   = "basic"
	PlanPremium = "premium"
)

// ValidTemplates lists the profile templates the mobile app ships with
var ValidTemplates = []string{"modern", "classic", "minimal"}

// User represents a registered app user, created on first OTP verification
type User struct {
	ID                string     `json:"id" gorm:"primaryKey"`
	Email             string     `json:"email" gorm:"uniqueIndex;not null"`
	Phone             string     `json:"phone" gorm:"uniqueIndex;not null"`
	IsPremium         bool       `json:"isPremium" gorm:"default:false"`
	Plan              string     `json:"plan" gorm:"default:basic"`
	HasCarInfo        bool       `json:"hasCarInfo" gorm:"default:false"`
	SelectedTemplate  string     `json:"selectedTemplate" gorm:"default:modern"`
	PremiumExpiryDate *time.Time `json:"premiumExpiryDate"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"-"`
}

// BeforeCreate hook to auto-generate the user ID and fill defaults
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = utils.GenerateSecureID("user_")
	}
	if u.Plan == "" {
		u.Plan = PlanBasic
	}
	if u.SelectedTemplate == "" {
		u.SelectedTemplate = "modern"
	}
	return nil
}

// IsValidTemplate checks a template ID against the known set
func IsValidTemplate(templateID string) bool {
	for _, t := range ValidTemplates {
		if t == templateID {
			return true
		}
	}
	return false
}
