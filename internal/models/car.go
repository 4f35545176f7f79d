package models

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/carqr-app/carqr-backend/internal/utils"
)

// Car is the single car profile attached to a user. The unique index on
// UserID is what the save endpoint's upsert conflicts on.
type Car struct {
	ID               string         `json:"id" gorm:"primaryKey"`
	UserID           string         `json:"userId" gorm:"uniqueIndex;not null"`
	CarNumber        string         `json:"carNumber" gorm:"not null"`
	CarModel         string         `json:"carModel" gorm:"not null"`
	CustomMessage    string         `json:"customMessage"`
	SelectedTemplate string         `json:"selectedTemplate" gorm:"default:modern"`
	CustomFields     datatypes.JSON `json:"-"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`

	User *User `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// BeforeCreate hook to auto-generate the car ID and normalize the plate
func (c *Car) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = utils.GenerateSecureID("car_")
	}
	c.Normalize()
	return nil
}

// BeforeUpdate keeps the plate normalized on in-place updates too
func (c *Car) BeforeUpdate(tx *gorm.DB) error {
	c.Normalize()
	return nil
}

// Normalize uppercases the car number and strips spaces
func (c *Car) Normalize() {
	c.CarNumber = strings.ToUpper(strings.ReplaceAll(c.CarNumber, " ", ""))
}

// CustomFieldsMap decodes the stored JSON blob. A missing or malformed
// blob decodes to an empty map rather than an error.
func (c *Car) CustomFieldsMap() map[string]interface{} {
	fields := map[string]interface{}{}
	if len(c.CustomFields) == 0 {
		return fields
	}
	if err := json.Unmarshal(c.CustomFields, &fields); err != nil {
		return map[string]interface{}{}
	}
	return fields
}

// SetCustomFields encodes and replaces the stored blob wholesale
func (c *Car) SetCustomFields(fields map[string]interface{}) error {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	c.CustomFields = datatypes.JSON(raw)
	return nil
}

// CarWithOwner is the public car lookup result, joined with owner contact
// fields. No owner display name exists in the schema.
type CarWithOwner struct {
	Car
	OwnerPhone string `json:"-"`
	OwnerEmail string `json:"-"`
}
