package models

import (
	"strings"

	"gorm.io/gorm"
)

// Address is a buyer's saved shipping address. Checkout falls back to the
// buyer's default address when the request supplies none.
type Address struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	UserID     string `json:"user_id" gorm:"index;type:varchar(36)" validate:"required"`
	Line1      string `json:"line1" gorm:"type:varchar(255)" validate:"required"`
	Line2      string `json:"line2" gorm:"type:varchar(255)"`
	City       string `json:"city" gorm:"type:varchar(100)"`
	State      string `json:"state" gorm:"type:varchar(100)"`
	Country    string `json:"country" gorm:"type:varchar(100)"`
	PostalCode string `json:"postal_code" gorm:"type:varchar(20)"`
	IsDefault  bool   `json:"is_default"`
	gorm.Model        // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// Format renders the address as a single shipping line, skipping empty parts.
func (a Address) Format() string {
	parts := []string{a.Line1, a.Line2, a.City, a.State, a.Country, a.PostalCode}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ", ")
}
