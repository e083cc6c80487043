package model

import (
	"time"

	"gorm.io/gorm"
)

// Pricing levels for a company subscription
const (
	PricingSolo       = "solo"
	PricingOffice     = "office"
	PricingEnterprise = "enterprise"
)

// ValidPricingLevel reports whether level is a known pricing level
func ValidPricingLevel(level string) bool {
	switch level {
	case PricingSolo, PricingOffice, PricingEnterprise:
		return true
	}
	return false
}

// DefaultMaxMembers returns the member cap for a pricing level; 0 means unlimited
func DefaultMaxMembers(level string) int {
	switch level {
	case PricingSolo:
		return 1
	case PricingOffice:
		return 25
	default:
		return 0
	}
}

// Company represents a tenant. Every project, client and time entry is owned
// by exactly one company.
type Company struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Name         string         `json:"name" gorm:"type:varchar(100);uniqueIndex"`
	IsActive     bool           `json:"is_active" gorm:"default:true"`
	PricingLevel string         `json:"pricing_level" gorm:"type:varchar(20);not null;default:'office'"`
	MaxMembers   int            `json:"max_members" gorm:"default:0"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// IsSolo reports whether the company is on the solo plan. Solo tenants are
// capped at one project and one client, and every entry is billable.
func (c *Company) IsSolo() bool {
	return c.PricingLevel == PricingSolo
}
