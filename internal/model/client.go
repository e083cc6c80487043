package model

import (
	"time"

	"gorm.io/gorm"
)

// Client represents a billing client within a company
type Client struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CompanyID *uint          `json:"company_id,omitempty" gorm:"index"`
	Name      string         `json:"name" gorm:"type:varchar(100);not null"`
	IsActive  bool           `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
