package model

import (
	"time"

	"gorm.io/gorm"
)

// Project represents a project within a company
type Project struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CompanyID *uint          `json:"company_id,omitempty" gorm:"index"`
	ClientID  *uint          `json:"client_id,omitempty" gorm:"index"`
	Name      string         `json:"name" gorm:"type:varchar(100);not null"`
	IsActive  bool           `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
