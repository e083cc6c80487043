package model

import (
	"time"

	"gorm.io/gorm"
)

// Role names, ordered from most to least privileged. Admin authority is
// always company-local; root is the only role that crosses companies.
const (
	RoleRoot       = "root"
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleHR         = "hr"
	RoleEmployee   = "employee"
)

// ValidRole reports whether role is one of the known role names
func ValidRole(role string) bool {
	switch role {
	case RoleRoot, RoleSuperAdmin, RoleAdmin, RoleHR, RoleEmployee:
		return true
	}
	return false
}

// User represents the user model stored in the database
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Email     string         `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Password  string         `json:"-" gorm:"type:varchar(255)"`
	Name      string         `json:"name" gorm:"type:varchar(100)"`
	Role      string         `json:"role" gorm:"type:varchar(50);not null;default:'employee'"`
	CompanyID *uint          `json:"company_id,omitempty" gorm:"index"` // nil for root accounts and pre-tenancy orphans
	Active    bool           `json:"active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
