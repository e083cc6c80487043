package model

import (
	"time"
)

// TimeEntry represents a single tracked block of time. A running entry has
// IsRunning true and no EndTime; at most one entry per user may be running
// at any instant (enforced by a partial unique index on user_id).
//
// ProjectName and ClientName are denormalized display strings cached at
// write time: renaming a project does not retroactively re-tag history.
//
// TimeEntry has no soft-delete column: discarding an entry is a hard removal.
type TimeEntry struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	UserID      uint       `json:"user_id" gorm:"index;not null"`
	CompanyID   *uint      `json:"company_id,omitempty" gorm:"index"` // frozen at creation, never re-tagged
	ProjectID   *uint      `json:"project_id,omitempty" gorm:"index"`
	ClientID    *uint      `json:"client_id,omitempty" gorm:"index"`
	ProjectName string     `json:"project_name,omitempty" gorm:"type:varchar(100)"`
	ClientName  string     `json:"client_name,omitempty" gorm:"type:varchar(100)"`
	Description string     `json:"description" gorm:"type:text"`
	StartTime   time.Time  `json:"start_time" gorm:"index;not null"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Duration    int64      `json:"duration" gorm:"not null;default:0"` // seconds; authoritative only once stopped
	IsRunning   bool       `json:"is_running" gorm:"index;not null;default:false"`
	IsBillable  bool       `json:"is_billable" gorm:"not null;default:false"`
	Tags        []string   `json:"tags,omitempty" gorm:"serializer:json;type:text"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
