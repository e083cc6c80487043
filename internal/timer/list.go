package timer

import (
	"time"

	"timetracker-service/internal/apperr"
	"timetracker-service/internal/authz"
	"timetracker-service/internal/model"
	"timetracker-service/internal/scope"
)

// ListFilter narrows an entry listing. The caller resolves date parameters
// to concrete instants; EndDate is expected to be inclusive of its whole
// day (see timeutil.EndOfDay).
type ListFilter struct {
	StartDate    *time.Time
	EndDate      *time.Time
	ProjectID    *uint
	BillableOnly bool
	UserID       *uint
}

// List returns entries visible to the principal, newest first. The company
// scope is applied before every user-supplied filter; employees are further
// restricted to their own entries.
func (s *Service) List(p authz.Principal, f ListFilter) ([]model.TimeEntry, error) {
	query := scope.ForPrincipal(p).Apply(s.db.Model(&model.TimeEntry{}))

	if !authz.CanViewCompanyWide(p) {
		query = query.Where("user_id = ?", p.UserID)
	}

	if f.UserID != nil {
		query = query.Where("user_id = ?", *f.UserID)
	}
	if f.StartDate != nil {
		query = query.Where("start_time >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		query = query.Where("start_time <= ?", *f.EndDate)
	}
	if f.ProjectID != nil {
		query = query.Where("project_id = ?", *f.ProjectID)
	}
	if f.BillableOnly {
		query = query.Where("is_billable")
	}

	var entries []model.TimeEntry
	if err := query.Order("start_time DESC").Find(&entries).Error; err != nil {
		return nil, apperr.Internal("failed to list time entries", err)
	}
	return entries, nil
}
