package timer

import (
	"encoding/json"
	"time"

	"timetracker-service/internal/apperr"
	"timetracker-service/internal/authz"
	"timetracker-service/internal/model"
	"timetracker-service/internal/patch"
	"timetracker-service/internal/timeutil"
)

// EntryPatch is the partial-update body for a time entry. Every field is
// tri-state: absent leaves the stored value unchanged, an explicit null
// clears it, a value sets it.
type EntryPatch struct {
	Description patch.Field[string]    `json:"description"`
	ProjectID   patch.Field[uint]      `json:"project_id"`
	ClientID    patch.Field[uint]      `json:"client_id"`
	IsBillable  patch.Field[bool]      `json:"is_billable"`
	Tags        patch.Field[[]string]  `json:"tags"`
	StartTime   patch.Field[time.Time] `json:"start_time"`
}

// Update applies a patch to a running or stopped entry. Only columns named
// in the patch are written, so a concurrent stop cannot be overwritten by
// an unrelated field update.
func (s *Service) Update(p authz.Principal, entryID uint, in EntryPatch) (*model.TimeEntry, error) {
	entry, err := s.load(p, entryID)
	if err != nil {
		return nil, err
	}
	if !authz.CanMutateEntry(p, entry) {
		return nil, apperr.Forbidden("not allowed to update this entry")
	}

	company, err := s.companyFor(p)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}

	if in.Description.Present {
		if in.Description.Null {
			updates["description"] = ""
		} else {
			updates["description"] = in.Description.Value
		}
	}

	if in.ProjectID.Present {
		if in.ProjectID.Null {
			updates["project_id"] = nil
			updates["project_name"] = ""
		} else {
			project, err := s.findProject(entry.CompanyID, in.ProjectID.Value)
			if err != nil {
				return nil, err
			}
			updates["project_id"] = in.ProjectID.Value
			// A reference that does not resolve within the company keeps
			// the previously cached name instead of blanking display data.
			if project != nil {
				updates["project_name"] = project.Name
			}
		}
	}

	if in.ClientID.Present {
		if in.ClientID.Null {
			updates["client_id"] = nil
			updates["client_name"] = ""
		} else {
			client, err := s.findClient(entry.CompanyID, in.ClientID.Value)
			if err != nil {
				return nil, err
			}
			updates["client_id"] = in.ClientID.Value
			if client != nil {
				updates["client_name"] = client.Name
			}
		}
	}

	if in.IsBillable.Present {
		if in.IsBillable.Null {
			return nil, apperr.Invalid("is_billable cannot be null")
		}
		if !in.IsBillable.Value && company != nil && company.IsSolo() {
			return nil, apperr.Invalid("entries on the solo plan are always billable")
		}
		updates["is_billable"] = in.IsBillable.Value
	}

	if in.Tags.Present {
		tags := in.Tags.Value
		if in.Tags.Null {
			tags = nil
		}
		encoded, err := json.Marshal(tags)
		if err != nil {
			return nil, apperr.Internal("failed to encode tags", err)
		}
		updates["tags"] = string(encoded)
	}

	if in.StartTime.Present {
		if in.StartTime.Null {
			return nil, apperr.Invalid("start_time cannot be null")
		}
		startTime := in.StartTime.Value
		if startTime.After(s.now().Add(s.skew)) {
			return nil, apperr.Invalid("start time is in the future")
		}
		updates["start_time"] = startTime
		// Re-anchoring the start of a stopped entry changes its length
		if !entry.IsRunning && entry.EndTime != nil {
			updates["duration"] = timeutil.Elapsed(startTime, *entry.EndTime)
		}
	}

	if len(updates) == 0 {
		return entry, nil
	}

	if err := s.db.Model(&model.TimeEntry{}).Where("id = ?", entryID).Updates(updates).Error; err != nil {
		return nil, apperr.Internal("failed to update time entry", err)
	}

	return s.reload(entryID)
}
