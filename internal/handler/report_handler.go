package handler

import (
	"net/http"
	"time"

	"timetracker-service/internal/apperr"
	"timetracker-service/internal/authz"
	"timetracker-service/internal/middleware"
	"timetracker-service/internal/timeutil"
	"timetracker-service/prometheus"

	"github.com/labstack/echo/v4"
)

// GetSummary aggregates tracked time over the entries visible to the
// principal, split into billable and non-billable totals with a per-project
// rollup. Available to hr and up.
func GetSummary(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return respondError(c, apperr.Unauthenticated("authentication required"))
	}
	if !authz.CanViewReports(principal) {
		return respondError(c, apperr.Forbidden("not allowed to view reports"))
	}

	filter, err := parseListFilter(c)
	if err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	entries, err := timerService.List(principal, filter)
	if err != nil {
		return respondError(c, err)
	}

	var totals timeutil.Totals
	perProject := map[string]*timeutil.Totals{}
	for _, entry := range entries {
		// Running entries are excluded: their stored duration is not
		// authoritative until stop.
		if entry.IsRunning {
			continue
		}
		totals.Add(entry.Duration, entry.IsBillable)

		name := entry.ProjectName
		if name == "" {
			name = "(no project)"
		}
		if perProject[name] == nil {
			perProject[name] = &timeutil.Totals{}
		}
		perProject[name].Add(entry.Duration, entry.IsBillable)
	}

	return respond(c, http.StatusOK, echo.Map{
		"totals":    totals,
		"formatted": totals.Formatted(),
		"projects":  perProject,
	})
}
