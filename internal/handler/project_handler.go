package handler

import (
	"errors"
	"net/http"
	"time"

	"timetracker-service/internal/apperr"
	"timetracker-service/internal/authz"
	"timetracker-service/internal/middleware"
	"timetracker-service/internal/model"
	"timetracker-service/internal/scope"
	"timetracker-service/pkg/database"
	"timetracker-service/pkg/logger"
	"timetracker-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateProject creates a project in the principal's company. Solo-plan
// tenants are capped at a single project.
func CreateProject(c echo.Context) error {
	log := logger.FromContext(c)

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return respondError(c, apperr.Unauthenticated("authentication required"))
	}
	if !authz.CanManageCompany(principal) {
		return respondError(c, apperr.Forbidden("not allowed to manage projects"))
	}

	var req struct {
		Name     string `json:"name"`
		ClientID *uint  `json:"client_id"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.Invalid("invalid request"))
	}
	if req.Name == "" {
		return respondError(c, apperr.Invalid("name is required"))
	}

	if err := checkSoloCap(principal.CompanyID, &model.Project{}, "project"); err != nil {
		return respondError(c, err)
	}

	// A project's client must live in the same company
	if req.ClientID != nil {
		var client model.Client
		err := scope.Company(principal.CompanyID).Apply(database.GetDB()).First(&client, *req.ClientID).Error
		if err != nil {
			return respondError(c, apperr.Invalid("client not found"))
		}
	}

	project := model.Project{
		CompanyID: principal.CompanyID,
		ClientID:  req.ClientID,
		Name:      req.Name,
		IsActive:  true,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&project); result.Error != nil {
		log.Error("Failed to create project", zap.Error(result.Error))
		return respondError(c, apperr.Internal("failed to create project", result.Error))
	}

	log.Info("Project created",
		zap.String("name", project.Name),
		zap.Uint("id", project.ID))

	return respond(c, http.StatusCreated, project)
}

// ListProjects returns the projects visible in the principal's scope
func ListProjects(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return respondError(c, apperr.Unauthenticated("authentication required"))
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var projects []model.Project
	query := scope.ForPrincipal(principal).Apply(database.GetDB().Model(&model.Project{}))
	if err := query.Order("name").Find(&projects).Error; err != nil {
		return respondError(c, apperr.Internal("failed to list projects", err))
	}

	return respond(c, http.StatusOK, projects)
}

// UpdateProject renames or re-points a project. Historical entries keep the
// name they were logged under; only the project row changes.
func UpdateProject(c echo.Context) error {
	log := logger.FromContext(c)

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return respondError(c, apperr.Unauthenticated("authentication required"))
	}
	if !authz.CanManageCompany(principal) {
		return respondError(c, apperr.Forbidden("not allowed to manage projects"))
	}

	projectID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var project model.Project
	if err := database.GetDB().First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, apperr.NotFound("project not found"))
		}
		return respondError(c, apperr.Internal("failed to load project", err))
	}
	if !scope.ForPrincipal(principal).Contains(project.CompanyID) {
		return respondError(c, apperr.NotFound("project not found"))
	}

	var req struct {
		Name     *string `json:"name"`
		ClientID *uint   `json:"client_id"`
		IsActive *bool   `json:"is_active"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.Invalid("invalid request"))
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		if *req.Name == "" {
			return respondError(c, apperr.Invalid("name cannot be empty"))
		}
		updates["name"] = *req.Name
	}
	if req.ClientID != nil {
		var client model.Client
		if err := scope.Company(project.CompanyID).Apply(database.GetDB()).First(&client, *req.ClientID).Error; err != nil {
			return respondError(c, apperr.Invalid("client not found"))
		}
		updates["client_id"] = *req.ClientID
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if len(updates) > 0 {
		if err := database.GetDB().Model(&project).Updates(updates).Error; err != nil {
			log.Error("Failed to update project", zap.Error(err))
			return respondError(c, apperr.Internal("failed to update project", err))
		}
	}

	return respond(c, http.StatusOK, project)
}

// checkSoloCap rejects creation when a solo-plan company already holds a
// record of the given kind
func checkSoloCap(companyID *uint, dest interface{}, kind string) error {
	if companyID == nil {
		return nil
	}
	var company model.Company
	if err := database.GetDB().First(&company, *companyID).Error; err != nil {
		return apperr.Internal("failed to load company", err)
	}
	if !company.IsSolo() {
		return nil
	}
	var count int64
	if err := database.GetDB().Model(dest).Where("company_id = ?", *companyID).Count(&count).Error; err != nil {
		return apperr.Internal("failed to count existing records", err)
	}
	if count >= 1 {
		return apperr.Conflict("solo plan allows a single " + kind)
	}
	return nil
}
