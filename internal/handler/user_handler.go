package handler

import (
	"net/http"
	"time"

	"timetracker-service/internal/apperr"
	"timetracker-service/internal/authz"
	"timetracker-service/internal/middleware"
	"timetracker-service/internal/model"
	"timetracker-service/pkg/database"
	"timetracker-service/pkg/logger"
	"timetracker-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// GetProfile returns the authenticated user's record
func GetProfile(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return respondError(c, apperr.Unauthenticated("authentication required"))
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if err := database.GetDB().First(&user, principal.UserID).Error; err != nil {
		return respondError(c, apperr.Internal("failed to load profile", err))
	}

	return respond(c, http.StatusOK, user)
}

// ChangePassword updates the authenticated user's password after verifying
// the current one
func ChangePassword(c echo.Context) error {
	log := logger.FromContext(c)

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return respondError(c, apperr.Unauthenticated("authentication required"))
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.Invalid("invalid request"))
	}
	if req.NewPassword == "" {
		return respondError(c, apperr.Invalid("new_password is required"))
	}

	var user model.User
	if err := database.GetDB().First(&user, principal.UserID).Error; err != nil {
		return respondError(c, apperr.Internal("failed to load user", err))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		prometheus.RecordAuthError("invalid_password")
		return respondError(c, apperr.Unauthenticated("current password is incorrect"))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return respondError(c, apperr.Internal("failed to hash password", err))
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&user).Update("password", string(hashed)).Error; err != nil {
		log.Error("Failed to update password", zap.Error(err))
		return respondError(c, apperr.Internal("failed to update password", err))
	}

	log.Info("Password changed", zap.Uint("user_id", user.ID))
	return respondMessage(c, http.StatusOK, nil, "password changed")
}

// CreateUser adds a user to the principal's company. Admin and up; the
// company member cap is enforced here.
func CreateUser(c echo.Context) error {
	log := logger.FromContext(c)

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return respondError(c, apperr.Unauthenticated("authentication required"))
	}
	if !authz.CanManageCompany(principal) {
		return respondError(c, apperr.Forbidden("not allowed to manage users"))
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Role     string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.Invalid("invalid request"))
	}
	if req.Email == "" || req.Password == "" {
		return respondError(c, apperr.Invalid("email and password are required"))
	}

	role := req.Role
	if role == "" {
		role = model.RoleEmployee
	}
	if !model.ValidRole(role) {
		return respondError(c, apperr.Invalid("unknown role"))
	}
	// Only root may mint root accounts or place users outside its company
	if role == model.RoleRoot && !principal.IsRoot() {
		return respondError(c, apperr.Forbidden("not allowed to create root users"))
	}

	// Enforce the member cap for capped plans
	if principal.CompanyID != nil {
		var company model.Company
		if err := database.GetDB().First(&company, *principal.CompanyID).Error; err != nil {
			return respondError(c, apperr.Internal("failed to load company", err))
		}
		if company.MaxMembers > 0 {
			var count int64
			if err := database.GetDB().Model(&model.User{}).
				Where("company_id = ?", *principal.CompanyID).
				Count(&count).Error; err != nil {
				return respondError(c, apperr.Internal("failed to count members", err))
			}
			if count >= int64(company.MaxMembers) {
				return respondError(c, apperr.Conflict("company member limit reached"))
			}
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return respondError(c, apperr.Internal("failed to hash password", err))
	}

	user := model.User{
		Email:     req.Email,
		Password:  string(hashed),
		Name:      req.Name,
		Role:      role,
		CompanyID: principal.CompanyID,
		Active:    true,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&user); result.Error != nil {
		log.Error("Failed to create user", zap.Error(result.Error))
		return respondError(c, apperr.Conflict("email already registered"))
	}

	log.Info("User created",
		zap.String("email", user.Email),
		zap.String("role", user.Role))

	return respond(c, http.StatusCreated, user)
}
