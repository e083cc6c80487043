package middleware

import (
	"net/http"
	"strings"

	"timetracker-service/internal/authz"
	"timetracker-service/internal/model"
	"timetracker-service/pkg/database"
	"timetracker-service/pkg/jwtutil"
	"timetracker-service/pkg/logger"
	"timetracker-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const principalKey = "principal"

// AuthMiddleware validates the bearer token, loads the backing user record
// and attaches the resulting principal to the request context. Inactive
// users and users of deactivated companies are rejected even with a valid
// token.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return unauthorized(c, "missing authorization token")
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return unauthorized(c, "invalid authorization format, expected Bearer token")
		}

		// Validate the token
		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Warn("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return unauthorized(c, "invalid or expired token")
		}

		// The token subject must still reference a live account
		var user model.User
		if err := database.GetDB().First(&user, claims.UserID).Error; err != nil {
			log.Warn("Token references unknown user", zap.Uint("user_id", claims.UserID))
			prometheus.RecordAuthError("unknown_user")
			return unauthorized(c, "invalid or expired token")
		}
		if !user.Active {
			log.Warn("Inactive user attempted access", zap.Uint("user_id", user.ID))
			prometheus.RecordAuthError("inactive_user")
			return unauthorized(c, "account is deactivated")
		}

		if user.CompanyID != nil {
			var company model.Company
			if err := database.GetDB().First(&company, *user.CompanyID).Error; err != nil || !company.IsActive {
				log.Warn("User of inactive company attempted access",
					zap.Uint("user_id", user.ID),
					zap.Uint("company_id", *user.CompanyID))
				prometheus.RecordAuthError("inactive_company")
				return unauthorized(c, "company is deactivated")
			}
		}

		principal := authz.Principal{
			UserID:    user.ID,
			Email:     user.Email,
			Role:      user.Role,
			CompanyID: user.CompanyID,
		}
		c.Set(principalKey, principal)

		log.Debug("Request authenticated",
			zap.Uint("user_id", principal.UserID),
			zap.String("role", principal.Role))

		return next(c)
	}
}

// GetPrincipal retrieves the authenticated principal from the context
func GetPrincipal(c echo.Context) (authz.Principal, bool) {
	principal, ok := c.Get(principalKey).(authz.Principal)
	return principal, ok
}

func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{
		"success": false,
		"error":   message,
	})
}
