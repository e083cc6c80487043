package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"timetracker-service/internal/apperr"
	"timetracker-service/pkg/logger"
)

// respond writes the uniform success envelope
func respond(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, echo.Map{
		"success": true,
		"data":    data,
	})
}

// respondMessage writes the success envelope with an additional message
func respondMessage(c echo.Context, status int, data interface{}, message string) error {
	return c.JSON(status, echo.Map{
		"success": true,
		"data":    data,
		"message": message,
	})
}

// respondError maps an application error to its status code and writes the
// failure envelope. Internal errors are logged with their cause but render
// a generic message.
func respondError(c echo.Context, err error) error {
	status := apperr.HTTPStatus(err)
	if apperr.KindOf(err) == apperr.KindInternal {
		logger.FromContext(c).Error("Request failed", zap.Error(err))
	}
	return c.JSON(status, echo.Map{
		"success": false,
		"error":   apperr.UserMessage(err),
	})
}
