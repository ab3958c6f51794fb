package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/vibast-solutions/ms-go-onlearn-auth/app/dto"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	HeaderAPIKey            = "X-API-Key"
	ContextKeyCallerService = "caller_service"
)

type APIKeyMiddleware struct {
	authService service.InternalAuthService
}

func NewAPIKeyMiddleware(authService service.InternalAuthService) *APIKeyMiddleware {
	return &APIKeyMiddleware{authService: authService}
}

func (m *APIKeyMiddleware) RequireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		// Let CORS preflight pass.
		if c.Request().Method == http.MethodOptions {
			return next(c)
		}

		apiKey := strings.TrimSpace(c.Request().Header.Get(HeaderAPIKey))
		if apiKey == "" {
			logrus.Debug("Missing x-api-key header")
			return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
		}

		key, err := m.authService.ValidateInternalAPIKey(c.Request().Context(), apiKey)
		if err != nil {
			if errors.Is(err, service.ErrInvalidInternalAPIKey) {
				logrus.Debug("Invalid x-api-key header")
				return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
			}
			logrus.WithError(err).Error("API key validation failed")
			return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
		}

		c.Set(ContextKeyCallerService, key.ServiceName)
		return next(c)
	}
}
