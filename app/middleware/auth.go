package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/vibast-solutions/ms-go-onlearn-auth/app/dto"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/entity"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/policy"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/service"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	ContextKeyUserID   = "user_id"
	ContextKeyUserRole = "user_role"
	ContextKeyClaims   = "claims"
)

type accessTokenValidator interface {
	ValidateAccessToken(tokenString string) (*service.Claims, error)
}

type sessionCookies interface {
	ClearSession(ctx echo.Context)
}

type AuthMiddleware struct {
	authService accessTokenValidator
	cookies     sessionCookies
}

func NewAuthMiddleware(authService accessTokenValidator, cookies sessionCookies) *AuthMiddleware {
	return &AuthMiddleware{authService: authService, cookies: cookies}
}

// RequireAuth admits requests carrying a valid access token cookie. An
// expired token is reported as such so the client knows to refresh; it is
// never refreshed here.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var tokenString string
		if cookie, err := c.Cookie(types.AccessTokenCookie); err == nil {
			tokenString = strings.TrimSpace(cookie.Value)
		}
		if tokenString == "" {
			logrus.Debug("Missing access token cookie")
			m.cookies.ClearSession(c)
			return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Please login to continue"})
		}

		claims, err := m.authService.ValidateAccessToken(tokenString)
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				logrus.Debug("Expired access token")
				return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "TokenExpired"})
			}
			logrus.WithField("ip", c.RealIP()).Debug("Invalid access token")
			m.cookies.ClearSession(c)
			return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Token is not valid"})
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyUserRole, claims.Role)
		c.Set(ContextKeyClaims, claims)

		return next(c)
	}
}

// RequireRole must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(p policy.Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(ContextKeyUserRole).(entity.Role)
			if !ok {
				return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "please login to continue"})
			}
			if !p.Allows(role) {
				logrus.WithFields(logrus.Fields{
					"user_id": c.Get(ContextKeyUserID),
					"role":    role,
					"policy":  p.Name(),
				}).Warn("Access denied by role policy")
				return c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: p.Message()})
			}
			return next(c)
		}
	}
}

// UserID returns the authenticated user's id set by RequireAuth.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ContextKeyUserID).(uint64)
	return id, ok
}
