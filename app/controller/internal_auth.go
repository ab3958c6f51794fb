package controller

import (
	"errors"
	"net/http"

	"github.com/vibast-solutions/ms-go-onlearn-auth/app/dto"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/middleware"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/service"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type accessTokenValidator interface {
	ValidateAccessToken(tokenString string) (*service.Claims, error)
}

// InternalAuthController serves sibling services that authenticate with an
// internal API key.
type InternalAuthController struct {
	tokens accessTokenValidator
}

func NewInternalAuthController(tokens accessTokenValidator) *InternalAuthController {
	return &InternalAuthController{tokens: tokens}
}

// ValidateToken resolves an access token on behalf of another service. An
// expired or forged token is a normal answer, not an error.
func (c *InternalAuthController) ValidateToken(ctx echo.Context) error {
	req, err := types.NewValidateTokenRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind validate token request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	caller, _ := ctx.Get(middleware.ContextKeyCallerService).(string)
	claims, err := c.tokens.ValidateAccessToken(req.AccessToken)
	if err != nil {
		if errors.Is(err, service.ErrTokenExpired) || errors.Is(err, service.ErrInvalidToken) {
			logrus.WithError(err).WithField("caller", caller).Debug("Internal token validation rejected")
			return ctx.JSON(http.StatusOK, &types.ValidateTokenResponse{Valid: false})
		}
		logrus.WithError(err).WithField("caller", caller).Error("Internal token validation failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	res := &types.ValidateTokenResponse{
		Valid:  true,
		UserID: claims.UserID,
		Role:   claims.Role.String(),
	}
	if claims.ExpiresAt != nil {
		expiresAt := claims.ExpiresAt.Time
		res.ExpiresAt = &expiresAt
	}
	return ctx.JSON(http.StatusOK, res)
}
