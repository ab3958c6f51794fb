package controller

import (
	"errors"
	"net/http"

	"github.com/vibast-solutions/ms-go-onlearn-auth/app/cookie"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/dto"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/middleware"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/service"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type UserAuthController struct {
	userAuthService service.UserAuthService
	cookies         *cookie.Jar
}

func NewUserAuthController(userAuthService service.UserAuthService, cookies *cookie.Jar) *UserAuthController {
	return &UserAuthController{userAuthService: userAuthService, cookies: cookies}
}

func (c *UserAuthController) Register(ctx echo.Context) error {
	req, err := types.NewRegisterRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind register request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Register validation failed")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", req.Email).Info("Register request received")
	user, err := c.userAuthService.Register(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserExists):
			logrus.WithField("email", req.Email).Warn("Register failed: user already exists")
			return ctx.JSON(http.StatusConflict, dto.ErrorResponse{Error: "user already exists"})
		case errors.Is(err, service.ErrWeakPassword):
			logrus.WithField("email", req.Email).Warn("Register failed: weak password")
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, service.ErrOTPDelivery):
			logrus.WithField("email", req.Email).Warn("Register succeeded but OTP delivery failed")
			return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to send OTP"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Register failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User registered")

	return ctx.JSON(http.StatusCreated, &types.RegisterResponse{
		Message: "user created and please verify email",
		User:    types.NewUserResponse(user),
	})
}

func (c *UserAuthController) VerifyEmail(ctx echo.Context) error {
	req, err := types.NewVerifyEmailRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind verify request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Verify validation failed")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	if err = c.userAuthService.VerifyEmail(ctx.Request().Context(), req); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "User does not exist"})
		case errors.Is(err, service.ErrAlreadyVerified):
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "User is already verified"})
		case errors.Is(err, service.ErrOTPNotFound):
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "OTP has expired or not found"})
		case errors.Is(err, service.ErrOTPIncorrect):
			logrus.WithField("email", req.Email).Warn("Verify failed: incorrect OTP")
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "OTP provided is incorrect"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Verify failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("email", req.Email).Info("Email verified")
	return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: "OTP verified successfully"})
}

func (c *UserAuthController) ResendOTP(ctx echo.Context) error {
	req, err := types.NewResendOTPRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind resend otp request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Resend OTP validation failed")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	if err = c.userAuthService.ResendOTP(ctx.Request().Context(), req); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Please register the user first."})
		case errors.Is(err, service.ErrAlreadyVerified):
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "User is already verified."})
		case errors.Is(err, service.ErrOTPAlreadySent):
			logrus.WithField("email", req.Email).Warn("Resend OTP throttled")
			return ctx.JSON(http.StatusTooManyRequests, dto.ErrorResponse{Error: "Too many requests. Please wait before requesting a new OTP."})
		case errors.Is(err, service.ErrOTPDelivery):
			return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to send OTP"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Resend OTP failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: "OTP sent successfully"})
}

func (c *UserAuthController) Login(ctx echo.Context) error {
	req, err := types.NewLoginRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Login validation failed")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", req.Email).Info("Login request received")
	result, err := c.userAuthService.Login(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			logrus.WithField("email", req.Email).Warn("Login failed: invalid credentials")
			return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid credentials"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Login failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	c.cookies.SetSession(ctx, result.AccessToken, result.RefreshToken)

	logrus.WithField("user_id", result.User.ID).Info("Login successful")
	return ctx.JSON(http.StatusOK, types.NewLoginResponse("user login successfully", result))
}

func (c *UserAuthController) RefreshToken(ctx echo.Context) error {
	req := types.NewRefreshTokenRequestFromContext(ctx)
	if err := req.Validate(); err != nil {
		logrus.Debug("Refresh token cookie missing")
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: err.Error()})
	}

	result, err := c.userAuthService.RefreshToken(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionMismatch):
			c.cookies.ClearSession(ctx)
			return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Refresh token IP/User-Agent mismatch. Please login again."})
		case errors.Is(err, service.ErrTokenExpired),
			errors.Is(err, service.ErrInvalidToken),
			errors.Is(err, service.ErrSessionNotFound):
			logrus.WithError(err).WithField("ip", req.IPAddress).Debug("Refresh token rejected")
			return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "please login to continue"})
		}
		logrus.WithError(err).Error("Refresh token failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	c.cookies.SetSession(ctx, result.AccessToken, result.RefreshToken)

	logrus.WithField("user_id", result.User.ID).Debug("Tokens refreshed")
	return ctx.JSON(http.StatusOK, types.NewRefreshTokenResponse(result))
}

func (c *UserAuthController) Logout(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		logrus.Warn("Logout failed: missing user_id in context")
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "please login to continue"})
	}

	if err := c.userAuthService.Logout(ctx.Request().Context(), userID); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Logout failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	c.cookies.ClearSession(ctx)

	logrus.WithField("user_id", userID).Info("Logout successful")
	return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: "user logout successfully"})
}

func (c *UserAuthController) ChangePassword(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		logrus.Warn("Change password failed: missing user_id in context")
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "please login to continue"})
	}

	req, err := types.NewChangePasswordRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind change password request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("user_id", userID).Debug("Change password validation failed")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	if err = c.userAuthService.ChangePassword(ctx.Request().Context(), userID, req); err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordConfirmation), errors.Is(err, service.ErrWeakPassword):
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, service.ErrUserNotFound):
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Change password failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: "password changed successfully"})
}

func (c *UserAuthController) RequestPasswordReset(ctx echo.Context) error {
	req, err := types.NewRequestPasswordResetRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind password reset email request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Password reset email validation failed")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	if err = c.userAuthService.RequestPasswordReset(ctx.Request().Context(), req); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			logrus.WithField("email", req.Email).Debug("Password reset requested for unknown email")
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "please provide valid credentials"})
		case errors.Is(err, service.ErrResetDelivery):
			return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to send password reset email"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Password reset email failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: "password reset link has been sent, please check your email"})
}

func (c *UserAuthController) ResetPassword(ctx echo.Context) error {
	req, err := types.NewResetPasswordRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind reset password request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Reset password validation failed")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	if err = c.userAuthService.ResetPassword(ctx.Request().Context(), req); err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordConfirmation), errors.Is(err, service.ErrWeakPassword):
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, service.ErrTokenExpired):
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "password reset link has expired"})
		case errors.Is(err, service.ErrInvalidToken):
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "password reset link is not valid"})
		case errors.Is(err, service.ErrUserNotFound):
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
		}
		logrus.WithError(err).Error("Reset password failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	c.cookies.ClearSession(ctx)
	return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: "password reset successfully"})
}
