package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/vibast-solutions/ms-go-onlearn-auth/app/dto"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/media"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/middleware"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/service"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const avatarFormField = "file"

type UserController struct {
	userService service.UserService
}

func NewUserController(userService service.UserService) *UserController {
	return &UserController{userService: userService}
}

func (c *UserController) GetProfile(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "please login to continue"})
	}

	user, err := c.userService.GetProfile(ctx.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Get profile failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, &types.ProfileResponse{User: types.NewUserResponse(user)})
}

func (c *UserController) UpdateProfile(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "please login to continue"})
	}

	req, err := types.NewUpdateProfileRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind update profile request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("user_id", userID).Debug("Update profile validation failed")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	user, err := c.userService.UpdateProfile(ctx.Request().Context(), userID, req)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Update profile failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("user_id", userID).Info("Profile updated")
	return ctx.JSON(http.StatusOK, &types.ProfileResponse{User: types.NewUserResponse(user)})
}

func (c *UserController) UploadAvatar(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "please login to continue"})
	}

	header, err := ctx.FormFile(avatarFormField)
	if err != nil {
		logrus.WithError(err).Debug("Avatar upload without file")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "please upload a file"})
	}
	if header.Size > media.MaxUploadSize {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: media.ErrFileTooLarge.Error()})
	}

	file, err := header.Open()
	if err != nil {
		logrus.WithError(err).Error("Failed to open uploaded avatar")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}
	defer file.Close()

	user, err := c.userService.UploadAvatar(ctx.Request().Context(), userID, media.Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get(echo.HeaderContentType),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		switch {
		case errors.Is(err, media.ErrEmptyFile),
			errors.Is(err, media.ErrFileTooLarge),
			errors.Is(err, media.ErrUnsupportedType):
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, service.ErrMediaUnavailable):
			return ctx.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, service.ErrUserNotFound):
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Avatar upload failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("user_id", userID).Info("Avatar updated")
	return ctx.JSON(http.StatusOK, &types.AvatarResponse{
		Message: "avatar updated successfully",
		Avatar:  types.NewUserResponse(user).Avatar,
	})
}

func (c *UserController) ListUsers(ctx echo.Context) error {
	return c.list(ctx, "users", c.userService.ListUsers)
}

func (c *UserController) ListStudents(ctx echo.Context) error {
	return c.list(ctx, "students", c.userService.ListStudents)
}

func (c *UserController) ListInstructors(ctx echo.Context) error {
	return c.list(ctx, "instructors", c.userService.ListInstructors)
}

type listFunc func(ctx context.Context, req *types.ListUsersRequest) (*dto.UserPage, error)

func (c *UserController) list(ctx echo.Context, kind string, fetch listFunc) error {
	req := types.NewListUsersRequestFromContext(ctx)
	if err := req.Validate(); err != nil {
		logrus.WithField("kind", kind).Debug("List validation failed")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	page, err := fetch(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrNoUsersFound) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "No " + kind + " found"})
		}
		logrus.WithError(err).WithField("kind", kind).Error("List failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, types.NewUserListResponse(page))
}
