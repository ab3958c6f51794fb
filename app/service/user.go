package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vibast-solutions/ms-go-onlearn-auth/app/dto"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/entity"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/media"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/types"

	"github.com/sirupsen/logrus"
)

var ErrMediaUnavailable = errors.New("avatar uploads are not enabled")

type profileRepository interface {
	FindByID(ctx context.Context, id uint64) (*entity.User, error)
	UpdateProfile(ctx context.Context, user *entity.User) error
	UpdateAvatar(ctx context.Context, user *entity.User) error
	ListByRoles(ctx context.Context, roles []entity.Role, limit, offset int) ([]*entity.User, error)
	CountByRoles(ctx context.Context, roles []entity.Role) (int, error)
}

type mediaStore interface {
	Upload(ctx context.Context, upload media.Upload) (*media.Asset, error)
	Delete(ctx context.Context, publicID string) error
}

type UserService interface {
	GetProfile(ctx context.Context, userID uint64) (*entity.User, error)
	UpdateProfile(ctx context.Context, userID uint64, req *types.UpdateProfileRequest) (*entity.User, error)
	UploadAvatar(ctx context.Context, userID uint64, upload media.Upload) (*entity.User, error)
	ListUsers(ctx context.Context, req *types.ListUsersRequest) (*dto.UserPage, error)
	ListStudents(ctx context.Context, req *types.ListUsersRequest) (*dto.UserPage, error)
	ListInstructors(ctx context.Context, req *types.ListUsersRequest) (*dto.UserPage, error)
}

type userService struct {
	userRepo profileRepository
	media    mediaStore
}

// NewUserService builds the profile service. A nil store disables avatar
// uploads.
func NewUserService(userRepo profileRepository, store mediaStore) UserService {
	return &userService{userRepo: userRepo, media: store}
}

func (s *userService) GetProfile(ctx context.Context, userID uint64) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uint64, req *types.UpdateProfileRequest) (*entity.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Bio != nil {
		user.Bio = sql.NullString{String: *req.Bio, Valid: *req.Bio != ""}
	}

	if err = s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UploadAvatar stores the new image before touching the user row, and only
// removes the previous image once the row points at the new one.
func (s *userService) UploadAvatar(ctx context.Context, userID uint64, upload media.Upload) (*entity.User, error) {
	if s.media == nil {
		return nil, ErrMediaUnavailable
	}
	if err := upload.Validate(); err != nil {
		return nil, err
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	asset, err := s.media.Upload(ctx, upload)
	if err != nil {
		return nil, err
	}

	previous := user.AvatarPublicID
	user.AvatarURL = sql.NullString{String: asset.URL, Valid: true}
	user.AvatarPublicID = sql.NullString{String: asset.PublicID, Valid: true}

	if err = s.userRepo.UpdateAvatar(ctx, user); err != nil {
		if delErr := s.media.Delete(ctx, asset.PublicID); delErr != nil {
			logrus.WithError(delErr).WithField("public_id", asset.PublicID).Warn("failed to remove orphaned avatar")
		}
		return nil, err
	}

	if previous.Valid && previous.String != "" {
		if err = s.media.Delete(ctx, previous.String); err != nil {
			logrus.WithError(err).WithField("public_id", previous.String).Warn("failed to remove previous avatar")
		}
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, req *types.ListUsersRequest) (*dto.UserPage, error) {
	return s.list(ctx, req, entity.RoleStudent, entity.RoleInstructor)
}

func (s *userService) ListStudents(ctx context.Context, req *types.ListUsersRequest) (*dto.UserPage, error) {
	return s.list(ctx, req, entity.RoleStudent)
}

func (s *userService) ListInstructors(ctx context.Context, req *types.ListUsersRequest) (*dto.UserPage, error) {
	return s.list(ctx, req, entity.RoleInstructor)
}

// list reports ErrNoUsersFound for an empty page.
func (s *userService) list(ctx context.Context, req *types.ListUsersRequest, roles ...entity.Role) (*dto.UserPage, error) {
	users, err := s.userRepo.ListByRoles(ctx, roles, req.Limit, req.Offset())
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrNoUsersFound
	}

	total, err := s.userRepo.CountByRoles(ctx, roles)
	if err != nil {
		return nil, err
	}

	return &dto.UserPage{
		Users: users,
		Page:  req.Page,
		Limit: req.Limit,
		Total: total,
	}, nil
}
