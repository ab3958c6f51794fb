package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/vibast-solutions/ms-go-onlearn-auth/app/validation"

	"github.com/labstack/echo/v4"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"

	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// OTPCode accepts the code as either a JSON string or a JSON number.
type OTPCode string

func (c *OTPCode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = OTPCode(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("otp must be a string or a number")
	}
	*c = OTPCode(n.String())
	return nil
}

func (c OTPCode) String() string {
	return string(c)
}

type RegisterRequest struct {
	FirstName string `json:"first_name" validate:"required,person_name"`
	LastName  string `json:"last_name" validate:"required,person_name"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,max=72"`
}

func NewRegisterRequestFromContext(ctx echo.Context) (*RegisterRequest, error) {
	var body RegisterRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.FirstName = strings.TrimSpace(body.FirstName)
	body.LastName = strings.TrimSpace(body.LastName)
	body.Email = strings.TrimSpace(body.Email)

	return &body, nil
}

func (r *RegisterRequest) Validate() error {
	return validation.Struct(r)
}

type VerifyEmailRequest struct {
	Email string  `json:"email" validate:"required,email"`
	OTP   OTPCode `json:"otp" validate:"required"`
}

func NewVerifyEmailRequestFromContext(ctx echo.Context) (*VerifyEmailRequest, error) {
	var body VerifyEmailRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Email = strings.TrimSpace(body.Email)

	return &body, nil
}

func (r *VerifyEmailRequest) Validate() error {
	return validation.Struct(r)
}

type ResendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func NewResendOTPRequestFromContext(ctx echo.Context) (*ResendOTPRequest, error) {
	var body ResendOTPRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Email = strings.TrimSpace(body.Email)

	return &body, nil
}

func (r *ResendOTPRequest) Validate() error {
	return validation.Struct(r)
}

// LoginRequest also carries the client fingerprint bound to the session.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

func NewLoginRequestFromContext(ctx echo.Context) (*LoginRequest, error) {
	var body LoginRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Email = strings.TrimSpace(body.Email)
	body.IPAddress = ctx.RealIP()
	body.UserAgent = ctx.Request().UserAgent()

	return &body, nil
}

func (r *LoginRequest) Validate() error {
	return validation.Struct(r)
}

type RefreshTokenRequest struct {
	RefreshToken string
	IPAddress    string
	UserAgent    string
}

// NewRefreshTokenRequestFromContext reads the refresh cookie. A missing
// cookie leaves RefreshToken empty.
func NewRefreshTokenRequestFromContext(ctx echo.Context) *RefreshTokenRequest {
	req := &RefreshTokenRequest{
		IPAddress: ctx.RealIP(),
		UserAgent: ctx.Request().UserAgent(),
	}
	if cookie, err := ctx.Cookie(RefreshTokenCookie); err == nil {
		req.RefreshToken = strings.TrimSpace(cookie.Value)
	}
	return req
}

func (r *RefreshTokenRequest) Validate() error {
	if r.RefreshToken == "" {
		return errors.New("please login to continue")
	}
	return nil
}

type ChangePasswordRequest struct {
	Password             string `json:"password" validate:"required,max=72"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required"`
}

func NewChangePasswordRequestFromContext(ctx echo.Context) (*ChangePasswordRequest, error) {
	var body ChangePasswordRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *ChangePasswordRequest) Validate() error {
	return validation.Struct(r)
}

type RequestPasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func NewRequestPasswordResetRequestFromContext(ctx echo.Context) (*RequestPasswordResetRequest, error) {
	var body RequestPasswordResetRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Email = strings.TrimSpace(body.Email)

	return &body, nil
}

func (r *RequestPasswordResetRequest) Validate() error {
	return validation.Struct(r)
}

type ResetPasswordRequest struct {
	Token                string `param:"token" json:"-" validate:"required"`
	Password             string `json:"password" validate:"required,max=72"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required"`
}

func NewResetPasswordRequestFromContext(ctx echo.Context) (*ResetPasswordRequest, error) {
	var body ResetPasswordRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Token = strings.TrimSpace(ctx.Param("token"))

	return &body, nil
}

func (r *ResetPasswordRequest) Validate() error {
	return validation.Struct(r)
}

// UpdateProfileRequest leaves nil fields untouched.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,person_name"`
	LastName  *string `json:"last_name" validate:"omitempty,person_name"`
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
}

func NewUpdateProfileRequestFromContext(ctx echo.Context) (*UpdateProfileRequest, error) {
	var body UpdateProfileRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	for _, field := range []*string{body.FirstName, body.LastName, body.Bio} {
		if field != nil {
			*field = strings.TrimSpace(*field)
		}
	}

	return &body, nil
}

func (r *UpdateProfileRequest) Validate() error {
	if r.FirstName == nil && r.LastName == nil && r.Bio == nil {
		return errors.New("at least one of first_name, last_name or bio is required")
	}
	return validation.Struct(r)
}

type ListUsersRequest struct {
	Page  int `json:"page" validate:"gte=1"`
	Limit int `json:"limit" validate:"gte=1,lte=100"`
}

// NewListUsersRequestFromContext applies page 1 and limit 10 when the query
// omits them or they are not numbers.
func NewListUsersRequestFromContext(ctx echo.Context) *ListUsersRequest {
	return &ListUsersRequest{
		Page:  queryInt(ctx, "page", DefaultPage),
		Limit: queryInt(ctx, "limit", DefaultLimit),
	}
}

func (r *ListUsersRequest) Validate() error {
	return validation.Struct(r)
}

func (r *ListUsersRequest) Offset() int {
	return (r.Page - 1) * r.Limit
}

type ValidateTokenRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
}

func NewValidateTokenRequestFromContext(ctx echo.Context) (*ValidateTokenRequest, error) {
	var body ValidateTokenRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.AccessToken = strings.TrimSpace(body.AccessToken)

	return &body, nil
}

func (r *ValidateTokenRequest) Validate() error {
	return validation.Struct(r)
}

func queryInt(ctx echo.Context, name string, defaultValue int) int {
	raw := strings.TrimSpace(ctx.QueryParam(name))
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return n
}
