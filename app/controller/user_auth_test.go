package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-onlearn-auth/app/controller"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/cookie"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/dto"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/entity"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/middleware"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/service"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/types"
	"github.com/vibast-solutions/ms-go-onlearn-auth/config"

	"github.com/labstack/echo/v4"
)

// fakeUserAuth implements only the methods a test wires; anything else
// panics through the nil embedded interface.
type fakeUserAuth struct {
	service.UserAuthService

	register       func(*types.RegisterRequest) (*entity.User, error)
	verifyEmail    func(*types.VerifyEmailRequest) error
	resendOTP      func(*types.ResendOTPRequest) error
	login          func(*types.LoginRequest) (*dto.AuthResult, error)
	refresh        func(*types.RefreshTokenRequest) (*dto.AuthResult, error)
	logout         func(uint64) error
	changePassword func(uint64, *types.ChangePasswordRequest) error
	requestReset   func(*types.RequestPasswordResetRequest) error
	resetPassword  func(*types.ResetPasswordRequest) error
}

func (f *fakeUserAuth) Register(_ context.Context, req *types.RegisterRequest) (*entity.User, error) {
	return f.register(req)
}

func (f *fakeUserAuth) VerifyEmail(_ context.Context, req *types.VerifyEmailRequest) error {
	return f.verifyEmail(req)
}

func (f *fakeUserAuth) ResendOTP(_ context.Context, req *types.ResendOTPRequest) error {
	return f.resendOTP(req)
}

func (f *fakeUserAuth) Login(_ context.Context, req *types.LoginRequest) (*dto.AuthResult, error) {
	return f.login(req)
}

func (f *fakeUserAuth) RefreshToken(_ context.Context, req *types.RefreshTokenRequest) (*dto.AuthResult, error) {
	return f.refresh(req)
}

func (f *fakeUserAuth) Logout(_ context.Context, userID uint64) error {
	return f.logout(userID)
}

func (f *fakeUserAuth) ChangePassword(_ context.Context, userID uint64, req *types.ChangePasswordRequest) error {
	return f.changePassword(userID, req)
}

func (f *fakeUserAuth) RequestPasswordReset(_ context.Context, req *types.RequestPasswordResetRequest) error {
	return f.requestReset(req)
}

func (f *fakeUserAuth) ResetPassword(_ context.Context, req *types.ResetPasswordRequest) error {
	return f.resetPassword(req)
}

func newUserAuthController(svc *fakeUserAuth) *controller.UserAuthController {
	return controller.NewUserAuthController(svc, cookie.NewJar(config.CookieConfig{Secure: true}))
}

func newJSONRequest(t *testing.T, method, path string, body any) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response json: %v", err)
	}
	return body.Error
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body types.MessageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response json: %v", err)
	}
	return body.Message
}

func responseCookies(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := make(map[string]*http.Cookie)
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func testAuthResult() *dto.AuthResult {
	now := time.Now()
	return &dto.AuthResult{
		User: &entity.User{
			ID:              7,
			Email:           "ada@example.com",
			PasswordHash:    "hash",
			FirstName:       "Ada",
			LastName:        "Lovelace",
			Role:            entity.RoleStudent,
			IsEmailVerified: true,
			IsActive:        true,
		},
		AccessToken:  dto.SignedToken{Value: "access-token", ExpiresAt: now.Add(15 * time.Minute)},
		RefreshToken: dto.SignedToken{Value: "refresh-token", ExpiresAt: now.Add(7 * 24 * time.Hour)},
	}
}

func TestRegister_Success(t *testing.T) {
	svc := &fakeUserAuth{
		register: func(req *types.RegisterRequest) (*entity.User, error) {
			if req.Email != "ada@example.com" || req.FirstName != "Ada" {
				t.Fatalf("unexpected request: %+v", req)
			}
			return &entity.User{ID: 1, Email: req.Email, PasswordHash: "hash", FirstName: req.FirstName, LastName: req.LastName, Role: entity.RoleStudent}, nil
		},
	}

	req, rec := newJSONRequest(t, http.MethodPost, "/auth/register", map[string]string{
		"first_name": " Ada ",
		"last_name":  "Lovelace",
		"email":      "ada@example.com",
		"password":   "Sup3r$ecret",
	})
	ctx := echo.New().NewContext(req, rec)

	if err := newUserAuthController(svc).Register(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response json: %v", err)
	}
	if body["message"] != "user created and please verify email" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
	user, ok := body["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user object, got %v", body["user"])
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Fatalf("password hash must not be exposed")
	}
	if user["role"] != "student" {
		t.Fatalf("expected student role, got %v", user["role"])
	}
}

func TestRegister_ValidationFailure(t *testing.T) {
	svc := &fakeUserAuth{}

	req, rec := newJSONRequest(t, http.MethodPost, "/auth/register", map[string]string{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "not-an-email",
		"password":   "Sup3r$ecret",
	})
	ctx := echo.New().NewContext(req, rec)

	if err := newUserAuthController(svc).Register(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestRegister_ServiceErrors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"exists", service.ErrUserExists, http.StatusConflict, "user already exists"},
		{"weak password", errors.Join(service.ErrWeakPassword, errors.New("too short")), http.StatusBadRequest, ""},
		{"otp delivery", service.ErrOTPDelivery, http.StatusInternalServerError, "Failed to send OTP"},
		{"unexpected", errors.New("db down"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeUserAuth{
				register: func(*types.RegisterRequest) (*entity.User, error) { return nil, tc.err },
			}
			req, rec := newJSONRequest(t, http.MethodPost, "/auth/register", map[string]string{
				"first_name": "Ada",
				"last_name":  "Lovelace",
				"email":      "ada@example.com",
				"password":   "Sup3r$ecret",
			})
			ctx := echo.New().NewContext(req, rec)

			if err := newUserAuthController(svc).Register(ctx); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rec.Code)
			}
			if tc.message != "" {
				if got := decodeError(t, rec); got != tc.message {
					t.Fatalf("expected %q, got %q", tc.message, got)
				}
			}
		})
	}
}

func TestVerifyEmail_AcceptsNumericOTP(t *testing.T) {
	svc := &fakeUserAuth{
		verifyEmail: func(req *types.VerifyEmailRequest) error {
			if req.OTP.String() != "123456" {
				t.Fatalf("expected otp 123456, got %q", req.OTP)
			}
			return nil
		},
	}

	req, rec := newJSONRequest(t, http.MethodPost, "/auth/verify", map[string]any{
		"email": "ada@example.com",
		"otp":   123456,
	})
	ctx := echo.New().NewContext(req, rec)

	if err := newUserAuthController(svc).VerifyEmail(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeMessage(t, rec); got != "OTP verified successfully" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestVerifyEmail_ServiceErrors(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{service.ErrUserNotFound, http.StatusNotFound, "User does not exist"},
		{service.ErrAlreadyVerified, http.StatusBadRequest, "User is already verified"},
		{service.ErrOTPNotFound, http.StatusNotFound, "OTP has expired or not found"},
		{service.ErrOTPIncorrect, http.StatusBadRequest, "OTP provided is incorrect"},
	}

	for _, tc := range cases {
		t.Run(tc.message, func(t *testing.T) {
			svc := &fakeUserAuth{
				verifyEmail: func(*types.VerifyEmailRequest) error { return tc.err },
			}
			req, rec := newJSONRequest(t, http.MethodPost, "/auth/verify", map[string]any{
				"email": "ada@example.com",
				"otp":   "123456",
			})
			ctx := echo.New().NewContext(req, rec)

			if err := newUserAuthController(svc).VerifyEmail(ctx); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rec.Code)
			}
			if got := decodeError(t, rec); got != tc.message {
				t.Fatalf("expected %q, got %q", tc.message, got)
			}
		})
	}
}

func TestResendOTP_ServiceErrors(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{service.ErrUserNotFound, http.StatusNotFound, "Please register the user first."},
		{service.ErrAlreadyVerified, http.StatusBadRequest, "User is already verified."},
		{service.ErrOTPAlreadySent, http.StatusTooManyRequests, "Too many requests. Please wait before requesting a new OTP."},
		{service.ErrOTPDelivery, http.StatusInternalServerError, "Failed to send OTP"},
	}

	for _, tc := range cases {
		t.Run(tc.message, func(t *testing.T) {
			svc := &fakeUserAuth{
				resendOTP: func(*types.ResendOTPRequest) error { return tc.err },
			}
			req, rec := newJSONRequest(t, http.MethodPost, "/auth/resend-otp", map[string]string{"email": "ada@example.com"})
			ctx := echo.New().NewContext(req, rec)

			if err := newUserAuthController(svc).ResendOTP(ctx); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rec.Code)
			}
			if got := decodeError(t, rec); got != tc.message {
				t.Fatalf("expected %q, got %q", tc.message, got)
			}
		})
	}
}

func TestResendOTP_Success(t *testing.T) {
	svc := &fakeUserAuth{resendOTP: func(*types.ResendOTPRequest) error { return nil }}
	req, rec := newJSONRequest(t, http.MethodPost, "/auth/resend-otp", map[string]string{"email": "ada@example.com"})
	ctx := echo.New().NewContext(req, rec)

	if err := newUserAuthController(svc).ResendOTP(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := decodeMessage(t, rec); got != "OTP sent successfully" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestLogin_SetsSessionCookies(t *testing.T) {
	result := testAuthResult()
	svc := &fakeUserAuth{
		login: func(req *types.LoginRequest) (*dto.AuthResult, error) {
			if req.IPAddress == "" || req.UserAgent != "Mozilla/5.0" {
				t.Fatalf("expected client fingerprint, got %+v", req)
			}
			return result, nil
		},
	}

	req, rec := newJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": "Sup3r$ecret",
	})
	req.Header.Set("User-Agent", "Mozilla/5.0")
	ctx := echo.New().NewContext(req, rec)

	if err := newUserAuthController(svc).Login(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	cookies := responseCookies(rec)
	access, ok := cookies[types.AccessTokenCookie]
	if !ok || access.Value != "access-token" || !access.HttpOnly || !access.Secure {
		t.Fatalf("unexpected access cookie: %+v", access)
	}
	refresh, ok := cookies[types.RefreshTokenCookie]
	if !ok || refresh.Value != "refresh-token" || refresh.SameSite != http.SameSiteStrictMode {
		t.Fatalf("unexpected refresh cookie: %+v", refresh)
	}

	var body types.LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response json: %v", err)
	}
	if body.AccessToken != "access-token" || body.User == nil || body.User.ID != 7 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestLogin_ServiceErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			svc := &fakeUserAuth{
				login: func(*types.LoginRequest) (*dto.AuthResult, error) { return nil, tc.err },
			}
			req, rec := newJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{
				"email":    "ada@example.com",
				"password": "wrong",
			})
			ctx := echo.New().NewContext(req, rec)

			if err := newUserAuthController(svc).Login(ctx); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rec.Code)
			}
			if len(rec.Result().Cookies()) != 0 {
				t.Fatalf("no cookies expected on failed login")
			}
		})
	}
}

func TestRefreshToken_MissingCookie(t *testing.T) {
	svc := &fakeUserAuth{}
	req := httptest.NewRequest(http.MethodGet, "/auth/refresh-token", nil)
	rec := httptest.NewRecorder()
	ctx := echo.New().NewContext(req, rec)

	if err := newUserAuthController(svc).RefreshToken(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	if got := decodeError(t, rec); got != "please login to continue" {
		t.Fatalf("unexpected error %q", got)
	}
}

func TestRefreshToken_Success(t *testing.T) {
	result := testAuthResult()
	svc := &fakeUserAuth{
		refresh: func(req *types.RefreshTokenRequest) (*dto.AuthResult, error) {
			if req.RefreshToken != "old-refresh" {
				t.Fatalf("expected cookie value, got %q", req.RefreshToken)
			}
			return result, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: types.RefreshTokenCookie, Value: "old-refresh"})
	rec := httptest.NewRecorder()
	ctx := echo.New().NewContext(req, rec)

	if err := newUserAuthController(svc).RefreshToken(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := decodeMessage(t, rec); got != "tokens updated successfully" {
		t.Fatalf("unexpected message %q", got)
	}
	if responseCookies(rec)[types.RefreshTokenCookie].Value != "refresh-token" {
		t.Fatalf("expected rotated refresh cookie")
	}
}

func TestRefreshToken_FingerprintMismatchClearsCookies(t *testing.T) {
	svc := &fakeUserAuth{
		refresh: func(*types.RefreshTokenRequest) (*dto.AuthResult, error) { return nil, service.ErrSessionMismatch },
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: types.RefreshTokenCookie, Value: "stolen"})
	rec := httptest.NewRecorder()
	ctx := echo.New().NewContext(req, rec)

	if err := newUserAuthController(svc).RefreshToken(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	if got := decodeError(t, rec); got != "Refresh token IP/User-Agent mismatch. Please login again." {
		t.Fatalf("unexpected error %q", got)
	}
	cookies := responseCookies(rec)
	for _, name := range []string{types.AccessTokenCookie, types.RefreshTokenCookie} {
		if c, ok := cookies[name]; !ok || c.MaxAge != -1 {
			t.Fatalf("expected %s to be cleared, got %+v", name, c)
		}
	}
}

func TestRefreshToken_RejectedTokens(t *testing.T) {
	for _, svcErr := range []error{service.ErrTokenExpired, service.ErrInvalidToken, service.ErrSessionNotFound} {
		t.Run(svcErr.Error(), func(t *testing.T) {
			svc := &fakeUserAuth{
				refresh: func(*types.RefreshTokenRequest) (*dto.AuthResult, error) { return nil, svcErr },
			}
			req := httptest.NewRequest(http.MethodGet, "/auth/refresh-token", nil)
			req.AddCookie(&http.Cookie{Name: types.RefreshTokenCookie, Value: "old"})
			rec := httptest.NewRecorder()
			ctx := echo.New().NewContext(req, rec)

			if err := newUserAuthController(svc).RefreshToken(ctx); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected status 401, got %d", rec.Code)
			}
		})
	}
}

func TestLogout_ClearsCookies(t *testing.T) {
	var loggedOut uint64
	svc := &fakeUserAuth{
		logout: func(userID uint64) error {
			loggedOut = userID
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	ctx := echo.New().NewContext(req, rec)
	ctx.Set(middleware.ContextKeyUserID, uint64(7))

	if err := newUserAuthController(svc).Logout(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if loggedOut != 7 {
		t.Fatalf("expected logout for user 7, got %d", loggedOut)
	}
	if got := decodeMessage(t, rec); got != "user logout successfully" {
		t.Fatalf("unexpected message %q", got)
	}
	if c := responseCookies(rec)[types.AccessTokenCookie]; c == nil || c.MaxAge != -1 {
		t.Fatalf("expected access cookie to be cleared")
	}
}

func TestLogout_MissingIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	ctx := echo.New().NewContext(req, rec)

	if err := newUserAuthController(&fakeUserAuth{}).Logout(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestChangePassword(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"success", nil, http.StatusOK},
		{"confirmation mismatch", service.ErrPasswordConfirmation, http.StatusBadRequest},
		{"weak password", service.ErrWeakPassword, http.StatusBadRequest},
		{"user gone", service.ErrUserNotFound, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeUserAuth{
				changePassword: func(userID uint64, _ *types.ChangePasswordRequest) error {
					if userID != 7 {
						t.Fatalf("expected user 7, got %d", userID)
					}
					return tc.err
				},
			}
			req, rec := newJSONRequest(t, http.MethodPost, "/auth/change-password", map[string]string{
				"password":              "N3w$ecret!",
				"password_confirmation": "N3w$ecret!",
			})
			ctx := echo.New().NewContext(req, rec)
			ctx.Set(middleware.ContextKeyUserID, uint64(7))

			if err := newUserAuthController(svc).ChangePassword(ctx); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rec.Code)
			}
		})
	}
}

func TestRequestPasswordReset(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"unknown email", service.ErrUserNotFound, http.StatusBadRequest, "please provide valid credentials"},
		{"delivery", service.ErrResetDelivery, http.StatusInternalServerError, "Failed to send password reset email"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeUserAuth{requestReset: func(*types.RequestPasswordResetRequest) error { return tc.err }}
			req, rec := newJSONRequest(t, http.MethodPost, "/auth/reset-password-email", map[string]string{"email": "ada@example.com"})
			ctx := echo.New().NewContext(req, rec)

			if err := newUserAuthController(svc).RequestPasswordReset(ctx); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rec.Code)
			}
			if got := decodeError(t, rec); got != tc.message {
				t.Fatalf("expected %q, got %q", tc.message, got)
			}
		})
	}

	svc := &fakeUserAuth{requestReset: func(*types.RequestPasswordResetRequest) error { return nil }}
	req, rec := newJSONRequest(t, http.MethodPost, "/auth/reset-password-email", map[string]string{"email": "ada@example.com"})
	ctx := echo.New().NewContext(req, rec)
	if err := newUserAuthController(svc).RequestPasswordReset(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got := decodeMessage(t, rec); got != "password reset link has been sent, please check your email" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestResetPassword_ReadsTokenFromPath(t *testing.T) {
	svc := &fakeUserAuth{
		resetPassword: func(req *types.ResetPasswordRequest) error {
			if req.Token != "reset-token" {
				t.Fatalf("expected token from path, got %q", req.Token)
			}
			return nil
		},
	}

	req, rec := newJSONRequest(t, http.MethodPost, "/auth/verify-reset-password/reset-token", map[string]string{
		"password":              "N3w$ecret!",
		"password_confirmation": "N3w$ecret!",
	})
	ctx := echo.New().NewContext(req, rec)
	ctx.SetPath("/auth/verify-reset-password/:token")
	ctx.SetParamNames("token")
	ctx.SetParamValues("reset-token")

	if err := newUserAuthController(svc).ResetPassword(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeMessage(t, rec); got != "password reset successfully" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestResetPassword_ServiceErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{service.ErrPasswordConfirmation, http.StatusBadRequest},
		{service.ErrTokenExpired, http.StatusBadRequest},
		{service.ErrInvalidToken, http.StatusBadRequest},
		{service.ErrUserNotFound, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			svc := &fakeUserAuth{resetPassword: func(*types.ResetPasswordRequest) error { return tc.err }}
			req, rec := newJSONRequest(t, http.MethodPost, "/auth/verify-reset-password/tok", map[string]string{
				"password":              "N3w$ecret!",
				"password_confirmation": "N3w$ecret!",
			})
			ctx := echo.New().NewContext(req, rec)
			ctx.SetPath("/auth/verify-reset-password/:token")
			ctx.SetParamNames("token")
			ctx.SetParamValues("tok")

			if err := newUserAuthController(svc).ResetPassword(ctx); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rec.Code)
			}
		})
	}
}
