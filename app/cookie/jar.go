package cookie

import (
	"net/http"
	"time"

	"github.com/vibast-solutions/ms-go-onlearn-auth/app/dto"
	"github.com/vibast-solutions/ms-go-onlearn-auth/app/types"
	"github.com/vibast-solutions/ms-go-onlearn-auth/config"

	"github.com/labstack/echo/v4"
)

// Jar writes and clears the session cookies. Both cookies are HttpOnly and
// SameSite=Strict; Secure follows configuration so local HTTP works.
type Jar struct {
	secure bool
	domain string
}

func NewJar(cfg config.CookieConfig) *Jar {
	return &Jar{secure: cfg.Secure, domain: cfg.Domain}
}

func (j *Jar) SetSession(ctx echo.Context, accessToken, refreshToken dto.SignedToken) {
	ctx.SetCookie(j.build(types.AccessTokenCookie, accessToken.Value, accessToken.ExpiresAt))
	ctx.SetCookie(j.build(types.RefreshTokenCookie, refreshToken.Value, refreshToken.ExpiresAt))
}

func (j *Jar) ClearSession(ctx echo.Context) {
	for _, name := range []string{types.AccessTokenCookie, types.RefreshTokenCookie} {
		c := j.build(name, "", time.Unix(0, 0))
		c.MaxAge = -1
		ctx.SetCookie(c)
	}
}

func (j *Jar) build(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   j.domain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteStrictMode,
	}
}
