package utils

import (
	"net/http"
	"time"
)

const TokenCookieName = "token"

// CookieOptions switches between same-site local development and the
// cross-site production deployment, where the browser requires Secure with
// SameSite=None.
type CookieOptions struct {
	Secure   bool
	SameSite http.SameSite
}

func NewCookieOptions(production bool) CookieOptions {
	if production {
		return CookieOptions{Secure: true, SameSite: http.SameSiteNoneMode}
	}
	return CookieOptions{Secure: false, SameSite: http.SameSiteStrictMode}
}

func (o CookieOptions) TokenCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(TokenTTL),
		MaxAge:   int(TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: o.SameSite,
	}
}

func (o CookieOptions) ClearedCookie() *http.Cookie {
	return &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: o.SameSite,
	}
}
