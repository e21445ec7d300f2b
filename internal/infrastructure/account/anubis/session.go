package anubis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/riskibarqy/kickoff-dashboard/internal/domain/user"
	"github.com/riskibarqy/kickoff-dashboard/internal/usecase"
)

const (
	defaultAccessCookie      = "kickoff-access-token"
	defaultRefreshCookie     = "kickoff-refresh-token"
	defaultRefreshCookieLife = 30 * 24 * time.Hour
)

// CookieConfig names the session cookies and scopes them to the web domain so
// both the marketing site and the dashboard subdomain see them.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	Domain      string
	Secure      bool
}

func (c CookieConfig) normalize() CookieConfig {
	if strings.TrimSpace(c.AccessName) == "" {
		c.AccessName = defaultAccessCookie
	}
	if strings.TrimSpace(c.RefreshName) == "" {
		c.RefreshName = defaultRefreshCookie
	}
	c.Domain = strings.TrimPrefix(strings.TrimSpace(c.Domain), ".")
	return c
}

// Refresh resolves the caller's session from request cookies, exchanging the
// refresh token when the access token is no longer accepted. Cookies on the
// returned session must be written to the response. A non-nil error means the
// identity provider could not be consulted; the caller is unauthenticated.
func (c *Client) Refresh(ctx context.Context, r *http.Request) (user.Session, error) {
	accessToken := cookieValue(r, c.cookies.AccessName)
	refreshToken := cookieValue(r, c.cookies.RefreshName)
	if accessToken == "" && refreshToken == "" {
		return user.Session{}, nil
	}

	if accessToken != "" {
		principal, err := c.VerifyAccessToken(ctx, accessToken)
		if err == nil {
			return user.Session{Principal: &principal, AccessToken: accessToken}, nil
		}
		if !errors.Is(err, usecase.ErrUnauthorized) {
			return user.Session{}, fmt.Errorf("verify access token: %w", err)
		}
	}

	if refreshToken == "" {
		return user.Session{Cookies: []*http.Cookie{c.expiredCookie(c.cookies.AccessName)}}, nil
	}

	tokens, err := c.RefreshTokens(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, usecase.ErrUnauthorized) {
			c.logger.InfoContext(ctx, "session refresh rejected, clearing cookies")
			return user.Session{Cookies: c.clearedCookies()}, nil
		}
		return user.Session{}, fmt.Errorf("refresh session: %w", err)
	}

	cookies := c.sessionCookies(tokens)
	principal, err := c.VerifyAccessToken(ctx, tokens.AccessToken)
	if err != nil {
		if errors.Is(err, usecase.ErrUnauthorized) {
			return user.Session{Cookies: c.clearedCookies()}, nil
		}
		// The new tokens are still valid; keep them so the next request can retry.
		return user.Session{Cookies: cookies}, fmt.Errorf("verify refreshed access token: %w", err)
	}

	return user.Session{Principal: &principal, AccessToken: tokens.AccessToken, Cookies: cookies}, nil
}

func (c *Client) sessionCookies(tokens Tokens) []*http.Cookie {
	out := []*http.Cookie{c.cookie(c.cookies.AccessName, tokens.AccessToken, time.Duration(tokens.ExpiresIn)*time.Second)}
	if tokens.RefreshToken != "" {
		life := time.Duration(tokens.RefreshExpiresIn) * time.Second
		if life <= 0 {
			life = defaultRefreshCookieLife
		}
		out = append(out, c.cookie(c.cookies.RefreshName, tokens.RefreshToken, life))
	}
	return out
}

func (c *Client) clearedCookies() []*http.Cookie {
	return []*http.Cookie{
		c.expiredCookie(c.cookies.AccessName),
		c.expiredCookie(c.cookies.RefreshName),
	}
}

func (c *Client) cookie(name, value string, life time.Duration) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.cookies.Domain,
		HttpOnly: true,
		Secure:   c.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if life > 0 {
		cookie.MaxAge = int(life / time.Second)
	}
	return cookie
}

func (c *Client) expiredCookie(name string) *http.Cookie {
	cookie := c.cookie(name, "", 0)
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	return cookie
}

func cookieValue(r *http.Request, name string) string {
	if r == nil {
		return ""
	}
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}
