package user

import "net/http"

// Principal is the authenticated caller as reported by the identity provider.
type Principal struct {
	UserID string
	Email  string
}

// Session is the outcome of refreshing the caller's session cookies. Cookies
// holds every Set-Cookie the refresh produced and must reach the response.
type Session struct {
	Principal   *Principal
	AccessToken string
	Cookies     []*http.Cookie
}

func (s Session) Authenticated() bool {
	return s.Principal != nil
}
