package edge

import (
	"net/http"

	"github.com/valyala/bytebufferpool"
)

// ResponseAccumulator collects cookies produced while routing a request. Its
// Redirect, Rewrite and Next methods are the only ways the router finishes a
// request, and each one writes the collected cookies.
type ResponseAccumulator struct {
	cookies []*http.Cookie
}

func (a *ResponseAccumulator) Add(cookies ...*http.Cookie) {
	for _, c := range cookies {
		if c != nil && c.Name != "" {
			a.cookies = append(a.cookies, c)
		}
	}
}

func (a *ResponseAccumulator) Cookies() []*http.Cookie {
	return append([]*http.Cookie(nil), a.cookies...)
}

// Redirect answers with a 307 to location.
func (a *ResponseAccumulator) Redirect(w http.ResponseWriter, location string) {
	a.writeCookies(w)
	w.Header().Set("Location", location)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusTemporaryRedirect)
}

// Rewrite returns a copy of r addressed to path with the query kept. The
// response and the rewritten request both carry the collected cookies.
func (a *ResponseAccumulator) Rewrite(w http.ResponseWriter, r *http.Request, path string) *http.Request {
	out := a.Next(w, r)
	u := *out.URL
	u.Path = path
	u.RawPath = ""
	out.URL = &u
	out.RequestURI = u.RequestURI()
	return out
}

// Next passes the request through unchanged apart from cookies.
func (a *ResponseAccumulator) Next(w http.ResponseWriter, r *http.Request) *http.Request {
	a.writeCookies(w)
	out := r.Clone(r.Context())
	if len(a.cookies) > 0 {
		out.Header.Set("Cookie", a.mergeCookieHeader(r.Cookies()))
		if out.Header.Get("Cookie") == "" {
			out.Header.Del("Cookie")
		}
	}
	return out
}

func (a *ResponseAccumulator) writeCookies(w http.ResponseWriter) {
	for _, c := range a.cookies {
		if v := c.String(); v != "" {
			w.Header().Add("Set-Cookie", v)
		}
	}
}

// mergeCookieHeader rebuilds the request Cookie header so downstream handlers
// see refreshed values and no longer see cleared ones.
func (a *ResponseAccumulator) mergeCookieHeader(existing []*http.Cookie) string {
	latest := make(map[string]*http.Cookie, len(a.cookies))
	order := make([]string, 0, len(a.cookies))
	for _, c := range a.cookies {
		if _, seen := latest[c.Name]; !seen {
			order = append(order, c.Name)
		}
		latest[c.Name] = c
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	write := func(name, value string) {
		if buf.Len() > 0 {
			_, _ = buf.WriteString("; ")
		}
		_, _ = buf.WriteString(name)
		_ = buf.WriteByte('=')
		_, _ = buf.WriteString(value)
	}

	for _, c := range existing {
		if _, overridden := latest[c.Name]; overridden {
			continue
		}
		write(c.Name, c.Value)
	}
	for _, name := range order {
		c := latest[name]
		if c.MaxAge < 0 || c.Value == "" {
			continue
		}
		write(c.Name, c.Value)
	}
	return buf.String()
}
