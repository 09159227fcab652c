// Package cookies keeps an HTTP cookie jar whose contents survive between
// runs.
package cookies

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Cookie represents a stored cookie with all attributes.
type Cookie struct {
	Domain   string    `json:"domain"`
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"httpOnly,omitempty"`
	SameSite string    `json:"sameSite,omitempty"`
	Expires  time.Time `json:"expires,omitzero"`
}

// key identifies a cookie within the jar.
func (c Cookie) key() string {
	return c.Domain + "|" + c.Path + "|" + c.Name
}

// IsExpired reports whether the cookie has expired at now.
func (c Cookie) IsExpired(now time.Time) bool {
	if c.Expires.IsZero() {
		return false // Session cookie, never expires
	}
	return now.After(c.Expires)
}

// IsSession returns true if this is a session cookie (no expiration).
func (c Cookie) IsSession() bool {
	return c.Expires.IsZero()
}

// ToHTTPCookie converts to standard http.Cookie.
func (c Cookie) ToHTTPCookie() *http.Cookie {
	sameSite := http.SameSiteDefaultMode
	switch c.SameSite {
	case "lax":
		sameSite = http.SameSiteLaxMode
	case "strict":
		sameSite = http.SameSiteStrictMode
	case "none":
		sameSite = http.SameSiteNoneMode
	}

	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Secure:   c.Secure,
		HttpOnly: c.HttpOnly,
		SameSite: sameSite,
		Expires:  c.Expires,
	}
}

// FromHTTPCookie creates a Cookie from a cookie set by a response to u.
// A negative MaxAge yields a cookie already expired at now.
func FromHTTPCookie(u *url.URL, hc *http.Cookie, now time.Time) Cookie {
	domain := strings.TrimPrefix(hc.Domain, ".")
	if domain == "" {
		domain = u.Hostname()
	}

	path := hc.Path
	if path == "" {
		path = "/"
	}

	sameSite := ""
	switch hc.SameSite {
	case http.SameSiteLaxMode:
		sameSite = "lax"
	case http.SameSiteStrictMode:
		sameSite = "strict"
	case http.SameSiteNoneMode:
		sameSite = "none"
	}

	expires := hc.Expires
	if hc.MaxAge > 0 {
		expires = now.Add(time.Duration(hc.MaxAge) * time.Second)
	} else if hc.MaxAge < 0 {
		expires = time.Unix(0, 0).UTC()
	}

	return Cookie{
		Domain:   domain,
		Path:     path,
		Name:     hc.Name,
		Value:    hc.Value,
		Secure:   hc.Secure,
		HttpOnly: hc.HttpOnly,
		SameSite: sameSite,
		Expires:  expires,
	}
}
