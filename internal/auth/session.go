// Package auth persists the Overleaf session credential between command
// invocations. It performs no network validation; a stale cookie is only
// discovered when the remote channel rejects it.
package auth

import (
	"fmt"
	"strings"
	"time"
)

// Session is the credential obtained from a browser login: the opaque
// session cookie, the load-balancer affinity cookie required by the realtime
// channel, and the account it belongs to.
type Session struct {
	SessionCookie Cookie `json:"session_cookie"`
	GCLBCookie    Cookie `json:"gclb_cookie"`
	Email         string `json:"email"`
	CSRFToken     string `json:"csrf_token,omitempty"`
}

// Cookie is a minimal stored cookie. Expires is a unix timestamp in seconds;
// zero means no known expiry.
type Cookie struct {
	Name    string `json:"name"`
	Value   string `json:"value"`
	Expires int64  `json:"expires"`
}

// Expired reports whether the cookie carries an expiry in the past.
func (c *Cookie) Expired() bool {
	return c.Expires != 0 && time.Unix(c.Expires, 0).Before(time.Now())
}

// ExpiresAt returns the cookie expiry, or the zero time if unknown.
func (c *Cookie) ExpiresAt() time.Time {
	if c.Expires == 0 {
		return time.Time{}
	}
	return time.Unix(c.Expires, 0)
}

// CookieHeader renders the session cookies as a Cookie request header value
// in the order the realtime channel expects them.
func (s *Session) CookieHeader() string {
	return s.GCLBCookie.Name + "=" + s.GCLBCookie.Value + "; " +
		s.SessionCookie.Name + "=" + s.SessionCookie.Value
}

// Valid reports whether the session has a usable, unexpired session cookie.
func (s *Session) Valid() bool {
	return s.SessionCookie.Value != "" && !s.SessionCookie.Expired()
}

// ParseExpiry interprets a cookie expiry as entered at login: a plain date
// or an RFC3339 timestamp. Empty input means the expiry is unknown.
func ParseExpiry(input string) (int64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, nil
	}

	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if ts, err := time.Parse(layout, input); err == nil {
			return ts.Unix(), nil
		}
	}
	return 0, fmt.Errorf("auth: invalid expiry %q, want YYYY-MM-DD or RFC3339", input)
}
