package security

import (
	"net"
	"net/http"
	"strings"
	"time"
)

const SessionCookieName = "session_id"

// SecureCookieForHost decides whether session cookies for the given serving
// host must carry the Secure attribute. Local development hosts (localhost
// and loopback addresses in any spelling) are the only exception; every
// other host is assumed to sit behind TLS. The decision is recomputed at
// set-cookie time and never persisted, so the same session works whether it
// is reached through a development or production frontend.
func SecureCookieForHost(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	if h == "" {
		return true
	}
	if stripped, _, err := net.SplitHostPort(h); err == nil {
		h = stripped
	}
	h = strings.Trim(h, "[]")
	if h == "localhost" || strings.HasSuffix(h, ".localhost") {
		return false
	}
	if ip := net.ParseIP(h); ip != nil && ip.IsLoopback() {
		return false
	}
	return true
}

// SetSessionCookie writes the session identifier cookie with the attributes
// the session layer guarantees: HttpOnly, SameSite=Lax, host-derived Secure,
// and an expiry matching the session TTL.
func SetSessionCookie(w http.ResponseWriter, host, sessionID string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   SecureCookieForHost(host),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
	})
}

func ClearSessionCookie(w http.ResponseWriter, host string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   SecureCookieForHost(host),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func GetCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
