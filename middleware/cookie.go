package middleware

import (
	"net/http"
	"strings"
	"time"

	goImpersonate "github.com/MrEthical07/goImpersonate"
)

// CookieOptions controls how the impersonation credential cookie is written.
// The zero value produces a host-only, Secure, HttpOnly, SameSite=Lax cookie
// rooted at "/", which is what the default "__Host-" cookie name requires.
type CookieOptions struct {
	Path     string
	Domain   string
	SameSite http.SameSite
	Insecure bool
}

func (o CookieOptions) normalize(name string) CookieOptions {
	if o.Path == "" {
		o.Path = "/"
	}
	if o.SameSite == 0 {
		o.SameSite = http.SameSiteLaxMode
	}
	// "__Host-" cookies are rejected by browsers unless Secure, Path=/ and
	// host-only. Enforce that rather than emit a cookie nothing will store.
	if strings.HasPrefix(name, "__Host-") {
		o.Path = "/"
		o.Domain = ""
		o.Insecure = false
	}

	return o
}

// SetCredentialCookie writes the impersonation credential returned by
// Engine.Start onto the response, expiring alongside the session.
func SetCredentialCookie(engine *goImpersonate.Engine, w http.ResponseWriter, res goImpersonate.StartResult, opts CookieOptions) {
	name, _ := engine.CredentialNames()
	opts = opts.normalize(name)

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    res.Credential,
		Path:     opts.Path,
		Domain:   opts.Domain,
		Expires:  res.ExpiresAt,
		Secure:   !opts.Insecure,
		HttpOnly: true,
		SameSite: opts.SameSite,
	})
}

// ClearCredentialCookie removes the impersonation credential cookie, typically
// after Engine.End.
func ClearCredentialCookie(engine *goImpersonate.Engine, w http.ResponseWriter, opts CookieOptions) {
	name, _ := engine.CredentialNames()
	opts = opts.normalize(name)

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     opts.Path,
		Domain:   opts.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   !opts.Insecure,
		HttpOnly: true,
		SameSite: opts.SameSite,
	})
}
