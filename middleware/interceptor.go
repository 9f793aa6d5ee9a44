package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"

	goImpersonate "github.com/MrEthical07/goImpersonate"
)

// maxPayloadSnapshot bounds how much of a request body is read for the audit
// payload snapshot. Larger bodies are passed through without a snapshot.
const maxPayloadSnapshot = 64 << 10

type impersonationContextKey struct{}

// FromContext returns the impersonation context attached by [Intercept] or
// [GinIntercept]. ok is false when the request is not part of an
// impersonation session.
func FromContext(ctx context.Context) (*goImpersonate.ImpersonationContext, bool) {
	imp, ok := ctx.Value(impersonationContextKey{}).(*goImpersonate.ImpersonationContext)
	return imp, ok
}

// Intercept resolves the impersonation credential on every request and, when a
// usable session exists, attaches the impersonation context for downstream
// handlers. Requests without a credential, and requests whose credential does
// not resolve, continue unchanged.
func Intercept(engine *goImpersonate.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				next.ServeHTTP(w, r)
				return
			}

			credential := credentialFromRequest(engine, r)
			if credential == "" {
				next.ServeHTTP(w, r)
				return
			}

			imp, ok := engine.Resolve(r.Context(), goImpersonate.ResolveRequest{
				Credential: credential,
				Route:      r.URL.Path,
				Method:     r.Method,
				Payload:    payloadSnapshot(r),
				IP:         clientIP(r),
				UserAgent:  r.UserAgent(),
			})
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), impersonationContextKey{}, imp)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func credentialFromRequest(engine *goImpersonate.Engine, r *http.Request) string {
	cookieName, headerName := engine.CredentialNames()
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}

	return r.Header.Get(headerName)
}

// payloadSnapshot captures a JSON request body for audit logging and restores
// the body so the handler can still read it. Non-JSON and oversized bodies
// yield no snapshot.
func payloadSnapshot(r *http.Request) map[string]any {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	if ct := r.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadSnapshot+1))
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil || len(body) == 0 || len(body) > maxPayloadSnapshot {
		return nil
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}

	return payload
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
