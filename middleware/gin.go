package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	goImpersonate "github.com/MrEthical07/goImpersonate"
)

// GinIntercept is [Intercept] for gin handler chains. The resolved context is
// available through [FromContext] on the request context, so handlers shared
// between net/http and gin read it the same way.
func GinIntercept(engine *goImpersonate.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		if engine == nil {
			c.Next()
			return
		}

		r := c.Request
		credential := credentialFromRequest(engine, r)
		if credential == "" {
			c.Next()
			return
		}

		imp, ok := engine.Resolve(r.Context(), goImpersonate.ResolveRequest{
			Credential: credential,
			Route:      r.URL.Path,
			Method:     r.Method,
			Payload:    payloadSnapshot(r),
			IP:         c.ClientIP(),
			UserAgent:  r.UserAgent(),
		})
		if !ok {
			c.Next()
			return
		}

		ctx := context.WithValue(r.Context(), impersonationContextKey{}, imp)
		c.Request = r.WithContext(ctx)
		c.Next()
	}
}
