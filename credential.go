package goImpersonate

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const credentialSessionClaim = "sid"

// IssueCredential produces the transport credential for a session. With a
// configured signing key the credential is an HS256 token wrapping the
// session ID with an expiry claim, so a tampered cookie fails verification
// before any cache lookup. Without a key the raw session ID is returned.
func (e *Engine) IssueCredential(sessionID string, expiresAt time.Time) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}

	key := e.config.Credential.SigningKey
	if len(key) == 0 {
		return sessionID, nil
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		credentialSessionClaim: sessionID,
		"exp":                  expiresAt.Unix(),
		"iat":                  e.now().Unix(),
	})
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("credential signing failed: %w", err)
	}
	return signed, nil
}

// DecodeCredential recovers the session ID from a transport credential,
// verifying the signature and expiry when signing is configured.
func (e *Engine) DecodeCredential(credential string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if credential == "" {
		return "", nil
	}

	key := e.config.Credential.SigningKey
	if len(key) == 0 {
		return credential, nil
	}

	token, err := jwt.Parse(credential,
		func(t *jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(e.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCredentialInvalid, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrCredentialInvalid
	}
	sessionID, ok := claims[credentialSessionClaim].(string)
	if !ok || sessionID == "" {
		return "", ErrCredentialInvalid
	}
	return sessionID, nil
}
