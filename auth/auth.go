// Package auth parses caller credentials into the security context the
// capability system binds against. The raw token is kept on the context so
// it can be forwarded to internal collaborators that authenticate with the
// same credential.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hupe1980/ragmesh/core"
)

// ErrInvalidToken indicates the bearer token failed verification or lacks
// the account claim.
var ErrInvalidToken = errors.New("invalid auth token")

// accountClaim is the JWT claim carrying the numeric account identifier.
const accountClaim = "account_id"

// Verifier validates HMAC-signed bearer tokens and produces the per-request
// security context.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for tokens signed with secret.
func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret}
}

// ParseSecurityContext verifies tokenString and extracts the account
// identifier. The verified raw token is retained on the returned context for
// forwarding to downstream services.
func (v *Verifier) ParseSecurityContext(tokenString string) (*core.SecurityContext, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims shape", ErrInvalidToken)
	}

	accountID, err := parseAccountID(claims[accountClaim])
	if err != nil {
		return nil, err
	}
	return core.NewSecurityContext(accountID, tokenString), nil
}

// parseAccountID tolerates both numeric and string-encoded account claims,
// since JSON numbers arrive as float64.
func parseAccountID(claim any) (int64, error) {
	switch v := claim.(type) {
	case float64:
		return int64(v), nil
	case int64:
		return v, nil
	case string:
		var id int64
		if _, err := fmt.Sscanf(v, "%d", &id); err != nil {
			return 0, fmt.Errorf("%w: malformed account claim %q", ErrInvalidToken, v)
		}
		return id, nil
	case nil:
		return 0, fmt.Errorf("%w: missing account claim", ErrInvalidToken)
	default:
		return 0, fmt.Errorf("%w: malformed account claim", ErrInvalidToken)
	}
}
