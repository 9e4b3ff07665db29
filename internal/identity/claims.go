package identity

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Claims are display hints decoded from an identity assertion without verifying
// its signature. The backend verifies the assertion before minting a session.
type Claims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// Assertion is a completed sign-in: the raw credential and its decoded hints.
type Assertion struct {
	Credential string
	Claims     *Claims
}

// Decode the display fields of a compact signed token.
func Decode(credential string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return nil, errors.Wrap(err, "decoding identity assertion")
	}
	if claims.Subject == "" {
		return nil, errors.New("identity assertion carries no subject")
	}
	return claims, nil
}
