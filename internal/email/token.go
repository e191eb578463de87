package email

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CheckinClaims is the payload encoded into the conference pass. The token is
// minted unverified; the check-in desk flips attendance server-side, never by
// trusting the token alone.
type CheckinClaims struct {
	RegistrationID string `json:"registration_id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	Verified       bool   `json:"verified"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and parses signed check-in tokens.
type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret)}
}

// Issue signs a check-in token for a paid registration. The token carries no
// expiry: passes stay scannable through the conference.
func (t *TokenIssuer) Issue(registrationID uuid.UUID, emailAddr, name string) (string, error) {
	claims := CheckinClaims{
		RegistrationID: registrationID.String(),
		Email:          emailAddr,
		Name:           name,
		Verified:       false,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign checkin token: %w", err)
	}
	return signed, nil
}

// Parse validates a scanned token and returns its claims.
func (t *TokenIssuer) Parse(raw string) (*CheckinClaims, error) {
	var claims CheckinClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse checkin token: %w", err)
	}
	return &claims, nil
}
