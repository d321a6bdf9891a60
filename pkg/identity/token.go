// Package identity reads the current submitter from bearer tokens.
package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/dukex/formflow/pkg/models"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is how long issued tokens stay valid.
const DefaultTokenTTL = 24 * time.Hour

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid bearer token")
)

// Claims carries the submitter identity.
type Claims struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Submitter returns the identity embedded in submissions.
func (c *Claims) Submitter() models.Submitter {
	return models.Submitter{ID: c.UserID, Name: c.Name, Email: c.Email}
}

// Verifier signs and checks HS256 tokens with a shared secret.
type Verifier struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewVerifier returns a Verifier for secret. A zero ttl means DefaultTokenTTL.
func NewVerifier(secret string, ttl time.Duration) *Verifier {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	return &Verifier{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for submitter.
func (v *Verifier) Issue(submitter models.Submitter) (string, error) {
	now := v.now()

	claims := Claims{
		UserID: submitter.ID,
		Name:   submitter.Name,
		Email:  submitter.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   submitter.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(v.secret)
}

// Verify parses tokenStr and returns its claims.
func (v *Verifier) Verify(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
