// Package auth verifies the signed bearer tokens issued by the identity service and
// turns them into a domain.Actor.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"hotel_booking/internal/domain"
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &Verifier{secret: []byte(secret), now: time.Now}, nil
}

// Verify parses an HS256 token. The subject is the numeric user id.
func (v *Verifier) Verify(token string) (domain.Actor, error) {
	var c Claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return domain.Actor{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return domain.Actor{}, fmt.Errorf("%w: bad subject", domain.ErrUnauthorized)
	}
	role := domain.Role(c.Role)
	if role == "" {
		role = domain.RoleGuest
	}
	if !role.Valid() {
		return domain.Actor{}, fmt.Errorf("%w: unknown role %q", domain.ErrUnauthorized, c.Role)
	}
	return domain.Actor{ID: id, Role: role}, nil
}

// Issue signs a token for actor. Used by tooling and tests; production tokens come
// from the identity service.
func (v *Verifier) Issue(actor domain.Actor, ttl time.Duration) (string, error) {
	now := v.now()
	c := Claims{
		Role: string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(actor.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(v.secret)
}
