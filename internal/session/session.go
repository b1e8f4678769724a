// Package session issues and verifies the signed tokens that identify a
// caller. A Session is an explicit value; nothing here keeps process-wide
// credential state.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrJamesThe3rd/invoiceflow/internal/billing"
)

var ErrUnauthorized = errors.New("unauthorized")

type Session struct {
	UserID      string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// Owner is the billing identity of the session's user.
func (s Session) Owner() billing.Owner {
	return billing.Owner{ID: s.UserID, Email: s.Email, DisplayName: s.DisplayName}
}

type claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

func NewManager(secret string, ttl time.Duration, issuer string) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, issuer: issuer}
}

// TTL is how long issued tokens stay valid.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue signs a token for s and returns it with its expiry.
func (m *Manager) Issue(s Session) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(m.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: s.Email,
		Name:  s.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing session: %w", err)
	}

	return signed, expires, nil
}

// Parse verifies token and returns the session it carries. Every failure
// is reported as ErrUnauthorized.
func (m *Manager) Parse(token string) (Session, error) {
	if token == "" {
		return Session{}, fmt.Errorf("%w: missing session", ErrUnauthorized)
	}

	var c claims

	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	if c.Subject == "" {
		return Session{}, fmt.Errorf("%w: session has no subject", ErrUnauthorized)
	}

	return Session{UserID: c.Subject, Email: c.Email, DisplayName: c.Name}, nil
}

type ctxKey struct{}

func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}
