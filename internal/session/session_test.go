package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/invoiceflow/internal/session"
)

func TestManager_IssueAndParse(t *testing.T) {
	m := session.NewManager("top-secret", time.Hour, "invoiceflow")
	want := session.Session{UserID: "u1", Email: "ana@example.com", DisplayName: "Ana"}

	token, expires, err := m.Issue(want)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	got, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "u1", got.Owner().ID)
}

func TestManager_Parse_Rejects(t *testing.T) {
	m := session.NewManager("top-secret", time.Hour, "invoiceflow")

	expired, _, err := session.NewManager("top-secret", -time.Minute, "invoiceflow").Issue(session.Session{UserID: "u1"})
	require.NoError(t, err)

	foreign, _, err := session.NewManager("other-secret", time.Hour, "invoiceflow").Issue(session.Session{UserID: "u1"})
	require.NoError(t, err)

	otherIssuer, _, err := session.NewManager("top-secret", time.Hour, "elsewhere").Issue(session.Session{UserID: "u1"})
	require.NoError(t, err)

	noSubject, _, err := m.Issue(session.Session{})
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u1", "iss": "invoiceflow"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"Empty":       "",
		"Garbage":     "not-a-token",
		"Expired":     expired,
		"WrongSecret": foreign,
		"WrongIssuer": otherIssuer,
		"NoSubject":   noSubject,
		"AlgNone":     unsigned,
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := m.Parse(token)
			assert.ErrorIs(t, err, session.ErrUnauthorized)
		})
	}
}

func TestContext(t *testing.T) {
	_, ok := session.FromContext(context.Background())
	assert.False(t, ok)

	ctx := session.NewContext(context.Background(), session.Session{UserID: "u1"})
	got, ok := session.FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u1", got.UserID)
}
