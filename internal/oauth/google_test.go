package oauth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/MrJamesThe3rd/invoiceflow/internal/oauth"
)

func fakeGoogle(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "at-1", "token_type": "Bearer", "expires_in": 3600})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			http.Error(w, "no token", http.StatusUnauthorized)
			return
		}

		_ = json.NewEncoder(w).Encode(oauth.Profile{ID: "g-1", Email: "ana@example.com", Name: "Ana"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func newGoogle(srv *httptest.Server) *oauth.Google {
	return oauth.NewGoogle(oauth.GoogleConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/auth/google/callback",
		Endpoint:     oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"},
		UserInfoURL:  srv.URL + "/userinfo",
	})
}

func TestGoogle_Exchange(t *testing.T) {
	srv := fakeGoogle(t)
	g := newGoogle(srv)

	p, err := g.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "g-1", p.ID)
	assert.Equal(t, "ana@example.com", p.Email)

	_, err = g.Exchange(context.Background(), "bad-code")
	assert.ErrorIs(t, err, oauth.ErrInvalidCode)
}

func TestGoogle_AuthURL(t *testing.T) {
	g := newGoogle(fakeGoogle(t))

	u, err := url.Parse(g.AuthURL("state-123"))
	require.NoError(t, err)
	assert.Equal(t, "state-123", u.Query().Get("state"))
	assert.Equal(t, "client", u.Query().Get("client_id"))
}

func TestGoogle_NotConfigured(t *testing.T) {
	g := oauth.NewGoogle(oauth.GoogleConfig{})
	assert.False(t, g.Configured())

	_, err := g.Exchange(context.Background(), "code")
	assert.ErrorIs(t, err, oauth.ErrNotConfigured)
}

func TestNewState(t *testing.T) {
	a, err := oauth.NewState()
	require.NoError(t, err)

	b, err := oauth.NewState()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
