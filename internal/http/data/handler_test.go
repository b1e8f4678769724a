package data_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/invoiceflow/internal/billing"
	"github.com/MrJamesThe3rd/invoiceflow/internal/http/data"
	"github.com/MrJamesThe3rd/invoiceflow/internal/session"
)

func newRouter(t *testing.T) (http.Handler, *billing.MockRepository) {
	t.Helper()

	repo := billing.NewMockRepository(gomock.NewController(t))
	h := data.NewHandler(billing.NewService(repo, zerolog.Nop()), zerolog.Nop())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := session.Session{UserID: "u1", Email: "ana@example.com", DisplayName: "Ana"}
			next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), s)))
		})
	})
	r.Route("/data", h.Routes)

	return r, repo
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))

	return rec
}

func stored() *billing.BusinessData {
	return &billing.BusinessData{
		Issuer:     billing.Issuer{Name: "Ana", Accounts: []billing.Account{{ID: "a1", IBAN: "ES00"}}},
		Recipients: []billing.Recipient{{ID: "r1", Name: "ACME"}},
		Templates:  []billing.Template{},
		Invoices:   []billing.Invoice{},
	}
}

func TestHandler_GetSeedsOnFirstAccess(t *testing.T) {
	h, repo := newRouter(t)

	repo.EXPECT().Get(gomock.Any(), "u1").Return(nil, billing.ErrNotFound)
	repo.EXPECT().Put(gomock.Any(), "u1", gomock.Any()).Return(nil)

	rec := do(h, http.MethodGet, "/data", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got billing.BusinessData
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "Ana", got.Issuer.Name)
	assert.Equal(t, "ana@example.com", got.Issuer.Email)
	assert.NotNil(t, got.Recipients)
}

func TestHandler_GetServesEmptyLists(t *testing.T) {
	h, repo := newRouter(t)

	repo.EXPECT().Get(gomock.Any(), "u1").Return(&billing.BusinessData{Issuer: billing.Issuer{Name: "Ana"}}, nil)

	rec := do(h, http.MethodGet, "/data", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	for _, key := range []string{"recipients", "templates", "invoices"} {
		assert.Equal(t, []any{}, got[key], key)
	}

	assert.Equal(t, []any{}, got["issuer"].(map[string]any)["accounts"])
}

func TestHandler_Replace(t *testing.T) {
	type testCase struct {
		name      string
		method    string
		body      string
		setupMock func(m *billing.MockRepository)
		wantCode  int
	}

	tests := []testCase{
		{
			name:   "Put",
			method: http.MethodPut,
			body:   `{"issuer":{"nombre":"Bea"},"recipients":[],"templates":[],"invoices":[]}`,
			setupMock: func(m *billing.MockRepository) {
				m.EXPECT().
					Put(gomock.Any(), "u1", gomock.Any()).
					DoAndReturn(func(_ context.Context, _ string, d *billing.BusinessData) error {
						assert.Equal(t, "Bea", d.Issuer.Name)
						return nil
					})
			},
			wantCode: http.StatusOK,
		},
		{
			name:   "PostCompat",
			method: http.MethodPost,
			body:   `{"issuer":{"nombre":"Bea"}}`,
			setupMock: func(m *billing.MockRepository) {
				m.EXPECT().Put(gomock.Any(), "u1", gomock.Any()).Return(nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name:      "MalformedItems",
			method:    http.MethodPut,
			body:      `{"invoices":[{"id":"i1","items":{"concept":"x"}}]}`,
			setupMock: func(*billing.MockRepository) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "NullBody",
			method:    http.MethodPut,
			body:      `null`,
			setupMock: func(*billing.MockRepository) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "NotJSON",
			method:    http.MethodPut,
			body:      `hello`,
			setupMock: func(*billing.MockRepository) {},
			wantCode:  http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, repo := newRouter(t)
			tt.setupMock(repo)

			rec := do(h, tt.method, "/data", tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)

			if tt.wantCode == http.StatusOK {
				assert.JSONEq(t, `{"success":true}`, rec.Body.String())
			}
		})
	}
}

func TestHandler_Mutations(t *testing.T) {
	type testCase struct {
		name     string
		method   string
		path     string
		body     string
		wantCode int
		// check inspects the written document; nil means no write is expected.
		check    func(t *testing.T, d *billing.BusinessData)
		wantBody string
	}

	tests := []testCase{
		{
			name:     "UpdateIssuerKeepsAccounts",
			method:   http.MethodPut,
			path:     "/data/issuer",
			body:     `{"nombre":"Ana SL","nif":"B1","accounts":[]}`,
			wantCode: http.StatusOK,
			check: func(t *testing.T, d *billing.BusinessData) {
				assert.Equal(t, "Ana SL", d.Issuer.Name)
				assert.Len(t, d.Issuer.Accounts, 1)
			},
		},
		{
			name:     "SetNextNumber",
			method:   http.MethodPut,
			path:     "/data/issuer/next-number",
			body:     `{"number":"41"}`,
			wantCode: http.StatusOK,
			check: func(t *testing.T, d *billing.BusinessData) {
				assert.Equal(t, int64(42), *d.Issuer.NextInvoiceNumber)
			},
		},
		{
			name:     "SetNextNumberNotNumeric",
			method:   http.MethodPut,
			path:     "/data/issuer/next-number",
			body:     `{"number":"A-1"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "AddAccount",
			method:   http.MethodPost,
			path:     "/data/accounts",
			body:     `{"name":"Main","iban":"ES11"}`,
			wantCode: http.StatusCreated,
			check: func(t *testing.T, d *billing.BusinessData) {
				require.Len(t, d.Issuer.Accounts, 2)
				assert.NotEmpty(t, d.Issuer.Accounts[1].ID)
			},
		},
		{
			name:     "DeleteAccount",
			method:   http.MethodDelete,
			path:     "/data/accounts/a1",
			wantCode: http.StatusNoContent,
			check: func(t *testing.T, d *billing.BusinessData) {
				assert.Empty(t, d.Issuer.Accounts)
			},
		},
		{
			name:     "DeleteMissingAccount",
			method:   http.MethodDelete,
			path:     "/data/accounts/nope",
			wantCode: http.StatusNotFound,
		},
		{
			name:     "AddRecipient",
			method:   http.MethodPost,
			path:     "/data/recipients",
			body:     `{"name":"Globex","cif":"B2"}`,
			wantCode: http.StatusCreated,
			check: func(t *testing.T, d *billing.BusinessData) {
				assert.Len(t, d.Recipients, 2)
			},
		},
		{
			name:     "ToggleFavorite",
			method:   http.MethodPost,
			path:     "/data/recipients/r1/favorite",
			wantCode: http.StatusOK,
			check: func(t *testing.T, d *billing.BusinessData) {
				assert.True(t, d.Recipients[0].IsFavorite)
			},
			wantBody: `{"id":"r1","name":"ACME","cif":"","address":"","isFavorite":true}`,
		},
		{
			name:     "ToggleMissingRecipient",
			method:   http.MethodPost,
			path:     "/data/recipients/nope/favorite",
			wantCode: http.StatusNotFound,
		},
		{
			name:     "AddTemplate",
			method:   http.MethodPost,
			path:     "/data/templates",
			body:     `{"name":"Monthly","recipientId":"r1","concept":"Retainer","price":500}`,
			wantCode: http.StatusCreated,
			check: func(t *testing.T, d *billing.BusinessData) {
				require.Len(t, d.Templates, 1)
				assert.Equal(t, "500", d.Templates[0].Price.String())
			},
		},
		{
			name:     "UpsertInvoice",
			method:   http.MethodPost,
			path:     "/data/invoices",
			body:     `{"id":"i1","number":"1","date":"2024-01-01","items":[{"concept":"x","quantity":1,"price":10}]}`,
			wantCode: http.StatusOK,
			check: func(t *testing.T, d *billing.BusinessData) {
				require.Len(t, d.Invoices, 1)
				assert.Equal(t, "i1", d.Invoices[0].ID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, repo := newRouter(t)

			repo.EXPECT().Get(gomock.Any(), "u1").Return(stored(), nil)

			if tt.check != nil {
				repo.EXPECT().
					Put(gomock.Any(), "u1", gomock.Any()).
					DoAndReturn(func(_ context.Context, _ string, d *billing.BusinessData) error {
						tt.check(t, d)
						return nil
					})
			}

			rec := do(h, tt.method, tt.path, tt.body)

			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestHandler_UpsertInvoiceRejectsIncompleteItems(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "PriceNull", body: `{"id":"i1","items":[{"concept":"x","quantity":1,"price":null}]}`},
		{name: "ItemsMissing", body: `{"id":"i1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newRouter(t)

			rec := do(h, http.MethodPost, "/data/invoices", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}
