package importcsv_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/invoiceflow/internal/billing"
	"github.com/MrJamesThe3rd/invoiceflow/internal/http/importcsv"
	"github.com/MrJamesThe3rd/invoiceflow/internal/importer"
	"github.com/MrJamesThe3rd/invoiceflow/internal/session"
)

func newRouter(t *testing.T) (http.Handler, *billing.MockRepository) {
	t.Helper()

	repo := billing.NewMockRepository(gomock.NewController(t))
	svc := importer.NewService(billing.NewService(repo, zerolog.Nop()), zerolog.Nop())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), session.Session{UserID: "u1"})))
		})
	})
	r.Route("/import", importcsv.NewHandler(svc, zerolog.Nop()).Routes)

	return r, repo
}

func upload(t *testing.T, field string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, "clientes.csv")
	require.NoError(t, err)

	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return req
}

func TestHandler_ImportRecipients(t *testing.T) {
	h, repo := newRouter(t)

	repo.EXPECT().Get(gomock.Any(), "u1").Return(&billing.BusinessData{}, nil)
	repo.EXPECT().
		Put(gomock.Any(), "u1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, d *billing.BusinessData) error {
			require.Len(t, d.Recipients, 1)
			assert.Equal(t, "Peña Asesores", d.Recipients[0].Name)
			return nil
		})

	// "Peña" in Windows-1252.
	csv := []byte("Nombre;CIF;Direcci\xf3n\nPe\xf1a Asesores;B123;Calle Ca\xf1o 1\n")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, upload(t, "file", csv))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res importer.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Len(t, res.Imported, 1)
	assert.Zero(t, res.Skipped)
}

func TestHandler_ImportRecipients_BadRequests(t *testing.T) {
	h, _ := newRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, upload(t, "other", []byte("Nombre\nx\n")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, upload(t, "file", []byte("just some words")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "clientes.csv")
}
