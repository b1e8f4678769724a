package importcsv

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/MrJamesThe3rd/invoiceflow/internal/http/apierr"
	"github.com/MrJamesThe3rd/invoiceflow/internal/importer"
	"github.com/MrJamesThe3rd/invoiceflow/internal/session"
)

const maxUpload = 10 << 20

type Handler struct {
	importSvc *importer.Service
	log       zerolog.Logger
}

func NewHandler(importSvc *importer.Service, log zerolog.Logger) *Handler {
	return &Handler{importSvc: importSvc, log: log}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importRecipients)
}

func (h *Handler) importRecipients(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)

	if err := r.ParseMultipartForm(maxUpload); err != nil {
		apierr.BadRequest(w, h.log, "failed to parse form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apierr.BadRequest(w, h.log, "file field is required")
		return
	}
	defer file.Close()

	s, _ := session.FromContext(r.Context())

	res, err := h.importSvc.ImportRecipients(r.Context(), s.Owner(), file)
	if err != nil {
		apierr.Write(w, h.log, fmt.Errorf("importing %s: %w", header.Filename, err))
		return
	}

	apierr.JSON(w, h.log, http.StatusCreated, res)
}

