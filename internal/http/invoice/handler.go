package invoice

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/MrJamesThe3rd/invoiceflow/internal/billing"
	"github.com/MrJamesThe3rd/invoiceflow/internal/http/apierr"
	"github.com/MrJamesThe3rd/invoiceflow/internal/invoicing"
	"github.com/MrJamesThe3rd/invoiceflow/internal/session"
)

type Handler struct {
	svc *invoicing.Service
	log zerolog.Logger
}

func NewHandler(svc *invoicing.Service, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/totals", h.totals)
	r.Post("/preview", h.preview)
	r.Post("/generate", h.generate)
}

type invoiceRequest struct {
	Invoice    *billing.Invoice      `json:"-"`
	RawInvoice json.RawMessage       `json:"invoice"`
	GlobalData *billing.BusinessData `json:"globalData,omitempty"`
	Record     bool                  `json:"record"`
}

type previewResponse struct {
	Title    string         `json:"title"`
	FileName string         `json:"fileName"`
	Totals   billing.Totals `json:"totals"`
	HTML     string         `json:"html"`
}

func (h *Handler) totals(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	totals, err := h.svc.Totals(r.Context(), owner(r), req.Invoice.Items)
	if err != nil {
		apierr.Write(w, h.log, err)
		return
	}

	apierr.JSON(w, h.log, http.StatusOK, totals)
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	doc, err := h.svc.Preview(r.Context(), owner(r), req.Invoice, req.GlobalData)
	if err != nil {
		apierr.Write(w, h.log, err)
		return
	}

	apierr.JSON(w, h.log, http.StatusOK, previewResponse{
		Title:    doc.Title,
		FileName: doc.FileName,
		Totals:   doc.Amounts,
		HTML:     string(doc.HTML),
	})
}

// GeneratePDF converts the invoice against the business data sent with the
// request. The stored document is neither read nor written.
func (h *Handler) GeneratePDF(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	res, err := h.svc.Snapshot(r.Context(), req.Invoice, req.GlobalData)
	if err != nil {
		apierr.Write(w, h.log, err)
		return
	}

	h.writePDF(w, res)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	res, err := h.svc.Generate(r.Context(), owner(r), *req.Invoice, req.Record)
	if err != nil {
		apierr.Write(w, h.log, err)
		return
	}

	h.writePDF(w, res)
}

func (h *Handler) writePDF(w http.ResponseWriter, res *invoicing.Result) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+res.FileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.PDF)))
	w.Header().Set("X-Invoice-Id", res.Invoice.ID)
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(res.PDF); err != nil {
		h.log.Error().Err(err).Str("file", res.FileName).Msg("failed to write pdf")
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (invoiceRequest, bool) {
	var req invoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, h.log, fmt.Errorf("%w: invalid request body: %v", billing.ErrInvalidInput, err))
		return req, false
	}

	if len(req.RawInvoice) == 0 || string(req.RawInvoice) == "null" {
		apierr.Write(w, h.log, fmt.Errorf("%w: invoice is required", billing.ErrInvalidInput))
		return req, false
	}

	inv, err := billing.DecodeInvoice(req.RawInvoice)
	if err != nil {
		apierr.Write(w, h.log, err)
		return req, false
	}

	req.Invoice = &inv

	return req, true
}

func owner(r *http.Request) billing.Owner {
	s, _ := session.FromContext(r.Context())
	return s.Owner()
}
