package data

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/MrJamesThe3rd/invoiceflow/internal/billing"
	"github.com/MrJamesThe3rd/invoiceflow/internal/http/apierr"
	"github.com/MrJamesThe3rd/invoiceflow/internal/session"
)

// Handler serves the caller's business data. Every mutation is a whole
// document read-modify-write; concurrent writers resolve as last writer
// wins.
type Handler struct {
	svc *billing.Service
	log zerolog.Logger
}

func NewHandler(svc *billing.Service, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.get)
	r.Put("/", h.replace)
	r.Post("/", h.replace)

	r.Put("/issuer", h.updateIssuer)
	r.Put("/issuer/next-number", h.setNextNumber)
	r.Post("/accounts", h.addAccount)
	r.Delete("/accounts/{id}", h.deleteAccount)
	r.Post("/recipients", h.addRecipient)
	r.Post("/recipients/{id}/favorite", h.toggleFavorite)
	r.Post("/templates", h.addTemplate)
	r.Post("/invoices", h.upsertInvoice)
}

type successResponse struct {
	Success bool `json:"success"`
}

type nextNumberRequest struct {
	Number string `json:"number"`
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Load(r.Context(), owner(r))
	if err != nil {
		apierr.Write(w, h.log, err)
		return
	}

	apierr.JSON(w, h.log, http.StatusOK, data)
}

func (h *Handler) replace(w http.ResponseWriter, r *http.Request) {
	// A null body leaves data nil, which Save rejects.
	var data *billing.BusinessData
	if !h.decode(w, r, &data) {
		return
	}

	if err := h.svc.Save(r.Context(), owner(r).ID, data); err != nil {
		apierr.Write(w, h.log, err)
		return
	}

	apierr.JSON(w, h.log, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) updateIssuer(w http.ResponseWriter, r *http.Request) {
	var profile billing.Issuer
	if !h.decode(w, r, &profile) {
		return
	}

	h.mutate(w, r, http.StatusOK, func(d *billing.BusinessData) (any, error) {
		d.UpdateIssuer(profile)
		return d.Issuer, nil
	})
}

func (h *Handler) setNextNumber(w http.ResponseWriter, r *http.Request) {
	var req nextNumberRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.mutate(w, r, http.StatusOK, func(d *billing.BusinessData) (any, error) {
		if err := d.SetInvoiceCounter(req.Number); err != nil {
			return nil, err
		}

		return d.Issuer, nil
	})
}

func (h *Handler) addAccount(w http.ResponseWriter, r *http.Request) {
	var a billing.Account
	if !h.decode(w, r, &a) {
		return
	}

	h.mutate(w, r, http.StatusCreated, func(d *billing.BusinessData) (any, error) {
		return d.AddAccount(a), nil
	})
}

func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	_, err := h.svc.Mutate(r.Context(), owner(r), func(d *billing.BusinessData) error {
		return d.DeleteAccount(id)
	})
	if err != nil {
		apierr.Write(w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addRecipient(w http.ResponseWriter, r *http.Request) {
	var rec billing.Recipient
	if !h.decode(w, r, &rec) {
		return
	}

	h.mutate(w, r, http.StatusCreated, func(d *billing.BusinessData) (any, error) {
		return d.AddRecipient(rec), nil
	})
}

func (h *Handler) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	h.mutate(w, r, http.StatusOK, func(d *billing.BusinessData) (any, error) {
		return d.ToggleRecipientFavorite(id)
	})
}

func (h *Handler) addTemplate(w http.ResponseWriter, r *http.Request) {
	var t billing.Template
	if !h.decode(w, r, &t) {
		return
	}

	h.mutate(w, r, http.StatusCreated, func(d *billing.BusinessData) (any, error) {
		return d.AddTemplate(t), nil
	})
}

func (h *Handler) upsertInvoice(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if !h.decode(w, r, &raw) {
		return
	}

	inv, err := billing.DecodeInvoice(raw)
	if err != nil {
		apierr.Write(w, h.log, err)
		return
	}

	h.mutate(w, r, http.StatusOK, func(d *billing.BusinessData) (any, error) {
		return d.UpsertInvoice(inv), nil
	})
}

// mutate runs fn inside a read-modify-write and responds with its result.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, status int, fn func(*billing.BusinessData) (any, error)) {
	var out any

	_, err := h.svc.Mutate(r.Context(), owner(r), func(d *billing.BusinessData) error {
		var err error
		out, err = fn(d)

		return err
	})
	if err != nil {
		apierr.Write(w, h.log, err)
		return
	}

	apierr.JSON(w, h.log, status, out)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		apierr.Write(w, h.log, fmt.Errorf("%w: invalid request body: %v", billing.ErrInvalidInput, err))
		return false
	}

	return true
}

func owner(r *http.Request) billing.Owner {
	s, _ := session.FromContext(r.Context())
	return s.Owner()
}
