// Package apierr maps domain errors to HTTP responses.
package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/MrJamesThe3rd/invoiceflow/internal/billing"
	"github.com/MrJamesThe3rd/invoiceflow/internal/oauth"
	"github.com/MrJamesThe3rd/invoiceflow/internal/pdf"
	"github.com/MrJamesThe3rd/invoiceflow/internal/session"
	"github.com/MrJamesThe3rd/invoiceflow/internal/user"
)

type Body struct {
	Error string `json:"error"`
}

func Status(err error) int {
	switch {
	case errors.Is(err, session.ErrUnauthorized),
		errors.Is(err, user.ErrInvalidCredentials),
		errors.Is(err, oauth.ErrInvalidCode):
		return http.StatusUnauthorized
	case errors.Is(err, billing.ErrInvalidInput), errors.Is(err, user.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, billing.ErrNotFound),
		errors.Is(err, user.ErrNotFound),
		errors.Is(err, oauth.ErrNotConfigured):
		return http.StatusNotFound
	case errors.Is(err, user.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, user.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, pdf.ErrConversionFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Write sends err as a JSON error body. Unmapped errors are logged and
// reported without detail.
func Write(w http.ResponseWriter, log zerolog.Logger, err error) {
	status := Status(err)
	msg := err.Error()

	switch status {
	case http.StatusInternalServerError:
		log.Error().Err(err).Msg("request failed")

		msg = "internal error"
	case http.StatusBadGateway:
		log.Warn().Err(err).Msg("external tool failed")
	}

	JSON(w, log, status, Body{Error: msg})
}

// BadRequest reports a malformed request body or parameter.
func BadRequest(w http.ResponseWriter, log zerolog.Logger, msg string) {
	JSON(w, log, http.StatusBadRequest, Body{Error: msg})
}

func JSON(w http.ResponseWriter, log zerolog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
