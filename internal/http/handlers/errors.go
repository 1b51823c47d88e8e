package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"mainford/internal/core/domain"
	"mainford/internal/http/respond"
)

// writeError maps domain errors onto HTTP statuses. Unrecognized errors
// are logged and returned as a generic 500 so internals never leak.
func writeError(w http.ResponseWriter, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrUnknownReferral),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrInvalidTransition):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotApproved),
		errors.Is(err, domain.ErrEmailNotVerified):
		respond.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrDuplicate):
		respond.Error(w, http.StatusConflict, "resource already exists")
	default:
		log.Error().Err(err).Msg("unhandled error")
		respond.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
