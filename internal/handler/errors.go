package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"alpwiki/internal/domain"
	"alpwiki/internal/httputil"
)

// handleError maps domain errors to HTTP responses. Stale writes carry the
// mismatching resource in the problem body so clients know what to re-fetch.
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var stale *domain.StaleWriteError
	if errors.As(err, &stale) {
		extras := map[string]interface{}{"resource_type": stale.ResourceType}
		if stale.Lang != "" {
			extras["lang"] = stale.Lang
		}
		httputil.RespondErrorWithExtras(w, http.StatusConflict, stale.Message, extras)
		return
	}

	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		httputil.RespondError(w, httpErr.StatusCode(), httpErr.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
	default:
		logger.Error("unexpected error", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
