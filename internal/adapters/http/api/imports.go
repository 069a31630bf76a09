package api

import (
	"errors"
	"io"
	"net/http"

	service "github.com/northlux/securelab/internal/app"
)

// handleImport handles POST /api/v1/signals/import.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	const op = "api.import_signals"

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	summary, err := s.deps.Import(r.Context(), raw)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Code:    "validation_failed",
				Message: verr.Error(),
				Errors:  verr.Fields,
			})
		case errors.Is(err, service.ErrSessionExpired):
			writeError(w, http.StatusUnauthorized, "session_expired", NewKind(op, ErrSessionExpired))
		default:
			writeError(w, http.StatusInternalServerError, "internal", nil)
		}
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// handleValidate handles POST /api/v1/signals/validate. Same checks as
// import, zero side effects; used to preview a batch before committing.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.validate_signals"

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	writeJSON(w, http.StatusOK, s.deps.Preview(r.Context(), raw))
}

// handleStats handles GET /api/v1/stats.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.GetStats())
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
