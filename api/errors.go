package api

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/robotnav/navigation/engine"
	"github.com/wricardo/mcp-training/robotnav/navigation/history"
	"github.com/wricardo/mcp-training/robotnav/navigation/preset"
	"github.com/wricardo/mcp-training/robotnav/navigation/scenario"
)

// Error codes
const (
	codeBadRequest       = "bad_request"
	codeValidation       = "validation_error"
	codeDomain           = "domain_error"
	codeNotFound         = "not_found"
	codeUnsupportedMedia = "unsupported_media_type"
	codeInvalidPreset    = "invalid_preset"
	codeInternal         = "internal_error"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error     string                `json:"error"`
	Message   string                `json:"message"`
	Details   []scenario.FieldError `json:"details,omitempty"`
	Path      string                `json:"path"`
	Timestamp time.Time             `json:"timestamp"`
}

const msgUnreadableBody = "Request body is invalid or unreadable."

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:     code,
		Message:   message,
		Path:      r.URL.Path,
		Timestamp: time.Now().UTC(),
	})
}

// respondServiceError maps an error to its status code and error body
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *scenario.ValidationError

	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:     codeValidation,
			Message:   "Request validation failed.",
			Details:   verr.Details,
			Path:      r.URL.Path,
			Timestamp: time.Now().UTC(),
		})

	case errors.Is(err, history.ErrRunNotFound), errors.Is(err, preset.ErrPresetNotFound):
		respondError(w, r, http.StatusNotFound, codeNotFound, err.Error())

	case errors.Is(err, preset.ErrInvalidPreset):
		respondError(w, r, http.StatusUnprocessableEntity, codeInvalidPreset, err.Error())

	case errors.Is(err, engine.ErrDomainRule):
		respondError(w, r, http.StatusUnprocessableEntity, codeDomain, err.Error())

	case errors.Is(err, scenario.ErrInvalidInput),
		errors.Is(err, engine.ErrInvalidValue),
		errors.Is(err, engine.ErrMissingArgument):
		respondError(w, r, http.StatusBadRequest, codeBadRequest, err.Error())

	default:
		s.logger.Error("unexpected error",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
			zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, codeInternal, "Unexpected error.")
	}
}
