package server

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/matzehuels/releasehub/pkg/errors"
	"github.com/matzehuels/releasehub/pkg/integrations"
)

type errorResponse struct {
	Error string         `json:"error"`
	Code  apperrors.Code `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError responds with the status mapped from err's code.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	err = upstreamError(err)
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorResponse{Error: apperrors.UserMessage(err), Code: apperrors.GetCode(err)})
}

// upstreamError codes the sentinel errors of the upstream clients that
// reach a handler unwrapped.
func upstreamError(err error) error {
	if apperrors.GetCode(err) != "" {
		return err
	}
	switch {
	case errors.Is(err, integrations.ErrNotFound):
		return apperrors.Wrap(apperrors.ErrCodeNotFound, err, "upstream resource not found")
	case errors.Is(err, integrations.ErrUnauthorized):
		return apperrors.Wrap(apperrors.ErrCodeNetwork, err, "upstream rejected the configured credentials")
	case errors.Is(err, integrations.ErrNetwork):
		return apperrors.Wrap(apperrors.ErrCodeNetwork, err, "upstream request failed")
	}
	return err
}
