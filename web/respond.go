package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"wtr-service/logger"
	"wtr-service/pkg/common"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		resp.Code = appErr.Code
	}
	writeJSON(w, statusFor(err), resp)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, common.ErrNotFound), errors.Is(err, common.ErrNoActiveMatch):
		return http.StatusNotFound
	case errors.Is(err, common.ErrMatchInProgress):
		return http.StatusConflict
	case errors.Is(err, common.ErrNotConnected):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return common.NewAppError("INVALID_BODY", "invalid request body", errors.Join(common.ErrInvalidInput, err))
	}
	return nil
}
