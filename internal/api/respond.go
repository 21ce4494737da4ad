package api

import (
	"encoding/json"
	"net/http"

	"github.com/careform/intake/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error       string   `json:"error"`
	Code        string   `json:"code,omitempty"`
	QuestionIDs []string `json:"question_ids,omitempty"`
}

// writeErr maps service error codes onto HTTP statuses. Anything that is not
// a ServiceError is an internal fault and stays opaque to the client.
func writeErr(w http.ResponseWriter, err error) {
	se, ok := services.AsServiceError(err)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	status := http.StatusBadRequest
	switch se.Code {
	case services.ErrorUnauthorized:
		status = http.StatusUnauthorized
	case services.ErrorForbidden:
		status = http.StatusForbidden
	case services.ErrorNotFound:
		status = http.StatusNotFound
	case services.ErrorConflict, services.ErrorIllegalTransition, services.ErrorQuotaExceeded:
		status = http.StatusConflict
	case services.ErrorExpired, services.ErrorInactive:
		status = http.StatusGone
	case services.ErrorValidation:
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, errorBody{Error: se.Message, Code: string(se.Code), QuestionIDs: se.QuestionIDs})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid json body"})
		return false
	}
	return true
}
