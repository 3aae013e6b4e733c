package utils

import (
	"encoding/json"
	"net/http"

	"github.com/DinieMobo/TaskHero/logging"
	"github.com/DinieMobo/TaskHero/models"
)

// Envelope is the body of every API response. Successful responses carry
// status true plus operation-specific fields.
type Envelope map[string]any

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Logger.Errorf("Event ID: RESPONSE_ENCODE_FAILED, Description: Failed to encode response: %v", err)
	}
}

// WriteOK writes fields with status true.
func WriteOK(w http.ResponseWriter, fields Envelope) {
	if fields == nil {
		fields = Envelope{}
	}
	fields["status"] = true
	WriteJSON(w, http.StatusOK, fields)
}

func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Envelope{"status": status < 400, "message": message})
}

// StatusFor maps an error to its HTTP status code.
func StatusFor(err error) int {
	switch models.KindOf(err) {
	case models.KindValidation:
		return http.StatusBadRequest
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindAuth, models.KindAuthorization:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes the error envelope. Server-side failures are logged with
// their full cause; the caller only sees the public message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logging.Logger.Errorf("Event ID: REQUEST_FAILED, Description: %s %s failed: %v", r.Method, r.URL.Path, err)
	}
	WriteJSON(w, status, Envelope{"status": false, "message": models.PublicMessage(err)})
}
