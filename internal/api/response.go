package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Shreya9code/ewastetrack/internal/store"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(target)
}

// storeError answers a failed store write. Uniqueness violations are client
// errors naming the field; anything else is logged and reported as a 500.
func storeError(w http.ResponseWriter, err error, action string) {
	var conflict *store.ConflictError
	if errors.As(err, &conflict) {
		jsonError(w, http.StatusBadRequest, conflict.Error())
		return
	}
	slog.Error("store failure", "action", action, "error", err)
	jsonError(w, http.StatusInternalServerError, "failed to "+action)
}
