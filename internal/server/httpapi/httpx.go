package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/gophstore/internal/api"
	"github.com/dmitrijs2005/gophstore/internal/catalog"
)

// writeJSON sends v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError sends an api.ErrorResponse.
func writeError(w http.ResponseWriter, status int, msg string, fields ...catalog.FieldError) {
	writeJSON(w, status, api.ErrorResponse{Error: msg, Fields: fields})
}
