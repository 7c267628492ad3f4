package middleware

import (
	"encoding/json"
	"net/http"

	"student-records/internal/model"
)

func writeFailure(w http.ResponseWriter, status int, code string, message string) {
	writeEnvelope(w, status, model.APIResponse{Success: false, Code: code, Message: message})
}

func writeEnvelope(w http.ResponseWriter, status int, body model.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
