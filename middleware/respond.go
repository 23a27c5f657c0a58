package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/MrEthical07/storeauth"
)

// Envelope is the uniform JSON response shape. Code carries the stable
// machine code on failures and is empty on success.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// WriteJSON writes a success envelope.
func WriteJSON(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, Envelope{Success: true, Message: message, Data: data})
}

// WriteError writes a failure envelope. The message is the sentinel text
// and the code comes from [storeauth.ErrorCode]; wrapped infrastructure
// detail never reaches the body.
func WriteError(w http.ResponseWriter, status int, err error) {
	env := Envelope{Code: storeauth.ErrorCode(err)}
	if env.Code == "INFRASTRUCTURE_ERROR" {
		env.Message = "internal error"
	} else {
		env.Message = err.Error()
	}
	write(w, status, env)
}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
