package api

import (
	"encoding/json"
	"net/http"

	"connectrpc.com/connect"

	"github.com/tenntenn/minilang/backend/model"
)

// CompileHandler serves Compile as a plain JSON endpoint for clients that
// do not speak Connect
func CompileHandler(h *ToolchainServiceHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Only accept POST requests
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req model.CompileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		resp, err := h.Compile(r.Context(), connect.NewRequest(&req))
		if err != nil {
			status := http.StatusBadRequest
			switch connect.CodeOf(err) {
			case connect.CodeCanceled, connect.CodeDeadlineExceeded:
				status = http.StatusRequestTimeout
			}
			http.Error(w, err.Error(), status)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp.Msg); err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
			return
		}
	}
}
