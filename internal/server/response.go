package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	ferrors "git.home.luguber.info/inful/specpreview/internal/foundation/errors"
)

const maxBodyBytes = 8 << 20

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("Failed to write JSON response", slog.Any("error", err))
	}
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryValidation, "read request body").Build()
	}
	if err := json.Unmarshal(body, v); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryValidation, "invalid JSON body").Build()
	}
	return nil
}
