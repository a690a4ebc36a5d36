package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/katsudaichi/ant-app/pkg/store"
)

// maxBodySize caps request bodies; entity records are small.
const maxBodySize = 1 << 20 // 1MB

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("response encode failed", "error", err)
	}
}

// writeStoreError maps store errors to HTTP statuses. Unknown errors are
// logged and reported as 500 without leaking detail.
func (h *Handler) writeStoreError(w http.ResponseWriter, op string, err error) {
	switch {
	case isNotFound(err):
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	default:
		h.logger.Error("store operation failed", "op", op, "error", err)
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (h *Handler) badRequest(w http.ResponseWriter, msg string) {
	h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrProjectNotFound)
}
