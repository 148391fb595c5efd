package controller

import (
	"net/http"
	"strconv"

	"github.com/evidark-org/evidark/internal/helper"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func pathUUID(r *http.Request, key, label string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		return uuid.Nil, helper.NewBadRequestError("Invalid " + label)
	}
	return id, nil
}
