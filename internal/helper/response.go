package helper

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

type ResponseSuccess struct {
	Data interface{} `json:"data"`
}

type ResponseError struct {
	Error  string     `json:"error"`
	ChatID *uuid.UUID `json:"chatId,omitempty"`
}

type PaginationMeta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type ResponseWithPagination struct {
	Data interface{}    `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

func NewPaginationMeta(page, limit int, total int64) PaginationMeta {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return PaginationMeta{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: pages,
	}
}

func WriteJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func WriteSuccess(w http.ResponseWriter, data interface{}) {
	if data == nil {
		data = ""
	}
	WriteJSON(w, http.StatusOK, ResponseSuccess{
		Data: data,
	})
}

func WriteCreated(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusCreated, ResponseSuccess{
		Data: data,
	})
}

func WriteSuccessWithPagination(w http.ResponseWriter, data interface{}, meta PaginationMeta) {
	WriteJSON(w, http.StatusOK, ResponseWithPagination{
		Data: data,
		Meta: meta,
	})
}

func WriteError(w http.ResponseWriter, err error) {
	appErr := AsAppError(err)

	WriteJSON(w, appErr.Code, ResponseError{
		Error:  appErr.Message,
		ChatID: appErr.ChatID,
	})
}
