package helper

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	chatID := uuid.New()

	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantError  string
		wantChatID *uuid.UUID
	}{
		{"Bad request default message", NewBadRequestError(""), http.StatusBadRequest, MsgBadRequest, nil},
		{"Forbidden", NewForbiddenError("nope"), http.StatusForbidden, "nope", nil},
		{"Conflict carries chat id", NewChatConflictError("Private chat already exists", chatID), http.StatusConflict, "Private chat already exists", &chatID},
		{"Plain errors are masked", errors.New("pq: connection refused"), http.StatusInternalServerError, MsgInternalServerError, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()

			WriteError(rr, tt.err)

			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var body ResponseError
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, tt.wantError, body.Error)
			assert.Equal(t, tt.wantChatID, body.ChatID)
		})
	}
}

func TestNewPaginationMeta(t *testing.T) {
	assert.Equal(t, PaginationMeta{Page: 1, Limit: 50, Total: 120, Pages: 3}, NewPaginationMeta(1, 50, 120))
	assert.Equal(t, PaginationMeta{Page: 2, Limit: 20, Total: 0, Pages: 0}, NewPaginationMeta(2, 20, 0))
	assert.Equal(t, 0, NewPaginationMeta(1, 0, 10).Pages)
}

func TestWriteSuccessWithPagination(t *testing.T) {
	rr := httptest.NewRecorder()

	WriteSuccessWithPagination(rr, []string{"a"}, NewPaginationMeta(1, 1, 2))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":["a"],"meta":{"page":1,"limit":1,"total":2,"pages":2}}`, rr.Body.String())
}
