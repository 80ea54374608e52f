package response

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"go-gin-gorm-users/internal/apperr"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantStatus int
		wantMsg    string
	}{
		{"invalid argument", apperr.InvalidArgument("invalid user id"), CodeBadRequest, http.StatusBadRequest, "invalid user id"},
		{"not found", apperr.NotFound("user not found"), CodeNotFound, http.StatusNotFound, "user not found"},
		{"conflict", apperr.Conflict("email already exists"), CodeConflict, http.StatusConflict, "email already exists"},
		{"forbidden", apperr.Forbidden(""), CodeForbidden, http.StatusForbidden, "Forbidden"},
		{"internal hides cause", apperr.Internal("db down", errors.New("dial tcp 10.0.0.1:5432")), CodeServerError, http.StatusInternalServerError, "Internal Server Error"},
		{"untyped", errors.New("boom"), CodeServerError, http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := FromError(tt.err)
			assert.Equal(t, tt.wantCode, r.Code)
			assert.Equal(t, tt.wantStatus, r.Status())
			assert.Equal(t, tt.wantMsg, r.Msg)
			assert.NotNil(t, r.Data)
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, HTTPStatus(CodeOK))
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatus(CodeTooManyRequests))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(1234))
}

func TestNewNeverNullData(t *testing.T) {
	assert.Equal(t, struct{}{}, New(CodeOK, "OK", nil).Data)
	assert.Equal(t, []int{1}, OK([]int{1}).Data)
}
