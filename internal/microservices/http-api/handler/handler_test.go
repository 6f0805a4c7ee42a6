package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRespondError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"field errors", &service.ValidationError{Fields: map[string][]string{"score": {"bad"}}}, http.StatusBadRequest},
		{"invalid code", service.ErrInvalidCredentials, http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("x: %w", service.ErrValidation), http.StatusBadRequest},
		{"authentication", service.ErrAuthentication, http.StatusUnauthorized},
		{"permission", service.ErrPermission, http.StatusForbidden},
		{"not found", fmt.Errorf("title 9: %w", service.ErrNotFound), http.StatusNotFound},
		{"anything else", errors.New("boom"), http.StatusInternalServerError},
		{"timeout", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, tt.err)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "boom")
			}
		})
	}
}

func TestBindJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		body     string
		wantBody string
	}{
		{"empty", "", "request body is empty"},
		{"malformed", "{", "malformed JSON"},
		{"wrong type", `{"text":"x","score":"ten"}`, "Incorrect type"},
		{"missing field", `{"score":5}`, "This field is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var in dto.CreateReviewDTO
			assert.False(t, bindJSON(c, &in))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestRequestURL(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "http://api.test/api/v1/genres?search=dr", nil)
	c.Request.Header.Set("X-Forwarded-Proto", "https")

	assert.Equal(t, "https://api.test/api/v1/genres?search=dr", requestURL(c).String())
}
