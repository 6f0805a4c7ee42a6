package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"yamdb/internal/logging"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/service"
	"yamdb/internal/validation"

	"github.com/gin-gonic/gin"
)

// Config is shared by every handler.
type Config struct {
	RequestTimeout time.Duration
	PageSize       int
	MaxPageSize    int
}

func (cfg Config) withTimeout(c *gin.Context) (context.Context, context.CancelFunc) {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}

func (cfg Config) page(c *gin.Context) dto.Page {
	size, max := cfg.PageSize, cfg.MaxPageSize
	if size <= 0 {
		size = 10
	}
	if max < size {
		max = size
	}
	return dto.ParsePage(c.Request.URL.Query(), size, max)
}

// requestURL rebuilds the absolute URL of the current request for pagination links.
func requestURL(c *gin.Context) *url.URL {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return &url.URL{
		Scheme:   scheme,
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		RawQuery: c.Request.URL.RawQuery,
	}
}

// respondError is the single place where service errors become HTTP statuses.
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Fields})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "invalid confirmation code",
			"fields": map[string][]string{"confirmation_code": {"Invalid confirmation code."}},
		})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAuthentication):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication credentials were not provided"})
	case errors.Is(err, service.ErrPermission):
		c.JSON(http.StatusForbidden, gin.H{"error": "you do not have permission to perform this action"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		_ = c.Error(err)
		logging.Error().Err(err).
			Str("request_id", c.GetString("requestID")).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// bindJSON binds the body and answers 400 itself when that fails.
func bindJSON(c *gin.Context, out any) bool {
	err := c.ShouldBindJSON(out)
	if err == nil {
		return true
	}
	if fields, ok := validation.Fields(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return false
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body is empty"})
	case errors.As(err, &typeErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": map[string][]string{typeErr.Field: {"Incorrect type."}},
		})
	case errors.As(err, &syntaxErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed JSON"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
	return false
}

// paramID parses a numeric path parameter. Anything else cannot name an
// existing object, so it is answered with 404.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return 0, false
	}
	return id, true
}
