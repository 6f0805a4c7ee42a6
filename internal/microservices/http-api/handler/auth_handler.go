package handler

import (
	"net/http"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
	cfg         Config
}

func NewAuthHandler(authService service.AuthService, cfg Config) *AuthHandler {
	return &AuthHandler{authService: authService, cfg: cfg}
}

// RegisterRoutes mounts /auth. limiter may be nil to disable throttling.
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup, limiter *middleware.IPRateLimiter) {
	if limiter != nil {
		rg.Use(middleware.RateLimit(limiter))
	}
	rg.POST("/signup", h.Signup)
	rg.POST("/token", h.Token)
}

// Signup issues a confirmation code by email for a new or existing pair.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	user, err := h.authService.Signup(ctx, req.Username, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SignupResponse{Username: user.Username, Email: user.Email})
}

// Token exchanges a confirmation code for a JWT.
func (h *AuthHandler) Token(c *gin.Context) {
	var req dto.TokenRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	token, err := h.authService.Token(ctx, req.Username, req.ConfirmationCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TokenResponse{Token: token})
}
