package handler

import (
	"net/http"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	svc service.UserService
	cfg Config
}

func NewUserHandler(svc service.UserService, cfg Config) *UserHandler {
	return &UserHandler{svc: svc, cfg: cfg}
}

func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	// own profile, any authenticated user
	rg.GET("/me", middleware.RequireAuth(), h.Me)
	rg.PATCH("/me", middleware.RequireAuth(), h.UpdateMe)

	// admin-only management
	admin := rg.Group("", middleware.RequireAdmin())
	admin.GET("", h.List)
	admin.POST("", h.Create)
	admin.GET("/:username", h.Get)
	admin.PATCH("/:username", h.Update)
	admin.DELETE("/:username", h.Delete)
}

func (h *UserHandler) List(c *gin.Context) {
	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	page := h.cfg.page(c)
	list, total, err := h.svc.List(ctx, c.Query("search"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]dto.UserResponse, 0, len(list))
	for _, u := range list {
		resp = append(resp, dto.UserFromModel(u))
	}
	c.JSON(http.StatusOK, dto.NewPaginated(resp, total, page, requestURL(c)))
}

func (h *UserHandler) Create(c *gin.Context) {
	var in dto.CreateUserDTO
	if !bindJSON(c, &in) {
		return
	}
	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	u := in.ToModel()
	if err := h.svc.Create(ctx, &u); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.UserFromModel(u))
}

func (h *UserHandler) Get(c *gin.Context) {
	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	u, err := h.svc.Get(ctx, c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UserFromModel(*u))
}

func (h *UserHandler) Update(c *gin.Context) {
	var in dto.UpdateUserDTO
	if !bindJSON(c, &in) {
		return
	}
	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	u, err := h.svc.Update(ctx, c.Param("username"), in, true)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UserFromModel(*u))
}

func (h *UserHandler) Delete(c *gin.Context) {
	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	if err := h.svc.Delete(ctx, c.Param("username")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, dto.UserFromModel(*middleware.CurrentUser(c)))
}

// UpdateMe edits the caller's own profile; a role in the body is ignored.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var in dto.UpdateUserDTO
	if !bindJSON(c, &in) {
		return
	}
	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	me := middleware.CurrentUser(c)
	u, err := h.svc.Update(ctx, me.Username, in, false)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UserFromModel(*u))
}
