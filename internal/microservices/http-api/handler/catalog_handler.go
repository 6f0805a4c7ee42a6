package handler

import (
	"net/http"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	svc service.CategoryService
	cfg Config
}

func NewCategoryHandler(svc service.CategoryService, cfg Config) *CategoryHandler {
	return &CategoryHandler{svc: svc, cfg: cfg}
}

func (h *CategoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.Use(middleware.AdminOrReadOnly())
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.DELETE("/:slug", h.Delete)
}

func (h *CategoryHandler) List(c *gin.Context) {
	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	page := h.cfg.page(c)
	list, total, err := h.svc.List(ctx, c.Query("search"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]dto.CategoryResponse, 0, len(list))
	for _, cat := range list {
		resp = append(resp, dto.CategoryFromModel(cat))
	}
	c.JSON(http.StatusOK, dto.NewPaginated(resp, total, page, requestURL(c)))
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var in dto.CreateCategoryDTO
	if !bindJSON(c, &in) {
		return
	}
	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	cat := models.Category{Name: in.Name, Slug: in.Slug}
	if err := h.svc.Create(ctx, &cat); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.CategoryFromModel(cat))
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	if err := h.svc.Delete(ctx, c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type GenreHandler struct {
	svc service.GenreService
	cfg Config
}

func NewGenreHandler(svc service.GenreService, cfg Config) *GenreHandler {
	return &GenreHandler{svc: svc, cfg: cfg}
}

func (h *GenreHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.Use(middleware.AdminOrReadOnly())
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.DELETE("/:slug", h.Delete)
}

func (h *GenreHandler) List(c *gin.Context) {
	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	page := h.cfg.page(c)
	list, total, err := h.svc.List(ctx, c.Query("search"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]dto.GenreResponse, 0, len(list))
	for _, g := range list {
		resp = append(resp, dto.GenreFromModel(g))
	}
	c.JSON(http.StatusOK, dto.NewPaginated(resp, total, page, requestURL(c)))
}

func (h *GenreHandler) Create(c *gin.Context) {
	var in dto.CreateGenreDTO
	if !bindJSON(c, &in) {
		return
	}
	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	g := models.Genre{Name: in.Name, Slug: in.Slug}
	if err := h.svc.Create(ctx, &g); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.GenreFromModel(g))
}

func (h *GenreHandler) Delete(c *gin.Context) {
	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	if err := h.svc.Delete(ctx, c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
