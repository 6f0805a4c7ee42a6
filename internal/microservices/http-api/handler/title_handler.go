package handler

import (
	"net/http"
	"strconv"
	"strings"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type TitleHandler struct {
	svc service.TitleService
	cfg Config
}

func NewTitleHandler(svc service.TitleService, cfg Config) *TitleHandler {
	return &TitleHandler{svc: svc, cfg: cfg}
}

// RegisterRoutes mounts the title collection on rg. The gate is applied per
// route so nested review routes under the same group keep their own policy.
func (h *TitleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	gate := middleware.AdminOrReadOnly()
	rg.GET("", gate, h.List)
	rg.POST("", gate, h.Create)
	rg.GET("/:title_id", gate, h.Get)
	rg.PATCH("/:title_id", gate, h.Update)
	rg.DELETE("/:title_id", gate, h.Delete)
}

func (h *TitleHandler) List(c *gin.Context) {
	filter := repository.TitleFilter{
		Name:     c.Query("name"),
		Genre:    c.Query("genre"),
		Category: c.Query("category"),
	}
	if y := strings.TrimSpace(c.Query("year")); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  "validation failed",
				"fields": map[string][]string{"year": {"Enter a whole number."}},
			})
			return
		}
		filter.Year = &year
	}

	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	page := h.cfg.page(c)
	list, total, err := h.svc.List(ctx, filter, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginated(list, total, page, requestURL(c)))
}

func (h *TitleHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "title_id")
	if !ok {
		return
	}
	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	view, err := h.svc.Get(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *TitleHandler) Create(c *gin.Context) {
	var in dto.CreateTitleDTO
	if !bindJSON(c, &in) {
		return
	}
	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	view, err := h.svc.Create(ctx, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *TitleHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "title_id")
	if !ok {
		return
	}
	var in dto.UpdateTitleDTO
	if !bindJSON(c, &in) {
		return
	}
	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	view, err := h.svc.Update(ctx, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *TitleHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "title_id")
	if !ok {
		return
	}
	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	if err := h.svc.Delete(ctx, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
