package handler

import (
	"net/http"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	svc service.ReviewService
	cfg Config
}

func NewReviewHandler(svc service.ReviewService, cfg Config) *ReviewHandler {
	return &ReviewHandler{svc: svc, cfg: cfg}
}

// RegisterRoutes expects rg to be /titles/:title_id/reviews.
func (h *ReviewHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.Use(middleware.AuthOrReadOnly())
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:review_id", h.Get)
	rg.PATCH("/:review_id", h.Update)
	rg.DELETE("/:review_id", h.Delete)
}

func (h *ReviewHandler) List(c *gin.Context) {
	titleID, ok := paramID(c, "title_id")
	if !ok {
		return
	}
	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	page := h.cfg.page(c)
	list, total, err := h.svc.List(ctx, titleID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]dto.ReviewResponse, 0, len(list))
	for _, r := range list {
		resp = append(resp, dto.ReviewFromModel(r))
	}
	c.JSON(http.StatusOK, dto.NewPaginated(resp, total, page, requestURL(c)))
}

func (h *ReviewHandler) Get(c *gin.Context) {
	titleID, ok := paramID(c, "title_id")
	if !ok {
		return
	}
	reviewID, ok := paramID(c, "review_id")
	if !ok {
		return
	}
	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	r, err := h.svc.Get(ctx, titleID, reviewID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ReviewFromModel(*r))
}

func (h *ReviewHandler) Create(c *gin.Context) {
	titleID, ok := paramID(c, "title_id")
	if !ok {
		return
	}
	var in dto.CreateReviewDTO
	if !bindJSON(c, &in) {
		return
	}
	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	r, err := h.svc.Create(ctx, titleID, middleware.CurrentUser(c), in.Text, in.Score)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ReviewFromModel(*r))
}

func (h *ReviewHandler) Update(c *gin.Context) {
	titleID, ok := paramID(c, "title_id")
	if !ok {
		return
	}
	reviewID, ok := paramID(c, "review_id")
	if !ok {
		return
	}
	var in dto.UpdateReviewDTO
	if !bindJSON(c, &in) {
		return
	}
	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	r, err := h.svc.Update(ctx, titleID, reviewID, middleware.CurrentUser(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ReviewFromModel(*r))
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	titleID, ok := paramID(c, "title_id")
	if !ok {
		return
	}
	reviewID, ok := paramID(c, "review_id")
	if !ok {
		return
	}
	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	if err := h.svc.Delete(ctx, titleID, reviewID, middleware.CurrentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
