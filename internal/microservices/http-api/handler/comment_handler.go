package handler

import (
	"net/http"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	svc service.CommentService
	cfg Config
}

func NewCommentHandler(svc service.CommentService, cfg Config) *CommentHandler {
	return &CommentHandler{svc: svc, cfg: cfg}
}

// RegisterRoutes expects rg to be /titles/:title_id/reviews/:review_id/comments.
func (h *CommentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.Use(middleware.AuthOrReadOnly())
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:comment_id", h.Get)
	rg.PATCH("/:comment_id", h.Update)
	rg.DELETE("/:comment_id", h.Delete)
}

// parents reads the title and review ids every comment route is nested under.
func parents(c *gin.Context) (titleID, reviewID int64, ok bool) {
	if titleID, ok = paramID(c, "title_id"); !ok {
		return
	}
	reviewID, ok = paramID(c, "review_id")
	return
}

func (h *CommentHandler) List(c *gin.Context) {
	titleID, reviewID, ok := parents(c)
	if !ok {
		return
	}
	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	page := h.cfg.page(c)
	list, total, err := h.svc.List(ctx, titleID, reviewID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]dto.CommentResponse, 0, len(list))
	for _, cm := range list {
		resp = append(resp, dto.CommentFromModel(cm))
	}
	c.JSON(http.StatusOK, dto.NewPaginated(resp, total, page, requestURL(c)))
}

func (h *CommentHandler) Get(c *gin.Context) {
	titleID, reviewID, ok := parents(c)
	if !ok {
		return
	}
	commentID, ok := paramID(c, "comment_id")
	if !ok {
		return
	}
	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	cm, err := h.svc.Get(ctx, titleID, reviewID, commentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CommentFromModel(*cm))
}

func (h *CommentHandler) Create(c *gin.Context) {
	titleID, reviewID, ok := parents(c)
	if !ok {
		return
	}
	var in dto.CreateCommentDTO
	if !bindJSON(c, &in) {
		return
	}
	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	cm, err := h.svc.Create(ctx, titleID, reviewID, middleware.CurrentUser(c), in.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.CommentFromModel(*cm))
}

func (h *CommentHandler) Update(c *gin.Context) {
	titleID, reviewID, ok := parents(c)
	if !ok {
		return
	}
	commentID, ok := paramID(c, "comment_id")
	if !ok {
		return
	}
	var in dto.CreateCommentDTO
	if !bindJSON(c, &in) {
		return
	}
	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	cm, err := h.svc.Update(ctx, titleID, reviewID, commentID, middleware.CurrentUser(c), in.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CommentFromModel(*cm))
}

func (h *CommentHandler) Delete(c *gin.Context) {
	titleID, reviewID, ok := parents(c)
	if !ok {
		return
	}
	commentID, ok := paramID(c, "comment_id")
	if !ok {
		return
	}
	ctx, cancel := h.cfg.withTimeout(c)
	defer cancel()

	if err := h.svc.Delete(ctx, titleID, reviewID, commentID, middleware.CurrentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
