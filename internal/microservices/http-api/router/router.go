// Package router assembles the /api/v1 route table.
package router

import (
	"context"
	"net/http"
	"time"

	"yamdb/internal/logging"
	"yamdb/internal/metrics"
	"yamdb/internal/microservices/http-api/handler"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

// Services are the collaborators the handlers need.
type Services struct {
	Auth       service.AuthService
	Users      service.UserService
	Categories service.CategoryService
	Genres     service.GenreService
	Titles     service.TitleService
	Reviews    service.ReviewService
	Comments   service.CommentService
}

type Options struct {
	Handler        handler.Config
	AuthLimiter    *middleware.IPRateLimiter // nil disables throttling
	MetricsEnabled bool
	// Ping backs /healthz; nil reports healthy unconditionally.
	Ping func(ctx context.Context) error
}

func New(svc Services, opts Options) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(logging.GinLogger())
	if opts.MetricsEnabled {
		r.Use(metrics.Middleware())
		r.GET("/metrics", metrics.Handler())
	}

	r.GET("/healthz", healthz(opts.Ping))

	api := r.Group("/api/v1")
	api.Use(middleware.Authenticate(svc.Auth))

	handler.NewAuthHandler(svc.Auth, opts.Handler).RegisterRoutes(api.Group("/auth"), opts.AuthLimiter)
	handler.NewUserHandler(svc.Users, opts.Handler).RegisterRoutes(api.Group("/users"))
	handler.NewCategoryHandler(svc.Categories, opts.Handler).RegisterRoutes(api.Group("/categories"))
	handler.NewGenreHandler(svc.Genres, opts.Handler).RegisterRoutes(api.Group("/genres"))

	titles := api.Group("/titles")
	handler.NewTitleHandler(svc.Titles, opts.Handler).RegisterRoutes(titles)
	handler.NewReviewHandler(svc.Reviews, opts.Handler).RegisterRoutes(titles.Group("/:title_id/reviews"))
	handler.NewCommentHandler(svc.Comments, opts.Handler).RegisterRoutes(titles.Group("/:title_id/reviews/:review_id/comments"))

	return r
}

func healthz(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				logging.Warn().Err(err).Msg("health check failed")
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
