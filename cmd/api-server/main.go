package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yamdb/database"
	"yamdb/internal/cache"
	"yamdb/internal/config"
	"yamdb/internal/logging"
	"yamdb/internal/mail"
	"yamdb/internal/microservices/http-api/handler"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/router"
	"yamdb/internal/microservices/http-api/service"
	"yamdb/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("could not load config")
	}

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := validation.RegisterWithGin(); err != nil {
		logging.Fatal().Err(err).Msg("could not register validators")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("could not connect to the database")
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		logging.Fatal().Err(err).Msg("could not migrate the database")
	}

	// Redis is optional; without it the title cache is a no-op
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = cache.NewClient(cfg.RedisURL)
		if err != nil {
			logging.Warn().Err(err).Msg("redis unavailable, title cache disabled")
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}
	titleCache := cache.NewTitleCache(rdb, cfg.CacheTTL)

	sender, err := mail.NewSender(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("could not configure email")
	}

	engine := router.New(buildServices(db, cfg, sender, titleCache), router.Options{
		Handler: handler.Config{
			RequestTimeout: cfg.RequestTimeout,
			PageSize:       cfg.PageSize,
			MaxPageSize:    cfg.MaxPageSize,
		},
		AuthLimiter:    middleware.NewIPRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst),
		MetricsEnabled: cfg.PrometheusEnabled,
		Ping:           func(ctx context.Context) error { return database.Ping(ctx, db) },
	})

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", logging.RequestIDHeader},
		ExposedHeaders:   []string{logging.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           corsHandler(engine),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("api server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logging.Info().Msg("received shutdown signal")
	case err := <-errChan:
		logging.Error().Err(err).Msg("server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
	logging.Info().Msg("server stopped")
}

func buildServices(db *gorm.DB, cfg *config.Config, sender mail.Sender, titleCache *cache.TitleCache) router.Services {
	users := repository.NewUserRepository(db)
	categories := repository.NewCategoryRepo(db)
	genres := repository.NewGenreRepo(db)
	titles := repository.NewTitleRepo(db)
	reviews := repository.NewReviewRepository(db)
	comments := repository.NewCommentRepository(db)

	tokens := service.NewJWTIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)

	return router.Services{
		Auth:       service.NewAuthService(users, sender, tokens, cfg),
		Users:      service.NewUserService(users, titleCache),
		Categories: service.NewCategoryService(categories, titleCache),
		Genres:     service.NewGenreService(genres, titleCache),
		Titles:     service.NewTitleService(titles, genres, categories, titleCache),
		Reviews:    service.NewReviewService(reviews, titles, titleCache),
		Comments:   service.NewCommentService(comments, reviews),
	}
}
