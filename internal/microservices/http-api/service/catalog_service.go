package service

import (
	"context"
	"errors"
	"fmt"

	"yamdb/internal/logging"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
)

const duplicateSlugMsg = "An object with this slug already exists."

type CategoryService interface {
	List(ctx context.Context, search string, page dto.Page) ([]models.Category, int64, error)
	Create(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, slug string) error
}

type categoryService struct {
	repo  repository.CategoryRepository
	cache TitleCache
}

func NewCategoryService(repo repository.CategoryRepository, cache TitleCache) CategoryService {
	return &categoryService{repo: repo, cache: cache}
}

func (s *categoryService) List(ctx context.Context, search string, page dto.Page) ([]models.Category, int64, error) {
	return s.repo.List(ctx, search, page.Limit, page.Offset)
}

func (s *categoryService) Create(ctx context.Context, c *models.Category) error {
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return fieldError("slug", duplicateSlugMsg)
		}
		return err
	}
	return nil
}

// Delete removes the category; its titles keep existing with no category.
func (s *categoryService) Delete(ctx context.Context, slug string) error {
	if err := s.repo.DeleteBySlug(ctx, slug); err != nil {
		return notFound(fmt.Sprintf("category %q", slug), err)
	}
	invalidateAllTitles(ctx, s.cache)
	return nil
}

type GenreService interface {
	List(ctx context.Context, search string, page dto.Page) ([]models.Genre, int64, error)
	Create(ctx context.Context, g *models.Genre) error
	Delete(ctx context.Context, slug string) error
}

type genreService struct {
	repo  repository.GenreRepository
	cache TitleCache
}

func NewGenreService(repo repository.GenreRepository, cache TitleCache) GenreService {
	return &genreService{repo: repo, cache: cache}
}

func (s *genreService) List(ctx context.Context, search string, page dto.Page) ([]models.Genre, int64, error) {
	return s.repo.List(ctx, search, page.Limit, page.Offset)
}

func (s *genreService) Create(ctx context.Context, g *models.Genre) error {
	if err := s.repo.Create(ctx, g); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return fieldError("slug", duplicateSlugMsg)
		}
		return err
	}
	return nil
}

// Delete removes the genre and detaches it from every title.
func (s *genreService) Delete(ctx context.Context, slug string) error {
	if err := s.repo.DeleteBySlug(ctx, slug); err != nil {
		return notFound(fmt.Sprintf("genre %q", slug), err)
	}
	invalidateAllTitles(ctx, s.cache)
	return nil
}

func invalidateAllTitles(ctx context.Context, cache TitleCache) {
	if err := cache.InvalidateAll(ctx); err != nil {
		logging.Warn().Err(err).Msg("failed to flush title cache")
	}
}
