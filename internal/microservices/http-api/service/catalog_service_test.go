package service

import (
	"context"
	"fmt"
	"testing"

	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCategoryCreate_DuplicateSlug(t *testing.T) {
	ctx := context.Background()
	repo := new(MockCategoryRepository)
	svc := NewCategoryService(repo, new(MockTitleCache))

	c := &models.Category{Name: "Film", Slug: "film"}
	repo.On("Create", ctx, c).Return(fmt.Errorf("create category: %w", repository.ErrDuplicate))

	err := svc.Create(ctx, c)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "slug")
}

func TestCategoryDelete(t *testing.T) {
	ctx := context.Background()
	repo := new(MockCategoryRepository)
	cache := new(MockTitleCache)
	svc := NewCategoryService(repo, cache)

	repo.On("DeleteBySlug", ctx, "film").Return(nil)
	cache.On("InvalidateAll", ctx).Return(nil)
	require.NoError(t, svc.Delete(ctx, "film"))
	cache.AssertExpectations(t)

	repo.On("DeleteBySlug", ctx, "ghost").Return(gorm.ErrRecordNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "ghost"), ErrNotFound)
}

func TestGenreCreateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := new(MockGenreRepository)
	cache := new(MockTitleCache)
	svc := NewGenreService(repo, cache)

	g := &models.Genre{Name: "Drama", Slug: "drama"}
	repo.On("Create", ctx, g).Return(nil)
	require.NoError(t, svc.Create(ctx, g))

	dup := &models.Genre{Name: "Drama 2", Slug: "drama"}
	repo.On("Create", ctx, dup).Return(repository.ErrDuplicate)
	assert.ErrorIs(t, svc.Create(ctx, dup), ErrValidation)

	repo.On("DeleteBySlug", ctx, "drama").Return(nil)
	cache.On("InvalidateAll", ctx).Return(nil)
	require.NoError(t, svc.Delete(ctx, "drama"))
}
