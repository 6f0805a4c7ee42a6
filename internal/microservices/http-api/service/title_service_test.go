package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

type titleFixture struct {
	titles     *MockTitleRepository
	genres     *MockGenreRepository
	categories *MockCategoryRepository
	cache      *MockTitleCache
	svc        *titleService
}

func newTitleFixture() *titleFixture {
	f := &titleFixture{
		titles:     new(MockTitleRepository),
		genres:     new(MockGenreRepository),
		categories: new(MockCategoryRepository),
		cache:      new(MockTitleCache),
	}
	f.svc = NewTitleService(f.titles, f.genres, f.categories, f.cache).(*titleService)
	f.svc.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return f
}

func TestValidateYear(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, ValidateYear(1895, now))
	assert.NoError(t, ValidateYear(2024, now))
	assert.ErrorIs(t, ValidateYear(2025, now), ErrValidation)
	assert.ErrorIs(t, ValidateYear(0, now), ErrValidation)
	assert.ErrorIs(t, ValidateYear(-1, now), ErrValidation)
}

func TestTitleCreate_ReturnsReadSchema(t *testing.T) {
	ctx := context.Background()
	f := newTitleFixture()

	drama := models.Genre{ID: 1, Name: "Drama", Slug: "drama"}
	film := &models.Category{ID: 3, Name: "Film", Slug: "film"}

	f.genres.On("FindBySlugs", ctx, []string{"drama"}).Return([]models.Genre{drama}, nil)
	f.categories.On("FindBySlug", ctx, "film").Return(film, nil)
	f.titles.On("Create", ctx, mock.MatchedBy(func(t *models.Title) bool {
		return t.Name == "Stalker" && *t.CategoryID == 3 && len(t.Genres) == 1
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Title).ID = 10
	}).Return(nil)
	f.titles.On("GetByID", ctx, int64(10)).Return(&models.Title{
		ID: 10, Name: "Stalker", Year: 1979, Category: film, Genres: []models.Genre{drama},
	}, nil)

	view, err := f.svc.Create(ctx, dto.CreateTitleDTO{
		Name:     "Stalker",
		Year:     1979,
		Genre:    []string{"drama", "drama"},
		Category: strPtr("film"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), view.ID)
	assert.Nil(t, view.Rating)
	require.NotNil(t, view.Category)
	assert.Equal(t, "film", view.Category.Slug)
	assert.Equal(t, []dto.GenreResponse{{Name: "Drama", Slug: "drama"}}, view.Genre)
}

func TestTitleCreate_CollectsFieldErrors(t *testing.T) {
	ctx := context.Background()
	f := newTitleFixture()

	f.genres.On("FindBySlugs", ctx, []string{"drama", "nope"}).Return([]models.Genre{{ID: 1, Slug: "drama"}}, nil)
	f.categories.On("FindBySlug", ctx, "missing").Return(nil, gorm.ErrRecordNotFound)

	_, err := f.svc.Create(ctx, dto.CreateTitleDTO{
		Name:     "Future",
		Year:     3000,
		Genre:    []string{"drama", "nope"},
		Category: strPtr("missing"),
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "year")
	assert.Equal(t, []string{"Object with slug=nope does not exist."}, verr.Fields["genre"])
	assert.Contains(t, verr.Fields, "category")
	f.titles.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTitleCreate_RepositoryFailureIsNotValidation(t *testing.T) {
	ctx := context.Background()
	f := newTitleFixture()
	f.genres.On("FindBySlugs", ctx, []string{"drama"}).Return(nil, errors.New("db down"))

	_, err := f.svc.Create(ctx, dto.CreateTitleDTO{Name: "X", Year: 2000, Genre: []string{"drama"}})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestTitleGet_UsesCache(t *testing.T) {
	ctx := context.Background()

	t.Run("hit", func(t *testing.T) {
		f := newTitleFixture()
		f.cache.On("Get", ctx, int64(1)).Return(&dto.TitleResponse{ID: 1, Name: "cached"}, nil)

		view, err := f.svc.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "cached", view.Name)
		f.titles.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("miss fills the cache", func(t *testing.T) {
		f := newTitleFixture()
		rating := 7.5
		f.cache.On("Get", ctx, int64(1)).Return(nil, nil)
		f.titles.On("GetByID", ctx, int64(1)).Return(&models.Title{ID: 1, Name: "fresh", Rating: &rating}, nil)
		f.cache.On("Set", ctx, mock.MatchedBy(func(v *dto.TitleResponse) bool { return v.Name == "fresh" })).Return(nil)

		view, err := f.svc.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 7.5, *view.Rating)
		f.cache.AssertExpectations(t)
	})

	t.Run("cache errors do not fail the read", func(t *testing.T) {
		f := newTitleFixture()
		f.cache.On("Get", ctx, int64(1)).Return(nil, errors.New("redis down"))
		f.titles.On("GetByID", ctx, int64(1)).Return(&models.Title{ID: 1, Name: "fresh"}, nil)
		f.cache.On("Set", ctx, mock.Anything).Return(errors.New("redis down"))

		view, err := f.svc.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "fresh", view.Name)
	})

	t.Run("missing title", func(t *testing.T) {
		f := newTitleFixture()
		f.cache.On("Get", ctx, int64(404)).Return(nil, nil)
		f.titles.On("GetByID", ctx, int64(404)).Return(nil, gorm.ErrRecordNotFound)

		_, err := f.svc.Get(ctx, 404)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestTitleUpdate_PartialAndInvalidates(t *testing.T) {
	ctx := context.Background()
	f := newTitleFixture()

	current := &models.Title{ID: 5, Name: "Old", Year: 1990, Genres: []models.Genre{{ID: 1, Slug: "drama"}}}
	f.titles.On("GetByID", ctx, int64(5)).Return(current, nil).Once()
	f.titles.On("Update", ctx, mock.MatchedBy(func(t *models.Title) bool {
		return t.Name == "New" && t.Year == 1990
	}), false).Return(nil)
	f.cache.On("Invalidate", ctx, int64(5)).Return(nil)
	f.titles.On("GetByID", ctx, int64(5)).Return(&models.Title{ID: 5, Name: "New", Year: 1990}, nil).Once()

	view, err := f.svc.Update(ctx, 5, dto.UpdateTitleDTO{Name: strPtr("New")})
	require.NoError(t, err)
	assert.Equal(t, "New", view.Name)
	f.cache.AssertExpectations(t)
	f.genres.AssertNotCalled(t, "FindBySlugs", mock.Anything, mock.Anything)
}

func TestTitleUpdate_RejectsBlankName(t *testing.T) {
	ctx := context.Background()
	f := newTitleFixture()
	f.titles.On("GetByID", ctx, int64(5)).Return(&models.Title{ID: 5, Name: "Old", Year: 1990}, nil)

	for _, name := range []string{"", "   "} {
		_, err := f.svc.Update(ctx, 5, dto.UpdateTitleDTO{Name: strPtr(name)})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "name %q", name)
		assert.Contains(t, verr.Fields, "name")
	}
	f.titles.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestTitleCreate_RejectsBlankName(t *testing.T) {
	ctx := context.Background()
	f := newTitleFixture()

	_, err := f.svc.Create(ctx, dto.CreateTitleDTO{Name: "  ", Year: 2000})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	f.titles.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTitleUpdate_ReplacesGenres(t *testing.T) {
	ctx := context.Background()
	f := newTitleFixture()

	f.titles.On("GetByID", ctx, int64(5)).Return(&models.Title{ID: 5, Name: "T", Year: 2000}, nil)
	f.genres.On("FindBySlugs", ctx, []string{"comedy"}).Return([]models.Genre{{ID: 2, Slug: "comedy"}}, nil)
	f.titles.On("Update", ctx, mock.Anything, true).Return(nil)
	f.cache.On("Invalidate", ctx, int64(5)).Return(nil)

	_, err := f.svc.Update(ctx, 5, dto.UpdateTitleDTO{Genre: &[]string{"comedy"}, Year: intPtr(2001)})
	require.NoError(t, err)
	f.titles.AssertCalled(t, "Update", ctx, mock.MatchedBy(func(t *models.Title) bool {
		return t.Year == 2001 && len(t.Genres) == 1 && t.Genres[0].Slug == "comedy"
	}), true)
}

func TestTitleDelete(t *testing.T) {
	ctx := context.Background()
	f := newTitleFixture()

	f.titles.On("Delete", ctx, int64(1)).Return(nil)
	f.cache.On("Invalidate", ctx, int64(1)).Return(nil)
	require.NoError(t, f.svc.Delete(ctx, 1))

	f.titles.On("Delete", ctx, int64(2)).Return(gorm.ErrRecordNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, 2), ErrNotFound)
}
