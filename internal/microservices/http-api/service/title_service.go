package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"yamdb/internal/logging"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
)

// TitleCache holds rendered title views. Implementations must treat a nil
// receiver as a disabled cache.
type TitleCache interface {
	Get(ctx context.Context, id int64) (*dto.TitleResponse, error)
	Set(ctx context.Context, view *dto.TitleResponse) error
	Invalidate(ctx context.Context, id int64) error
	InvalidateAll(ctx context.Context) error
}

type TitleService interface {
	List(ctx context.Context, f repository.TitleFilter, page dto.Page) ([]dto.TitleResponse, int64, error)
	Get(ctx context.Context, id int64) (*dto.TitleResponse, error)
	Create(ctx context.Context, in dto.CreateTitleDTO) (*dto.TitleResponse, error)
	Update(ctx context.Context, id int64, in dto.UpdateTitleDTO) (*dto.TitleResponse, error)
	Delete(ctx context.Context, id int64) error
}

type titleService struct {
	titles     repository.TitleRepository
	genres     repository.GenreRepository
	categories repository.CategoryRepository
	cache      TitleCache
	now        func() time.Time
}

func NewTitleService(
	titles repository.TitleRepository,
	genres repository.GenreRepository,
	categories repository.CategoryRepository,
	cache TitleCache,
) TitleService {
	return &titleService{
		titles:     titles,
		genres:     genres,
		categories: categories,
		cache:      cache,
		now:        time.Now,
	}
}

// ValidateYear accepts 0 < year <= the current calendar year.
func ValidateYear(year int, now time.Time) error {
	if year <= 0 {
		return fieldError("year", "Ensure this value is greater than 0.")
	}
	if year > now.Year() {
		return fieldError("year", fmt.Sprintf("Year cannot be later than %d.", now.Year()))
	}
	return nil
}

func (s *titleService) List(ctx context.Context, f repository.TitleFilter, page dto.Page) ([]dto.TitleResponse, int64, error) {
	list, total, err := s.titles.List(ctx, f, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.TitleResponse, 0, len(list))
	for _, t := range list {
		out = append(out, dto.TitleFromModel(t))
	}
	return out, total, nil
}

func (s *titleService) Get(ctx context.Context, id int64) (*dto.TitleResponse, error) {
	cached, err := s.cache.Get(ctx, id)
	if err != nil {
		logging.Warn().Err(err).Int64("title_id", id).Msg("title cache read failed")
	}
	if cached != nil {
		return cached, nil
	}

	view, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, view); err != nil {
		logging.Warn().Err(err).Int64("title_id", id).Msg("title cache write failed")
	}
	return view, nil
}

func (s *titleService) load(ctx context.Context, id int64) (*dto.TitleResponse, error) {
	t, err := s.titles.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(fmt.Sprintf("title %d", id), err)
	}
	view := dto.TitleFromModel(*t)
	return &view, nil
}

func (s *titleService) Create(ctx context.Context, in dto.CreateTitleDTO) (*dto.TitleResponse, error) {
	t := models.Title{Name: in.Name, Year: in.Year, Description: in.Description}

	errs := &ValidationError{Fields: map[string][]string{}}
	merge(errs, validateName(in.Name))
	if err := ValidateYear(in.Year, s.now()); err != nil {
		merge(errs, err)
	}
	genres, err := s.resolveGenres(ctx, in.Genre)
	if err != nil && !merge(errs, err) {
		return nil, err
	}
	t.Genres = genres
	if in.Category != nil {
		id, err := s.resolveCategory(ctx, *in.Category)
		if err != nil && !merge(errs, err) {
			return nil, err
		}
		t.CategoryID = id
	}
	if len(errs.Fields) > 0 {
		return nil, errs
	}

	if err := s.titles.Create(ctx, &t); err != nil {
		return nil, err
	}
	return s.load(ctx, t.ID)
}

func (s *titleService) Update(ctx context.Context, id int64, in dto.UpdateTitleDTO) (*dto.TitleResponse, error) {
	t, err := s.titles.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(fmt.Sprintf("title %d", id), err)
	}

	errs := &ValidationError{Fields: map[string][]string{}}
	if in.Name != nil {
		merge(errs, validateName(*in.Name))
		t.Name = *in.Name
	}
	if in.Year != nil {
		if err := ValidateYear(*in.Year, s.now()); err != nil {
			merge(errs, err)
		}
		t.Year = *in.Year
	}
	if in.Description != nil {
		t.Description = in.Description
	}
	replaceGenres := in.Genre != nil
	if replaceGenres {
		genres, err := s.resolveGenres(ctx, *in.Genre)
		if err != nil && !merge(errs, err) {
			return nil, err
		}
		t.Genres = genres
	}
	if in.Category != nil {
		catID, err := s.resolveCategory(ctx, *in.Category)
		if err != nil && !merge(errs, err) {
			return nil, err
		}
		t.CategoryID = catID
	}
	if len(errs.Fields) > 0 {
		return nil, errs
	}

	if err := s.titles.Update(ctx, t, replaceGenres); err != nil {
		return nil, notFound(fmt.Sprintf("title %d", id), err)
	}
	s.invalidate(ctx, id)
	return s.load(ctx, id)
}

func (s *titleService) Delete(ctx context.Context, id int64) error {
	if err := s.titles.Delete(ctx, id); err != nil {
		return notFound(fmt.Sprintf("title %d", id), err)
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *titleService) invalidate(ctx context.Context, id int64) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		logging.Warn().Err(err).Int64("title_id", id).Msg("title cache invalidation failed")
	}
}

// resolveGenres maps slugs to genre rows, reporting every unknown slug.
func (s *titleService) resolveGenres(ctx context.Context, slugs []string) ([]models.Genre, error) {
	unique := make([]string, 0, len(slugs))
	seen := make(map[string]bool, len(slugs))
	for _, slug := range slugs {
		if !seen[slug] {
			seen[slug] = true
			unique = append(unique, slug)
		}
	}
	if len(unique) == 0 {
		return []models.Genre{}, nil
	}

	found, err := s.genres.FindBySlugs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(found) == len(unique) {
		return found, nil
	}

	have := make(map[string]bool, len(found))
	for _, g := range found {
		have[g.Slug] = true
	}
	verr := &ValidationError{Fields: map[string][]string{}}
	for _, slug := range unique {
		if !have[slug] {
			verr.Fields["genre"] = append(verr.Fields["genre"], slugMissing(slug))
		}
	}
	return nil, verr
}

func (s *titleService) resolveCategory(ctx context.Context, slug string) (*int64, error) {
	c, err := s.categories.FindBySlug(ctx, slug)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fieldError("category", slugMissing(slug))
		}
		return nil, err
	}
	return &c.ID, nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fieldError("name", "This field may not be blank.")
	}
	return nil
}

func slugMissing(slug string) string {
	return fmt.Sprintf("Object with slug=%s does not exist.", slug)
}

// merge folds a ValidationError into dst and reports whether err was one.
func merge(dst *ValidationError, err error) bool {
	verr, ok := err.(*ValidationError)
	if !ok {
		return false
	}
	for k, msgs := range verr.Fields {
		dst.Fields[k] = append(dst.Fields[k], msgs...)
	}
	return true
}
