package repository

import (
	"context"
	"fmt"
	"strings"

	"yamdb/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// TitleFilter narrows title listings; zero values mean "no filter".
type TitleFilter struct {
	Name     string
	Year     *int
	Genre    string // genre slug
	Category string // category slug
}

type TitleRepository interface {
	Create(ctx context.Context, t *models.Title) error
	Update(ctx context.Context, t *models.Title, replaceGenres bool) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Title, error)
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, f TitleFilter, limit, offset int) ([]models.Title, int64, error)
}

type TitleRepo struct {
	db *gorm.DB
}

func NewTitleRepo(db *gorm.DB) *TitleRepo {
	return &TitleRepo{db: db}
}

// withRating selects the aggregate rating next to every title column.
// AVG over zero rows is NULL, which leaves Title.Rating nil.
func withRating(q *gorm.DB) *gorm.DB {
	return q.
		Select("titles.*, AVG(reviews.score)::float8 AS rating").
		Joins("LEFT JOIN reviews ON reviews.title_id = titles.id").
		Group("titles.id").
		Preload("Category").
		Preload("Genres", func(db *gorm.DB) *gorm.DB { return db.Order("genres.name asc") })
}

func (r *TitleRepo) applyFilter(q *gorm.DB, f TitleFilter) *gorm.DB {
	if name := strings.TrimSpace(f.Name); name != "" {
		q = q.Where("titles.name"+ilikeEscape, ilike(name))
	}
	if f.Year != nil {
		q = q.Where("titles.year = ?", *f.Year)
	}
	if f.Genre != "" {
		sub := r.db.Table("title_genres").
			Select("title_genres.title_id").
			Joins("JOIN genres ON genres.id = title_genres.genre_id").
			Where("genres.slug = ?", f.Genre)
		q = q.Where("titles.id IN (?)", sub)
	}
	if f.Category != "" {
		sub := r.db.Model(&models.Category{}).Select("id").Where("slug = ?", f.Category)
		q = q.Where("titles.category_id IN (?)", sub)
	}
	return q
}

func (r *TitleRepo) List(ctx context.Context, f TitleFilter, limit, offset int) ([]models.Title, int64, error) {
	var list []models.Title
	var total int64

	q := r.applyFilter(r.db.WithContext(ctx).Model(&models.Title{}), f)
	q = q.Session(&gorm.Session{})

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count titles: %w", err)
	}

	if err := withRating(q).
		Order("titles.name asc").
		Order("titles.id asc").
		Limit(limit).
		Offset(offset).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list titles: %w", err)
	}
	return list, total, nil
}

func (r *TitleRepo) GetByID(ctx context.Context, id int64) (*models.Title, error) {
	var t models.Title
	if err := withRating(r.db.WithContext(ctx).Model(&models.Title{})).
		Where("titles.id = ?", id).
		Take(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TitleRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Title{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts the title and links t.Genres, which must already exist.
func (r *TitleRepo) Create(ctx context.Context, t *models.Title) error {
	// Genres.* omitted: link existing rows, never upsert them
	if err := r.db.WithContext(ctx).Omit("Category", "Genres.*").Create(t).Error; err != nil {
		return fmt.Errorf("create title: %w", translateError(err))
	}
	return nil
}

// Update writes the scalar columns and, when replaceGenres is set, swaps the
// genre links for t.Genres. Both happen in one transaction.
func (r *TitleRepo) Update(ctx context.Context, t *models.Title, replaceGenres bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Title{ID: t.ID}).
			Select("name", "year", "description", "category_id").
			Updates(map[string]any{
				"name":        t.Name,
				"year":        t.Year,
				"description": t.Description,
				"category_id": t.CategoryID,
			})
		if result.Error != nil {
			return fmt.Errorf("update title: %w", translateError(result.Error))
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if !replaceGenres {
			return nil
		}
		genres := t.Genres
		if genres == nil {
			genres = []models.Genre{}
		}
		if err := tx.Model(&models.Title{ID: t.ID}).Association("Genres").Replace(genres); err != nil {
			return fmt.Errorf("replace genres: %w", err)
		}
		return nil
	})
}

// Delete removes the title; reviews and their comments cascade in the database
func (r *TitleRepo) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Title{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete title: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
