package dto

import "yamdb/internal/microservices/http-api/models"

// CreateTitleDTO is the write schema: genre and category are referenced by slug.
type CreateTitleDTO struct {
	Name        string   `json:"name" binding:"required,max=256"`
	Year        int      `json:"year" binding:"required"`
	Description *string  `json:"description"`
	Genre       []string `json:"genre" binding:"omitempty,dive,max=50"`
	Category    *string  `json:"category" binding:"omitempty,max=50"`
}

// UpdateTitleDTO for PATCH; nil fields are kept. An explicit null category
// cannot be told apart from a missing one, so clearing it is not supported.
type UpdateTitleDTO struct {
	Name        *string   `json:"name" binding:"omitempty,min=1,max=256"`
	Year        *int      `json:"year"`
	Description *string   `json:"description"`
	Genre       *[]string `json:"genre" binding:"omitempty,dive,max=50"`
	Category    *string   `json:"category" binding:"omitempty,max=50"`
}

// TitleResponse is the read schema.
type TitleResponse struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Year        int               `json:"year"`
	Rating      *float64          `json:"rating"`
	Description *string           `json:"description"`
	Genre       []GenreResponse   `json:"genre"`
	Category    *CategoryResponse `json:"category"`
}

func TitleFromModel(t models.Title) TitleResponse {
	genres := make([]GenreResponse, 0, len(t.Genres))
	for _, g := range t.Genres {
		genres = append(genres, GenreFromModel(g))
	}
	var category *CategoryResponse
	if t.Category != nil {
		c := CategoryFromModel(*t.Category)
		category = &c
	}
	return TitleResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      t.Rating,
		Description: t.Description,
		Genre:       genres,
		Category:    category,
	}
}
