package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"yamdb/internal/logging"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/permission"
	"yamdb/internal/microservices/http-api/repository"
)

const (
	MinScore = 1
	MaxScore = 10
)

// ValidateScore accepts MinScore <= score <= MaxScore.
func ValidateScore(score int) error {
	if score < MinScore || score > MaxScore {
		return fieldError("score", fmt.Sprintf("Score must be between %d and %d.", MinScore, MaxScore))
	}
	return nil
}

var errAlreadyReviewed = fieldError("non_field_errors", "You have already reviewed this title.")

type ReviewService interface {
	List(ctx context.Context, titleID int64, page dto.Page) ([]models.Review, int64, error)
	Get(ctx context.Context, titleID, reviewID int64) (*models.Review, error)
	Create(ctx context.Context, titleID int64, author *models.User, text string, score int) (*models.Review, error)
	Update(ctx context.Context, titleID, reviewID int64, actor *models.User, in dto.UpdateReviewDTO) (*models.Review, error)
	Delete(ctx context.Context, titleID, reviewID int64, actor *models.User) error
}

type reviewService struct {
	reviews repository.ReviewRepository
	titles  repository.TitleRepository
	cache   TitleCache
}

func NewReviewService(reviews repository.ReviewRepository, titles repository.TitleRepository, cache TitleCache) ReviewService {
	return &reviewService{reviews: reviews, titles: titles, cache: cache}
}

func (s *reviewService) requireTitle(ctx context.Context, titleID int64) error {
	ok, err := s.titles.Exists(ctx, titleID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("title %d: %w", titleID, ErrNotFound)
	}
	return nil
}

func (s *reviewService) List(ctx context.Context, titleID int64, page dto.Page) ([]models.Review, int64, error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, 0, err
	}
	return s.reviews.ListByTitle(ctx, titleID, page.Limit, page.Offset)
}

func (s *reviewService) Get(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	r, err := s.reviews.GetByTitle(ctx, titleID, reviewID)
	if err != nil {
		return nil, notFound(fmt.Sprintf("review %d of title %d", reviewID, titleID), err)
	}
	return r, nil
}

func (s *reviewService) Create(ctx context.Context, titleID int64, author *models.User, text string, score int) (*models.Review, error) {
	if author == nil {
		return nil, ErrAuthentication
	}
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}
	if err := validateText(text); err != nil {
		return nil, err
	}
	if err := ValidateScore(score); err != nil {
		return nil, err
	}

	exists, err := s.reviews.ExistsByTitleAndAuthor(ctx, titleID, author.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errAlreadyReviewed
	}

	r := &models.Review{TitleID: titleID, AuthorID: author.ID, Text: text, Score: score}
	if err := s.reviews.Create(ctx, r); err != nil {
		// lost a race against a concurrent create by the same author
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errAlreadyReviewed
		}
		return nil, err
	}
	r.Author = *author
	s.invalidate(ctx, titleID)
	return r, nil
}

func (s *reviewService) Update(ctx context.Context, titleID, reviewID int64, actor *models.User, in dto.UpdateReviewDTO) (*models.Review, error) {
	r, err := s.Get(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := authorize(http.MethodPatch, actor, r.AuthorID); err != nil {
		return nil, err
	}

	if in.Text != nil {
		if err := validateText(*in.Text); err != nil {
			return nil, err
		}
		r.Text = *in.Text
	}
	if in.Score != nil {
		if err := ValidateScore(*in.Score); err != nil {
			return nil, err
		}
		r.Score = *in.Score
	}
	if err := s.reviews.Update(ctx, r); err != nil {
		return nil, err
	}
	s.invalidate(ctx, titleID)
	return r, nil
}

func (s *reviewService) Delete(ctx context.Context, titleID, reviewID int64, actor *models.User) error {
	r, err := s.Get(ctx, titleID, reviewID)
	if err != nil {
		return err
	}
	if err := authorize(http.MethodDelete, actor, r.AuthorID); err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, r.ID); err != nil {
		return notFound(fmt.Sprintf("review %d", reviewID), err)
	}
	s.invalidate(ctx, titleID)
	return nil
}

// invalidate drops the cached title view whose rating just changed.
func (s *reviewService) invalidate(ctx context.Context, titleID int64) {
	if err := s.cache.Invalidate(ctx, titleID); err != nil {
		logging.Warn().Err(err).Int64("title_id", titleID).Msg("title cache invalidation failed")
	}
}

// authorize is the object-level check for editing a review or comment.
func authorize(method string, actor *models.User, authorID string) error {
	if actor == nil {
		return ErrAuthentication
	}
	if !permission.IsAuthorOrElevatedOrReadOnly(method, actor, authorID) {
		return ErrPermission
	}
	return nil
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fieldError("text", "This field may not be blank.")
	}
	return nil
}
