package service

import (
	"context"
	"fmt"
	"net/http"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
)

type CommentService interface {
	List(ctx context.Context, titleID, reviewID int64, page dto.Page) ([]models.Comment, int64, error)
	Get(ctx context.Context, titleID, reviewID, commentID int64) (*models.Comment, error)
	Create(ctx context.Context, titleID, reviewID int64, author *models.User, text string) (*models.Comment, error)
	Update(ctx context.Context, titleID, reviewID, commentID int64, actor *models.User, text string) (*models.Comment, error)
	Delete(ctx context.Context, titleID, reviewID, commentID int64, actor *models.User) error
}

type commentService struct {
	comments repository.CommentRepository
	reviews  repository.ReviewRepository
}

func NewCommentService(comments repository.CommentRepository, reviews repository.ReviewRepository) CommentService {
	return &commentService{comments: comments, reviews: reviews}
}

// requireReview checks the review exists under the addressed title.
func (s *commentService) requireReview(ctx context.Context, titleID, reviewID int64) error {
	if _, err := s.reviews.GetByTitle(ctx, titleID, reviewID); err != nil {
		return notFound(fmt.Sprintf("review %d of title %d", reviewID, titleID), err)
	}
	return nil
}

func (s *commentService) List(ctx context.Context, titleID, reviewID int64, page dto.Page) ([]models.Comment, int64, error) {
	if err := s.requireReview(ctx, titleID, reviewID); err != nil {
		return nil, 0, err
	}
	return s.comments.ListByReview(ctx, reviewID, page.Limit, page.Offset)
}

func (s *commentService) Get(ctx context.Context, titleID, reviewID, commentID int64) (*models.Comment, error) {
	if err := s.requireReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	c, err := s.comments.GetByReview(ctx, reviewID, commentID)
	if err != nil {
		return nil, notFound(fmt.Sprintf("comment %d", commentID), err)
	}
	return c, nil
}

func (s *commentService) Create(ctx context.Context, titleID, reviewID int64, author *models.User, text string) (*models.Comment, error) {
	if author == nil {
		return nil, ErrAuthentication
	}
	if err := s.requireReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	if err := validateText(text); err != nil {
		return nil, err
	}

	c := &models.Comment{ReviewID: &reviewID, AuthorID: author.ID, Text: text}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	c.Author = *author
	return c, nil
}

func (s *commentService) Update(ctx context.Context, titleID, reviewID, commentID int64, actor *models.User, text string) (*models.Comment, error) {
	c, err := s.Get(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if err := authorize(http.MethodPatch, actor, c.AuthorID); err != nil {
		return nil, err
	}
	if err := validateText(text); err != nil {
		return nil, err
	}
	c.Text = text
	if err := s.comments.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *commentService) Delete(ctx context.Context, titleID, reviewID, commentID int64, actor *models.User) error {
	c, err := s.Get(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	if err := authorize(http.MethodDelete, actor, c.AuthorID); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, c.ID); err != nil {
		return notFound(fmt.Sprintf("comment %d", commentID), err)
	}
	return nil
}
