package service

import (
	"context"

	"scribe/internal/forms"
	"scribe/internal/models"
	"scribe/internal/observability"
	"scribe/internal/repository"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

type AddCommentInput struct {
	PostID   uint
	AuthorID uint
	Values   forms.Values
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo, postRepo: postRepo}
}

// Add stores a comment on an existing post. An empty text yields a *FormError
// and nothing is written.
func (s *CommentService) Add(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	if in.AuthorID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if _, err := s.postRepo.GetByID(ctx, in.PostID); err != nil {
		return nil, err
	}

	comment := &models.Comment{PostID: in.PostID, AuthorID: in.AuthorID}
	errs, err := forms.CommentSchema().Bind(ctx, in.Values, comment)
	if err != nil {
		return nil, err
	}
	if err := formError(errs); err != nil {
		return nil, err
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	observability.ContentCreated.WithLabelValues("comment").Inc()
	return comment, nil
}
