package repository

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"jsonblog-api/models"
)

var (
	ErrNotFound   = errors.New("post not found")
	ErrValidation = errors.New("validation failed")
)

// PostStore is implemented by every storage backend.
type PostStore interface {
	Create(ctx context.Context, req models.CreatePostReq) (*models.Post, error)
	List(ctx context.Context) ([]models.Post, error)
	GetByID(ctx context.Context, id int) (*models.Post, error)
	Update(ctx context.Context, id int, req models.UpdatePostReq) (*models.Post, error)
	IncrementLikes(ctx context.Context, id int) (*models.Post, error)
	Delete(ctx context.Context, id int) error
	Close() error
}

func validateCreate(req *models.CreatePostReq) error {
	if strings.TrimSpace(req.Title) == "" {
		return errors.Wrap(ErrValidation, "title is required")
	}
	if strings.TrimSpace(req.Content) == "" {
		return errors.Wrap(ErrValidation, "content is required")
	}
	if strings.TrimSpace(req.Author) == "" {
		req.Author = models.DefaultAuthor
	}
	return nil
}

func validateUpdate(req *models.UpdatePostReq) error {
	if req.Empty() {
		return errors.Wrap(ErrValidation, "nothing to update")
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return errors.Wrap(ErrValidation, "title must not be empty")
	}
	if req.Content != nil && strings.TrimSpace(*req.Content) == "" {
		return errors.Wrap(ErrValidation, "content must not be empty")
	}
	if req.Author != nil && strings.TrimSpace(*req.Author) == "" {
		author := models.DefaultAuthor
		req.Author = &author
	}
	return nil
}
