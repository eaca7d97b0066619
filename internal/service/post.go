package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dailybite/dailybite/internal/apperror"
	"github.com/dailybite/dailybite/internal/model"
	"github.com/dailybite/dailybite/internal/repository"
)

const MaxPostTitleLength = 200

// PostService handles the legacy blog endpoints. The rules are thin — a
// title and content are required, published defaults to true — but they
// live here rather than the handler so the CRUD surface behaves the same
// for any caller.
type PostService struct {
	posts  repository.PostRepository
	logger *slog.Logger
}

// NewPostService creates a PostService.
func NewPostService(posts repository.PostRepository, logger *slog.Logger) *PostService {
	return &PostService{posts: posts, logger: logger}
}

// Create validates and saves a new blog post.
func (s *PostService) Create(ctx context.Context, title, content string, published bool) (*model.BlogPost, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxPostTitleLength {
		return nil, apperror.ValidationFailed("title", "title is too long")
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperror.ValidationFailed("content", "content is required")
	}

	post := &model.BlogPost{
		Title:     title,
		Content:   content,
		Published: published,
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	s.logger.Info("blog post created", slog.String("postID", post.ID))

	return post, nil
}

// Get returns a single post.
func (s *PostService) Get(ctx context.Context, id string) (*model.BlogPost, error) {
	return s.posts.GetByID(ctx, id)
}

// List returns posts with pagination, optionally only published ones.
func (s *PostService) List(ctx context.Context, limit, offset int, publishedOnly bool) ([]model.BlogPost, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.posts.List(ctx, repository.ListOptions{Limit: limit, Offset: offset}, publishedOnly)
}

// Update applies a merge-patch to a post.
func (s *PostService) Update(ctx context.Context, id string, patch model.BlogPostPatch) (*model.BlogPost, error) {
	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		if trimmed == "" {
			return nil, apperror.ValidationFailed("title", "title cannot be empty")
		}
		if len(trimmed) > MaxPostTitleLength {
			return nil, apperror.ValidationFailed("title", "title is too long")
		}
		patch.Title = &trimmed
	}

	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Merge(post)

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// Delete removes a post. Absent posts surface as NotFound.
func (s *PostService) Delete(ctx context.Context, id string) error {
	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("blog post deleted", slog.String("postID", id))
	return nil
}
