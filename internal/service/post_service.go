// Package service contains the business logic between handlers and repositories.
package service

import (
	"context"

	"inkwell/internal/auth"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// PostService orchestrates post writes. Every owner-scoped mutation runs the
// same sequence: existence check, then authorization, then the transactional
// repository call. Existence is always checked first so a missing post
// reports NotFound rather than Forbidden.
type PostService struct {
	postRepo repository.PostRepository
}

type CreatePostInput struct {
	Principal models.Principal
	Title     string
	Content   string
	Status    models.PostStatus
	Tags      []string
}

// UpdatePostInput carries the new field values. Tags is a pointer because
// presence is the signal: nil leaves the association set unchanged, an empty
// non-nil slice clears it.
type UpdatePostInput struct {
	Principal models.Principal
	PostID    uint
	Title     string
	Content   string
	Status    models.PostStatus
	Tags      *[]string
}

type DeletePostInput struct {
	Principal models.Principal
	PostID    uint
}

// NewPostService returns a PostService backed by the given repository.
func NewPostService(postRepo repository.PostRepository) *PostService {
	return &PostService{postRepo: postRepo}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	span, ctx := observability.NewSpan(ctx, "PostService.CreatePost")
	defer span.End()
	span.AddAttributes(attribute.Int("tags.count", len(in.Tags)))

	if in.Title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}

	status := in.Status
	if status == "" {
		status = models.PostStatusDraft
	}
	if !status.Valid() {
		return nil, models.NewValidationError("Invalid status")
	}

	post := &models.Post{
		Title:   in.Title,
		Content: in.Content,
		UserID:  in.Principal.ID,
		Status:  status,
	}
	if err := s.postRepo.CreateWithTags(ctx, post, in.Tags); err != nil {
		span.SetError(err)
		return nil, err
	}

	return s.postRepo.GetByID(ctx, post.ID)
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// GetPostsByTag returns all posts carrying the exact tag name. No
// authentication is required for reads.
func (s *PostService) GetPostsByTag(ctx context.Context, tagName string) ([]*models.Post, error) {
	if tagName == "" {
		return nil, models.NewValidationError("Tag name is required")
	}
	return s.postRepo.ListByTag(ctx, tagName)
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	span, ctx := observability.NewSpan(ctx, "PostService.UpdatePost")
	defer span.End()

	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if !auth.Allow(in.Principal, post.UserID) {
		return nil, models.NewForbiddenError("You can only update your own posts")
	}

	if in.Title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}

	status := in.Status
	if status == "" {
		status = post.Status
	}
	if !status.Valid() {
		return nil, models.NewValidationError("Invalid status")
	}

	post.Title = in.Title
	post.Content = in.Content
	post.Status = status

	var tags []string
	replace := in.Tags != nil
	if replace {
		tags = *in.Tags
	}
	if err := s.postRepo.UpdateWithTags(ctx, post, tags, replace); err != nil {
		span.SetError(err)
		return nil, err
	}

	return s.postRepo.GetByID(ctx, post.ID)
}

func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return err
	}
	if !auth.Allow(in.Principal, post.UserID) {
		return models.NewForbiddenError("You can only delete your own posts")
	}

	return s.postRepo.Delete(ctx, in.PostID)
}
