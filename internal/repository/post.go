package repository

import (
	"context"
	"errors"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations. Create and
// Update run as single atomic transactions covering the post row and its tag
// associations.
type PostRepository interface {
	CreateWithTags(ctx context.Context, post *models.Post, tags []string) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	ListByTag(ctx context.Context, tagName string) ([]*models.Post, error)
	UpdateWithTags(ctx context.Context, post *models.Post, tags []string, replaceTags bool) error
	Delete(ctx context.Context, id uint) error
}

type postRepository struct {
	db   *gorm.DB
	tags TagReconciler
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// CreateWithTags inserts the post and its tag associations in one
// transaction. Any failure, including a tag uniqueness race, rolls the whole
// thing back; the post either exists with its full tag set or not at all.
func (r *postRepository) CreateWithTags(ctx context.Context, post *models.Post, tags []string) error {
	defer observability.TrackQuery("create", "posts")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags").Create(post).Error; err != nil {
			return models.NewInternalError(err)
		}
		return r.replaceTags(tx, post.ID, tags)
	})
	if err != nil {
		observability.PostTxRollbacks.WithLabelValues("create").Inc()
	}
	return err
}

// UpdateWithTags updates the post's mutable fields and, when replace is set,
// fully replaces its tag association set, all in one transaction. When
// replace is false the existing associations are left untouched.
func (r *postRepository) UpdateWithTags(ctx context.Context, post *models.Post, tags []string, replace bool) error {
	defer observability.TrackQuery("update", "posts")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"title":   post.Title,
			"content": post.Content,
			"status":  post.Status,
		}
		if err := tx.Model(&models.Post{}).Where("id = ?", post.ID).Updates(updates).Error; err != nil {
			return models.NewInternalError(err)
		}
		if !replace {
			return nil
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostTag{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		return r.replaceTags(tx, post.ID, tags)
	})
	if err != nil {
		observability.PostTxRollbacks.WithLabelValues("update").Inc()
	}
	return err
}

// replaceTags reconciles names to tag ids and inserts one association row per
// distinct id. The reconciler returns duplicate ids for duplicate names, so
// ids are deduplicated here; the composite primary key on posts_tags must
// never see the same row twice within the transaction.
func (r *postRepository) replaceTags(tx *gorm.DB, postID uint, names []string) error {
	ids, err := r.tags.Reconcile(tx, names)
	if err != nil {
		return err
	}

	seen := make(map[uint]struct{}, len(ids))
	rows := make([]models.PostTag, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		rows = append(rows, models.PostTag{PostID: postID, TagID: id})
	}
	if len(rows) == 0 {
		return nil
	}
	if err := tx.Create(&rows).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Tags").
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

// ListByTag returns every post carrying the exact tag name, newest first,
// with author and full tag set loaded.
func (r *postRepository) ListByTag(ctx context.Context, tagName string) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Joins("JOIN posts_tags ON posts_tags.post_id = posts.id").
		Joins("JOIN tags ON tags.id = posts_tags.tag_id").
		Where("tags.name = ?", tagName).
		Preload("User").
		Preload("Tags").
		Order("posts.created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// Delete removes the post row only. Association rows and comments cascade
// via the foreign key rules declared on the schema; no manual cascade logic
// lives here.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Post{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
