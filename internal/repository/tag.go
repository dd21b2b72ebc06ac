package repository

import (
	"context"
	"errors"
	"fmt"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
)

// TagReconciler maps tag names to tag ids, creating missing tags as it goes.
// It always operates on the caller's transaction handle: a failed create
// (including the get-or-create race below) aborts the whole enclosing
// transaction rather than leaving a post with a partial tag set.
type TagReconciler struct{}

// Reconcile returns one tag id per name, in input order. Duplicate input
// names yield duplicate ids. Names are matched exactly: no trimming, no case
// folding, so "Go" and "go" reconcile to distinct tags.
//
// Two concurrent transactions introducing the same new name race on the
// unique constraint on tags.name. Exactly one insert wins; the loser gets a
// Conflict, which is retryable once the winner commits.
func (TagReconciler) Reconcile(tx *gorm.DB, names []string) ([]uint, error) {
	ids := make([]uint, 0, len(names))
	for _, name := range names {
		var tag models.Tag
		err := tx.Where("name = ?", name).First(&tag).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			tag = models.Tag{Name: name}
			if createErr := tx.Create(&tag).Error; createErr != nil {
				if isUniqueViolation(createErr) {
					observability.TagReconciliations.WithLabelValues("conflict").Inc()
					return nil, models.NewConflictError(
						fmt.Sprintf("Tag %q was created concurrently; retry the request", name))
				}
				return nil, models.NewInternalError(createErr)
			}
			observability.TagReconciliations.WithLabelValues("created").Inc()
		case err != nil:
			return nil, models.NewInternalError(err)
		default:
			observability.TagReconciliations.WithLabelValues("existing").Inc()
		}
		ids = append(ids, tag.ID)
	}
	return ids, nil
}

// TagRepository defines read operations on the shared tag namespace.
type TagRepository interface {
	GetByName(ctx context.Context, name string) (*models.Tag, error)
	List(ctx context.Context) ([]*models.Tag, error)
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository returns a new TagRepository implementation.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Tag", name)
		}
		return nil, models.NewInternalError(err)
	}
	return &tag, nil
}

func (r *tagRepository) List(ctx context.Context) ([]*models.Tag, error) {
	var tags []*models.Tag
	if err := r.db.WithContext(ctx).Order("name").Find(&tags).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return tags, nil
}
