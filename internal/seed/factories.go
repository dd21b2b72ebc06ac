// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// demoPassword is the plaintext password assigned to every seeded account.
const demoPassword = "Password123!"

// tagPool is the vocabulary seeded posts draw their tags from. It is small
// on purpose so the shared tag namespace gets real reuse.
var tagPool = []string{
	"go", "databases", "web", "testing", "deployment",
	"observability", "tooling", "design", "performance", "security",
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db    *gorm.DB
	posts repository.PostRepository
	rng   *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB. Posts go
// through the repository so seeded data exercises the same transactional
// tag path as the API.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:    db,
		posts: repository.NewPostRepository(db),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateUser constructs and persists a sample user. Optional override
// functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:    gofakeit.Email(),
		Password: string(hashed),
		Role:     models.RoleUser,
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost persists a post for the given user with a random status and a
// random draw from the tag pool.
func (f *Factory) CreatePost(user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	statuses := []models.PostStatus{
		models.PostStatusDraft,
		models.PostStatusPublished,
		models.PostStatusPublished, // published twice as often as the others
		models.PostStatusArchived,
	}

	post := &models.Post{
		Title:   gofakeit.Sentence(5),
		Content: gofakeit.Paragraph(1, 3, 5, "\n"),
		UserID:  user.ID,
		Status:  statuses[f.rng.Intn(len(statuses))],
	}

	// realistic created_at spread over the last 90 days
	daysBack := f.rng.Intn(90)
	hoursBack := f.rng.Intn(24)
	post.CreatedAt = time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour)

	for _, override := range overrides {
		override(post)
	}

	if err := f.posts.CreateWithTags(context.Background(), post, f.randomTags()); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a comment by the given user on the given post.
func (f *Factory) CreateComment(user *models.User, post *models.Post) (*models.Comment, error) {
	comment := &models.Comment{
		Content: gofakeit.Sentence(f.rng.Intn(12) + 3),
		UserID:  user.ID,
		PostID:  post.ID,
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// randomTags draws up to four names from the pool, sometimes none.
func (f *Factory) randomTags() []string {
	count := f.rng.Intn(5)
	names := make([]string, 0, count)
	perm := f.rng.Perm(len(tagPool))
	for i := 0; i < count; i++ {
		names = append(names, tagPool[perm[i]])
	}
	return names
}
