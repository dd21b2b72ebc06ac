package seed

import (
	"fmt"
	"log"

	"inkwell/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers int
	NumPosts int
}

// Seeder orchestrates demo data creation.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a Seeder bound to the given database.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db)}
}

// ClearAll truncates the content tables. Deleting users first lets the
// cascade rules clean up posts, comments, and tag associations; tags are
// removed explicitly since nothing cascades onto them.
func (s *Seeder) ClearAll() error {
	if err := s.db.Exec("DELETE FROM users").Error; err != nil {
		return err
	}
	if err := s.db.Exec("DELETE FROM tags").Error; err != nil {
		return err
	}
	return nil
}

// Run seeds users, posts, and comments per the options. It always creates
// one known admin and one known moderator account so a fresh environment
// has elevated logins out of the box.
func (s *Seeder) Run(opts Options) error {
	users, err := s.seedUsers(opts.NumUsers)
	if err != nil {
		return fmt.Errorf("seeding users: %w", err)
	}

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		author := users[i%len(users)]
		post, err := s.factory.CreatePost(author)
		if err != nil {
			return fmt.Errorf("seeding posts: %w", err)
		}
		posts = append(posts, post)
	}
	log.Printf("seeded %d posts", len(posts))

	comments := 0
	for _, post := range posts {
		for i := 0; i < s.factory.rng.Intn(4); i++ {
			commenter := users[s.factory.rng.Intn(len(users))]
			if _, err := s.factory.CreateComment(commenter, post); err != nil {
				return fmt.Errorf("seeding comments: %w", err)
			}
			comments++
		}
	}
	log.Printf("seeded %d comments", comments)

	return nil
}

func (s *Seeder) seedUsers(count int) ([]*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, count+2)

	admin := &models.User{
		Username: "admin",
		Email:    "admin@inkwell.local",
		Password: string(hashed),
		Role:     models.RoleAdmin,
	}
	if err := s.db.Create(admin).Error; err != nil {
		return nil, err
	}
	users = append(users, admin)

	moderator := &models.User{
		Username: "moderator",
		Email:    "moderator@inkwell.local",
		Password: string(hashed),
		Role:     models.RoleModerator,
	}
	if err := s.db.Create(moderator).Error; err != nil {
		return nil, err
	}
	users = append(users, moderator)

	for i := 0; i < count; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	log.Printf("seeded %d users (including admin and moderator)", len(users))
	return users, nil
}
