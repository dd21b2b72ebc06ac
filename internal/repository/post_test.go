package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens an in-memory database with foreign keys enforced, so
// cascade behavior is exercised for real instead of being mocked away.
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A second pool connection would see its own empty in-memory database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.SetupJoinTable(&models.Post{}, "Tags", &models.PostTag{}))
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Post{},
		&models.Comment{},
	))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
		Role:     models.RoleUser,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func tagNames(tags []models.Tag) []string {
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	return names
}

func TestPostRepository_CreateWithTags(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	user := createTestUser(t, db, "author")

	t.Run("duplicate names collapse to one association", func(t *testing.T) {
		post := &models.Post{Title: "First", Content: "body", UserID: user.ID, Status: models.PostStatusDraft}
		err := repo.CreateWithTags(ctx, post, []string{"go", "databases", "go"})
		require.NoError(t, err)
		require.NotZero(t, post.ID)

		fetched, err := repo.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"go", "databases"}, tagNames(fetched.Tags))
		assert.Equal(t, "author", fetched.User.Username)

		var tagCount int64
		db.Model(&models.Tag{}).Count(&tagCount)
		assert.Equal(t, int64(2), tagCount)
	})

	t.Run("existing tags are reused, not duplicated", func(t *testing.T) {
		post := &models.Post{Title: "Second", Content: "body", UserID: user.ID, Status: models.PostStatusPublished}
		err := repo.CreateWithTags(ctx, post, []string{"go"})
		require.NoError(t, err)

		var tagCount int64
		db.Model(&models.Tag{}).Count(&tagCount)
		assert.Equal(t, int64(2), tagCount)
	})

	t.Run("tag names are case sensitive", func(t *testing.T) {
		post := &models.Post{Title: "Third", Content: "body", UserID: user.ID, Status: models.PostStatusDraft}
		err := repo.CreateWithTags(ctx, post, []string{"Go"})
		require.NoError(t, err)

		var names []string
		db.Model(&models.Tag{}).Order("name").Pluck("name", &names)
		assert.Contains(t, names, "go")
		assert.Contains(t, names, "Go")
	})

	t.Run("post insert failure leaves no tags behind", func(t *testing.T) {
		post := &models.Post{Title: "Orphan", Content: "body", UserID: 9999, Status: models.PostStatusDraft}
		err := repo.CreateWithTags(ctx, post, []string{"orphan-tag"})
		require.Error(t, err)

		var tagCount int64
		db.Model(&models.Tag{}).Where("name = ?", "orphan-tag").Count(&tagCount)
		assert.Equal(t, int64(0), tagCount)
	})
}

func TestPostRepository_CreateWithTags_TagConflictRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	// The losing side of the get-or-create race: the lookup sees nothing,
	// the insert hits the unique constraint, and the whole transaction
	// rolls back including the already-inserted post row.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "tags" WHERE name = $1 ORDER BY "tags"."id" LIMIT $2`)).
		WithArgs("go", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "tags"`)).
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})
	mock.ExpectRollback()

	post := &models.Post{Title: "Racy", Content: "body", UserID: 1, Status: models.PostStatusDraft}
	err := repo.CreateWithTags(ctx, post, []string{"go"})

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeConflict, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)

	_, err := repo.GetByID(context.Background(), 404)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestPostRepository_UpdateWithTags(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	user := createTestUser(t, db, "author")

	newPost := func(t *testing.T, tags ...string) *models.Post {
		post := &models.Post{Title: "Title", Content: "body", UserID: user.ID, Status: models.PostStatusDraft}
		require.NoError(t, repo.CreateWithTags(ctx, post, tags))
		return post
	}

	t.Run("replace swaps the full association set", func(t *testing.T) {
		post := newPost(t, "go", "databases")
		post.Title = "Updated"
		post.Status = models.PostStatusPublished

		err := repo.UpdateWithTags(ctx, post, []string{"databases", "web"}, true)
		require.NoError(t, err)

		fetched, err := repo.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "Updated", fetched.Title)
		assert.Equal(t, models.PostStatusPublished, fetched.Status)
		assert.ElementsMatch(t, []string{"databases", "web"}, tagNames(fetched.Tags))

		// Dropping an association never deletes the tag itself.
		var count int64
		db.Model(&models.Tag{}).Where("name = ?", "go").Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("no replace leaves associations untouched", func(t *testing.T) {
		post := newPost(t, "go")
		post.Content = "rewritten"

		err := repo.UpdateWithTags(ctx, post, nil, false)
		require.NoError(t, err)

		fetched, err := repo.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "rewritten", fetched.Content)
		assert.ElementsMatch(t, []string{"go"}, tagNames(fetched.Tags))
	})

	t.Run("replace with empty set clears associations", func(t *testing.T) {
		post := newPost(t, "go", "web")

		err := repo.UpdateWithTags(ctx, post, []string{}, true)
		require.NoError(t, err)

		fetched, err := repo.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Empty(t, fetched.Tags)
	})
}

func TestPostRepository_ListByTag(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	user := createTestUser(t, db, "author")

	older := &models.Post{
		Title: "Older", Content: "body", UserID: user.ID,
		Status: models.PostStatusPublished, CreatedAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, repo.CreateWithTags(ctx, older, []string{"go", "databases"}))

	newer := &models.Post{
		Title: "Newer", Content: "body", UserID: user.ID,
		Status: models.PostStatusDraft,
	}
	require.NoError(t, repo.CreateWithTags(ctx, newer, []string{"go"}))

	capitalized := &models.Post{Title: "Cased", Content: "body", UserID: user.ID, Status: models.PostStatusDraft}
	require.NoError(t, repo.CreateWithTags(ctx, capitalized, []string{"Go"}))

	t.Run("exact name, newest first", func(t *testing.T) {
		posts, err := repo.ListByTag(ctx, "go")
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, "Newer", posts[0].Title)
		assert.Equal(t, "Older", posts[1].Title)
		assert.Equal(t, "author", posts[0].User.Username)
		assert.ElementsMatch(t, []string{"go", "databases"}, tagNames(posts[1].Tags))
	})

	t.Run("unknown tag is an empty list", func(t *testing.T) {
		posts, err := repo.ListByTag(ctx, "rust")
		require.NoError(t, err)
		assert.Empty(t, posts)
	})
}

func TestPostRepository_Delete_Cascades(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	author := createTestUser(t, db, "author")
	commenter := createTestUser(t, db, "commenter")

	post := &models.Post{Title: "Doomed", Content: "body", UserID: author.ID, Status: models.PostStatusPublished}
	require.NoError(t, repo.CreateWithTags(ctx, post, []string{"go"}))
	require.NoError(t, db.Create(&models.Comment{Content: "hi", UserID: commenter.ID, PostID: post.ID}).Error)

	require.NoError(t, repo.Delete(ctx, post.ID))

	var joinRows, commentRows, tagRows int64
	db.Model(&models.PostTag{}).Where("post_id = ?", post.ID).Count(&joinRows)
	db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&commentRows)
	db.Model(&models.Tag{}).Count(&tagRows)

	assert.Equal(t, int64(0), joinRows)
	assert.Equal(t, int64(0), commentRows)
	assert.Equal(t, int64(1), tagRows, "tags survive the posts that carried them")
}

func TestUserDelete_CascadesContent(t *testing.T) {
	db := setupTestDB(t)
	posts := NewPostRepository(db)
	users := NewUserRepository(db)
	ctx := context.Background()
	author := createTestUser(t, db, "author")

	post := &models.Post{Title: "Mine", Content: "body", UserID: author.ID, Status: models.PostStatusDraft}
	require.NoError(t, posts.CreateWithTags(ctx, post, []string{"go"}))
	require.NoError(t, db.Create(&models.Comment{Content: "self reply", UserID: author.ID, PostID: post.ID}).Error)

	require.NoError(t, users.Delete(ctx, author.ID))

	var postRows, commentRows, joinRows int64
	db.Model(&models.Post{}).Count(&postRows)
	db.Model(&models.Comment{}).Count(&commentRows)
	db.Model(&models.PostTag{}).Count(&joinRows)

	assert.Equal(t, int64(0), postRows)
	assert.Equal(t, int64(0), commentRows)
	assert.Equal(t, int64(0), joinRows)
}
