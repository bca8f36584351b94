package services

import (
	"fmt"
	"testing"

	"alterearth/internal/db"
	"alterearth/internal/models"
	"alterearth/internal/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB points the global connection at a fresh in-memory SQLite
// database. Each test gets its own named database so shared-cache
// connections see one store without leaking across tests.
func setupTestDB(t *testing.T) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	g, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := g.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(g))
	db.DB = g

	// Feed pages are cached process-wide; drop anything a previous test left.
	utils.GetCache().Purge()

	t.Cleanup(func() {
		sqlDB.Close()
	})
}

func createUser(t *testing.T, username, role string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Role: role, IsActive: true}
	require.NoError(t, db.DB.Create(user).Error)
	return user
}

func createPost(t *testing.T, author *models.User) *models.Post {
	t.Helper()
	post := &models.Post{
		Pid:      utils.RandStringBytesMaskImpr(8),
		Kind:     models.PostKindSubmission,
		Title:    "test post",
		IsActive: true,
	}
	if author != nil {
		post.UserID = &author.ID
	}
	require.NoError(t, db.DB.Create(post).Error)
	return post
}

func createComment(t *testing.T, post *models.Post, parent *models.Comment, author *models.User) *models.Comment {
	t.Helper()
	comment := &models.Comment{
		Cid:     utils.RandStringBytesMaskImpr(8),
		PostID:  post.ID,
		Content: "test comment",
	}
	if author != nil {
		comment.UserID = &author.ID
	}
	if parent != nil {
		comment.ParentID = &parent.ID
	}
	require.NoError(t, db.DB.Create(comment).Error)
	return comment
}

func reloadUser(t *testing.T, id uint) *models.User {
	t.Helper()
	var user models.User
	require.NoError(t, db.DB.First(&user, id).Error)
	return &user
}

func reloadPost(t *testing.T, id uint) *models.Post {
	t.Helper()
	var post models.Post
	require.NoError(t, db.DB.First(&post, id).Error)
	return &post
}

func reloadComment(t *testing.T, id uint) *models.Comment {
	t.Helper()
	var comment models.Comment
	require.NoError(t, db.DB.First(&comment, id).Error)
	return &comment
}
