package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"alterearth/internal/db"
	"alterearth/internal/models"
	"alterearth/internal/router"
	"alterearth/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouter(t *testing.T) *gin.Engine {
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
	utils.GetCache().Purge()

	t.Cleanup(func() {
		sqlDB.Close()
	})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	router.RegisterRoutes(r)
	return r
}

func seedUser(t *testing.T, username, role string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Role: role, IsActive: true}
	require.NoError(t, db.DB.Create(user).Error)
	return user
}

func seedPost(t *testing.T, author *models.User) *models.Post {
	t.Helper()
	post := &models.Post{
		Pid:      utils.RandStringBytesMaskImpr(8),
		Kind:     models.PostKindSubmission,
		Title:    "a post",
		IsActive: true,
	}
	if author != nil {
		post.UserID = &author.ID
	}
	require.NoError(t, db.DB.Create(post).Error)
	return post
}

func do(r *gin.Engine, method, path, body string, user *models.User) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set("X-User-ID", strconv.Itoa(int(user.ID)))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestVoteRoundTrip(t *testing.T) {
	r := setupRouter(t)
	author := seedUser(t, "author", models.RoleMember)
	voter := seedUser(t, "voter", models.RoleMember)
	post := seedPost(t, author)

	path := fmt.Sprintf("/vote/post/%d", post.ID)

	w := do(r, http.MethodPost, path, `{"value": 1}`, voter)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var agg struct {
		Upvotes   int `json:"upvotes"`
		Downvotes int `json:"downvotes"`
		Score     int `json:"score"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &agg))
	assert.Equal(t, 1, agg.Upvotes)
	assert.Equal(t, 1, agg.Score)

	w = do(r, http.MethodGet, path, "", voter)
	require.Equal(t, http.StatusOK, w.Code)
	var status struct {
		Value int `json:"value"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, 1, status.Value)

	w = do(r, http.MethodDelete, path, "", voter)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &agg))
	assert.Zero(t, agg.Score)
}

func TestVoteRequiresAuth(t *testing.T) {
	r := setupRouter(t)
	post := seedPost(t, seedUser(t, "author", models.RoleMember))

	w := do(r, http.MethodPost, fmt.Sprintf("/vote/post/%d", post.ID), `{"value": 1}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVoteBadRequests(t *testing.T) {
	r := setupRouter(t)
	voter := seedUser(t, "voter", models.RoleMember)
	post := seedPost(t, seedUser(t, "author", models.RoleMember))

	// Unknown target kind.
	w := do(r, http.MethodPost, fmt.Sprintf("/vote/article/%d", post.ID), `{"value": 1}`, voter)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Value outside {-1, +1}.
	w = do(r, http.MethodPost, fmt.Sprintf("/vote/post/%d", post.ID), `{"value": 2}`, voter)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Missing body.
	w = do(r, http.MethodPost, fmt.Sprintf("/vote/post/%d", post.ID), "", voter)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Vanished target.
	w = do(r, http.MethodPost, "/vote/post/99999", `{"value": 1}`, voter)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommentLifecycleOverHTTP(t *testing.T) {
	r := setupRouter(t)
	author := seedUser(t, "author", models.RoleMember)
	post := seedPost(t, author)

	w := do(r, http.MethodPost, fmt.Sprintf("/posts/%d/comments", post.ID), `{"content": "hello *world*"}`, author)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotZero(t, created.ID)

	w = do(r, http.MethodGet, fmt.Sprintf("/posts/%d/comments", post.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hello")

	// A body that sanitizes to nothing is the caller's fault.
	w = do(r, http.MethodPost, fmt.Sprintf("/posts/%d/comments", post.ID), `{"content": "<script>alert(1)</script>"}`, author)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Another member may not delete it.
	stranger := seedUser(t, "stranger", models.RoleMember)
	w = do(r, http.MethodDelete, fmt.Sprintf("/comments/%d", created.ID), "", stranger)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// A moderator may.
	mod := seedUser(t, "mod", models.RoleModerator)
	w = do(r, http.MethodDelete, fmt.Sprintf("/comments/%d", created.ID), "", mod)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestInactiveUserIsAnonymous(t *testing.T) {
	r := setupRouter(t)
	post := seedPost(t, seedUser(t, "author", models.RoleMember))

	banned := &models.User{Username: "banned", Role: models.RoleMember, IsActive: false}
	require.NoError(t, db.DB.Create(banned).Error)

	w := do(r, http.MethodPost, fmt.Sprintf("/vote/post/%d", post.ID), `{"value": 1}`, banned)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
