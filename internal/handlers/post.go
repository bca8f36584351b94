package handlers

import (
	"net/http"

	"alterearth/internal/middleware"
	"alterearth/internal/services"
	"alterearth/internal/utils"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	posts *services.PostService
}

func NewPostHandler() *PostHandler {
	return &PostHandler{posts: services.NewPostService()}
}

type createPostRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// Create handles POST /posts (user submissions).
func (h *PostHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	post, err := h.posts.CreateSubmission(user.ID, req.Title, req.Content, req.URL)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// List handles GET /posts?sort=hot|top|new|controversial&cursor=...
func (h *PostHandler) List(c *gin.Context) {
	posts, next, err := h.posts.ListRanked(c.DefaultQuery("sort", services.SortHot), c.Query("cursor"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts, "next_cursor": next})
}

// Detail handles GET /posts/:id.
func (h *PostHandler) Detail(c *gin.Context) {
	post, err := h.posts.Get(uint(utils.StringToInt(c.Param("id"))))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Delete handles DELETE /posts/:id (hard delete, cascades comments/votes).
func (h *PostHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)

	if err := h.posts.Delete(uint(utils.StringToInt(c.Param("id"))), user.ID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Deactivate handles POST /posts/:id/deactivate.
func (h *PostHandler) Deactivate(c *gin.Context) {
	user := middleware.CurrentUser(c)

	if err := h.posts.Deactivate(uint(utils.StringToInt(c.Param("id"))), user.ID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
