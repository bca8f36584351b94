package handlers

import (
	"net/http"

	"alterearth/internal/middleware"
	"alterearth/internal/services"
	"alterearth/internal/utils"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler() *CommentHandler {
	return &CommentHandler{comments: services.NewCommentService()}
}

type createCommentRequest struct {
	ParentID *uint  `json:"parent_id"`
	Content  string `json:"content" binding:"required"`
}

// Create handles POST /posts/:id/comments.
func (h *CommentHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	postID := uint(utils.StringToInt(c.Param("id")))

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	comment, err := h.comments.Create(postID, req.ParentID, user.ID, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":         comment.ID,
		"cid":        comment.Cid,
		"score":      comment.Score,
		"created_at": comment.CreatedAt,
	})
}

// Tree handles GET /posts/:id/comments.
func (h *CommentHandler) Tree(c *gin.Context) {
	postID := uint(utils.StringToInt(c.Param("id")))

	tree, err := h.comments.Tree(postID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post_id": postID, "comments": tree})
}

type editCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// Edit handles PUT /comments/:id.
func (h *CommentHandler) Edit(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id := uint(utils.StringToInt(c.Param("id")))

	var req editCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	comment, err := h.comments.Edit(id, user.ID, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// Delete handles DELETE /comments/:id (soft delete).
func (h *CommentHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id := uint(utils.StringToInt(c.Param("id")))

	if err := h.comments.SoftDelete(id, user.ID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
