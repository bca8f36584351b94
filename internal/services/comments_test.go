package services

import (
	"testing"

	"alterearth/internal/db"
	"alterearth/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateComment(t *testing.T) {
	setupTestDB(t)
	svc := NewCommentService()

	author := createUser(t, "author", models.RoleMember)
	commenter := createUser(t, "commenter", models.RoleMember)
	post := createPost(t, author)

	top, err := svc.Create(post.ID, nil, commenter.ID, "first!")
	require.NoError(t, err)
	assert.Nil(t, top.ParentID)
	assert.Equal(t, 0, top.Score)
	assert.False(t, top.CreatedAt.IsZero())
	assert.Equal(t, 1, reloadPost(t, post.ID).CommentCount)

	reply, err := svc.Create(post.ID, &top.ID, author.ID, "thanks")
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, top.ID, *reply.ParentID)
	assert.Equal(t, 2, reloadPost(t, post.ID).CommentCount)
}

func TestCreateCommentValidation(t *testing.T) {
	setupTestDB(t)
	svc := NewCommentService()

	author := createUser(t, "author", models.RoleMember)
	post := createPost(t, author)
	other := createPost(t, author)
	onOther := createComment(t, other, nil, author)

	_, err := svc.Create(9999, nil, author.ID, "hello")
	assert.ErrorIs(t, err, ErrUnknownPost)

	// A body that sanitizes to nothing is a caller error, not a crash.
	_, err = svc.Create(post.ID, nil, author.ID, "<script>alert(1)</script>")
	assert.ErrorIs(t, err, ErrInvalidContent)
	_, err = svc.Create(post.ID, nil, author.ID, "   ")
	assert.ErrorIs(t, err, ErrInvalidContent)

	// Parent must belong to the same post.
	_, err = svc.Create(post.ID, &onOther.ID, author.ID, "hello")
	assert.ErrorIs(t, err, ErrUnknownParent)

	missing := uint(9999)
	_, err = svc.Create(post.ID, &missing, author.ID, "hello")
	assert.ErrorIs(t, err, ErrUnknownParent)

	require.NoError(t, db.DB.Model(post).Update("is_active", false).Error)
	_, err = svc.Create(post.ID, nil, author.ID, "hello")
	assert.ErrorIs(t, err, ErrUnknownPost)

	// A failed creation leaves comment_count unchanged.
	assert.Equal(t, 0, reloadPost(t, post.ID).CommentCount)
}

// Soft delete hides content but never breaks the thread: deleting a comment
// with two replies leaves both retrievable under the same parent id.
func TestSoftDeletePreservesStructure(t *testing.T) {
	setupTestDB(t)
	svc := NewCommentService()

	author := createUser(t, "author", models.RoleMember)
	post := createPost(t, author)

	c1, err := svc.Create(post.ID, nil, author.ID, "parent")
	require.NoError(t, err)
	_, err = svc.Create(post.ID, &c1.ID, author.ID, "reply one")
	require.NoError(t, err)
	_, err = svc.Create(post.ID, &c1.ID, author.ID, "reply two")
	require.NoError(t, err)

	countBefore := reloadPost(t, post.ID).CommentCount

	require.NoError(t, svc.SoftDelete(c1.ID, author.ID))

	deleted := reloadComment(t, c1.ID)
	assert.True(t, deleted.IsDeleted)
	assert.Equal(t, countBefore, reloadPost(t, post.ID).CommentCount,
		"comment_count is historical and keeps deleted comments")

	tree, err := svc.Tree(post.ID)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	root := tree[0]
	assert.Equal(t, c1.ID, root.ID)
	assert.True(t, root.IsDeleted)
	assert.Equal(t, models.DeletedBody, root.Content)
	assert.Nil(t, root.Author)
	require.Len(t, root.Children, 2, "both replies stay attached to the deleted parent")
	for _, child := range root.Children {
		require.NotNil(t, child.ParentID)
		assert.Equal(t, c1.ID, *child.ParentID)
	}

	// Idempotent: a second delete is a no-op.
	require.NoError(t, svc.SoftDelete(c1.ID, author.ID))
}

func TestSoftDeleteAuthorization(t *testing.T) {
	setupTestDB(t)
	svc := NewCommentService()

	author := createUser(t, "author", models.RoleMember)
	stranger := createUser(t, "stranger", models.RoleMember)
	mod := createUser(t, "mod", models.RoleModerator)
	post := createPost(t, author)
	comment := createComment(t, post, nil, author)

	assert.ErrorIs(t, svc.SoftDelete(comment.ID, stranger.ID), ErrNotAuthorized)
	assert.False(t, reloadComment(t, comment.ID).IsDeleted)

	require.NoError(t, svc.SoftDelete(comment.ID, mod.ID))
	assert.True(t, reloadComment(t, comment.ID).IsDeleted)

	assert.ErrorIs(t, svc.SoftDelete(9999, author.ID), ErrUnknownComment)
}

func TestEditComment(t *testing.T) {
	setupTestDB(t)
	svc := NewCommentService()

	author := createUser(t, "author", models.RoleMember)
	stranger := createUser(t, "stranger", models.RoleMember)
	post := createPost(t, author)
	comment := createComment(t, post, nil, author)

	edited, err := svc.Edit(comment.ID, author.ID, "new text")
	require.NoError(t, err)
	assert.Equal(t, "new text", edited.Content)

	_, err = svc.Edit(comment.ID, stranger.ID, "hijack")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	require.NoError(t, svc.SoftDelete(comment.ID, author.ID))
	_, err = svc.Edit(comment.ID, author.ID, "too late")
	assert.ErrorIs(t, err, ErrUnknownComment)
}

func TestTreeOrdering(t *testing.T) {
	setupTestDB(t)
	comments := NewCommentService()
	votes := NewVoteService()

	author := createUser(t, "author", models.RoleMember)
	v1 := createUser(t, "v1", models.RoleMember)
	v2 := createUser(t, "v2", models.RoleMember)
	post := createPost(t, author)

	first, err := comments.Create(post.ID, nil, author.ID, "first")
	require.NoError(t, err)
	second, err := comments.Create(post.ID, nil, author.ID, "second")
	require.NoError(t, err)
	third, err := comments.Create(post.ID, nil, author.ID, "third")
	require.NoError(t, err)

	// second: +2, third: +1, first: 0.
	for _, v := range []*models.User{v1, v2} {
		_, err = votes.Cast(v.ID, Target{Kind: TargetComment, ID: second.ID}, 1)
		require.NoError(t, err)
	}
	_, err = votes.Cast(v1.ID, Target{Kind: TargetComment, ID: third.ID}, 1)
	require.NoError(t, err)

	tree, err := comments.Tree(post.ID)
	require.NoError(t, err)
	require.Len(t, tree, 3)
	assert.Equal(t, second.ID, tree[0].ID, "highest score first")
	assert.Equal(t, third.ID, tree[1].ID)
	assert.Equal(t, first.ID, tree[2].ID)

	// Zero-score siblings fall back to creation order.
	fourth, err := comments.Create(post.ID, nil, author.ID, "fourth")
	require.NoError(t, err)
	tree, err = comments.Tree(post.ID)
	require.NoError(t, err)
	require.Len(t, tree, 4)
	assert.Equal(t, first.ID, tree[2].ID)
	assert.Equal(t, fourth.ID, tree[3].ID, "same score, later creation sorts after")

	_, err = comments.Tree(9999)
	assert.ErrorIs(t, err, ErrUnknownPost)
}
