package services

import (
	"errors"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"alterearth/internal/db"
	"alterearth/internal/models"
	"alterearth/internal/utils"

	"gorm.io/gorm"
)

type CommentService struct{}

func NewCommentService() *CommentService {
	return &CommentService{}
}

// Create adds a comment under the post, optionally as a reply to parentID.
// The parent must belong to the same post. The new row and the post's
// comment_count increment commit together.
func (s *CommentService) Create(postID uint, parentID *uint, authorID uint, content string) (*models.Comment, error) {
	content = strings.TrimSpace(utils.SanitizeUGC(content))
	if content == "" {
		return nil, fmt.Errorf("%w: comment body is empty", ErrInvalidContent)
	}

	var comment models.Comment
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id", "is_active").First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownPost
			}
			return err
		}
		if !post.IsActive {
			return ErrUnknownPost
		}

		if parentID != nil {
			var parent models.Comment
			if err := tx.Select("id", "post_id").First(&parent, *parentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrUnknownParent
				}
				return err
			}
			if parent.PostID != postID {
				return ErrUnknownParent
			}
		}

		comment = models.Comment{
			Cid:      utils.RandStringBytesMaskImpr(8),
			PostID:   postID,
			UserID:   &authorID,
			ParentID: parentID,
			Content:  content,
		}
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}

		return tx.Model(&models.Post{}).
			Where("id = ?", postID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + ?", 1)).
			Error
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// Edit replaces a comment's content. Author only; deleted comments are
// frozen.
func (s *CommentService) Edit(id, userID uint, content string) (*models.Comment, error) {
	content = strings.TrimSpace(utils.SanitizeUGC(content))
	if content == "" {
		return nil, fmt.Errorf("%w: comment body is empty", ErrInvalidContent)
	}

	var comment models.Comment
	if err := db.DB.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownComment
		}
		return nil, err
	}
	if comment.UserID == nil || *comment.UserID != userID {
		return nil, ErrNotAuthorized
	}
	if comment.IsDeleted {
		return nil, ErrUnknownComment
	}

	if err := db.DB.Model(&comment).Update("content", content).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// SoftDelete flags the comment as deleted. The row stays, children stay
// attached, comment_count stays (it is a historical count). Idempotent.
// Allowed for the author and for moderators/admins.
func (s *CommentService) SoftDelete(id, userID uint) error {
	var comment models.Comment
	if err := db.DB.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUnknownComment
		}
		return err
	}
	if comment.IsDeleted {
		return nil
	}

	var actor models.User
	if err := db.DB.First(&actor, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotAuthorized
		}
		return err
	}
	if !actor.CanRemoveComment(&comment) {
		return ErrNotAuthorized
	}

	return db.DB.Model(&comment).Update("is_deleted", true).Error
}

// CommentNode is one rendered node of a post's comment forest. Deleted
// nodes keep their place (and children) with the content masked.
type CommentNode struct {
	ID        uint           `json:"id"`
	Cid       string         `json:"cid"`
	ParentID  *uint          `json:"parent_id"`
	Author    *string        `json:"author"` // nil when deleted or author removed
	Content   string         `json:"content"`
	HTML      template.HTML  `json:"html"`
	Upvotes   int            `json:"upvotes"`
	Downvotes int            `json:"downvotes"`
	Score     int            `json:"score"`
	IsDeleted bool           `json:"is_deleted"`
	CreatedAt string         `json:"created_at"`
	Children  []*CommentNode `json:"children"`
}

// Tree returns the full comment forest of a post. Every node is included,
// soft-deleted ones with hidden content; siblings are ordered by score
// descending, then creation time, then id, which is a total order.
func (s *CommentService) Tree(postID uint) ([]*CommentNode, error) {
	var post models.Post
	if err := db.DB.Select("id").First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownPost
		}
		return nil, err
	}

	var comments []models.Comment
	if err := db.DB.Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}

	return buildForest(comments), nil
}

func buildForest(comments []models.Comment) []*CommentNode {
	nodes := make(map[uint]*CommentNode, len(comments))
	order := make([]*models.Comment, 0, len(comments))

	for i := range comments {
		c := &comments[i]
		node := &CommentNode{
			ID:        c.ID,
			Cid:       c.Cid,
			ParentID:  c.ParentID,
			Upvotes:   c.Upvotes,
			Downvotes: c.Downvotes,
			Score:     c.Score,
			IsDeleted: c.IsDeleted,
			CreatedAt: c.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			Children:  []*CommentNode{},
		}
		if c.IsDeleted {
			node.Content = models.DeletedBody
		} else {
			node.Content = c.Content
			node.HTML = utils.RenderMarkdown(c.Content)
			if c.User != nil {
				name := c.User.Username
				node.Author = &name
			}
		}
		nodes[c.ID] = node
		order = append(order, c)
	}

	roots := make([]*CommentNode, 0)
	for _, c := range order {
		node := nodes[c.ID]
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	sortSiblings(roots, comments)
	return roots
}

// sortSiblings orders each sibling list by score DESC, created_at ASC, id
// ASC, recursively. created_at arrives pre-sorted from the query, so only
// the score comparison reorders; the id tie-breaker keeps the order total
// even for same-instant rows.
func sortSiblings(nodes []*CommentNode, all []models.Comment) {
	created := make(map[uint]int64, len(all))
	for i := range all {
		created[all[i].ID] = all[i].CreatedAt.UnixMicro()
	}

	var rec func([]*CommentNode)
	rec = func(siblings []*CommentNode) {
		sort.SliceStable(siblings, func(i, j int) bool {
			a, b := siblings[i], siblings[j]
			if a.Score != b.Score {
				return a.Score > b.Score
			}
			if created[a.ID] != created[b.ID] {
				return created[a.ID] < created[b.ID]
			}
			return a.ID < b.ID
		})
		for _, n := range siblings {
			rec(n.Children)
		}
	}
	rec(nodes)
}
