package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"alterearth/internal/db"
	"alterearth/internal/models"
	"alterearth/internal/utils"

	"gorm.io/gorm"
)

// Feed sort keys.
const (
	SortHot           = "hot"
	SortTop           = "top"
	SortNew           = "new"
	SortControversial = "controversial"
)

// SQL form of utils.ControversyScore: total votes minus the absolute net,
// which is integer-valued, so the two always agree exactly.
const controversyExpr = "(upvotes + downvotes - ABS(upvotes - downvotes))"

const feedPageSize = 30

type PostService struct{}

func NewPostService() *PostService {
	return &PostService{}
}

// CreateSubmission stores a user submission post and its detail row. At
// least one of content/url must be present.
func (s *PostService) CreateSubmission(authorID uint, title, content, url string) (*models.Post, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(utils.SanitizeUGC(content))
	url = strings.TrimSpace(url)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidContent)
	}
	if content == "" && url == "" {
		return nil, fmt.Errorf("%w: submission needs text or a link", ErrInvalidContent)
	}

	post := models.Post{
		Pid:      utils.RandStringBytesMaskImpr(8),
		UserID:   &authorID,
		Kind:     models.PostKindSubmission,
		Title:    title,
		IsActive: true,
	}
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		detail := models.SubmissionDetail{PostID: post.ID, Content: content, URL: url}
		if err := tx.Create(&detail).Error; err != nil {
			return err
		}
		// New posts enter the ranking at score 0; the time term alone
		// places them above older content.
		return tx.Model(&post).
			UpdateColumn("hot_score", utils.HotScore(0, post.CreatedAt)).Error
	})
	if err != nil {
		return nil, err
	}

	invalidateFeeds()
	return &post, nil
}

// IngestArticle stores an automated article post on behalf of the ingestion
// bot. The pipeline that discovers and summarizes articles lives outside
// this service; it hands over finished records only.
func (s *PostService) IngestArticle(botID uint, title, url, sourceName, summary string, publishedAt *time.Time) (*models.Post, error) {
	title = strings.TrimSpace(title)
	if title == "" || strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("%w: article needs a title and a url", ErrInvalidContent)
	}

	post := models.Post{
		Pid:      utils.RandStringBytesMaskImpr(8),
		UserID:   &botID,
		Kind:     models.PostKindArticle,
		Title:    title,
		IsActive: true,
	}
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		detail := models.ArticleDetail{
			PostID:      post.ID,
			URL:         url,
			SourceName:  sourceName,
			Summary:     summary,
			PublishedAt: publishedAt,
		}
		if err := tx.Create(&detail).Error; err != nil {
			return err
		}
		return tx.Model(&post).
			UpdateColumn("hot_score", utils.HotScore(0, post.CreatedAt)).Error
	})
	if err != nil {
		return nil, err
	}

	invalidateFeeds()
	return &post, nil
}

// Get loads a post with its author and kind-specific detail.
func (s *PostService) Get(id uint) (*models.Post, error) {
	var post models.Post
	err := db.DB.Preload("User").Preload("Article").Preload("Submission").
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownPost
		}
		return nil, err
	}
	return &post, nil
}

// Deactivate hides a post from feeds and voting without removing anything.
// Author or moderator/admin only.
func (s *PostService) Deactivate(id, userID uint) error {
	post, actor, err := s.loadPostAndActor(id, userID)
	if err != nil {
		return err
	}
	if !canManagePost(actor, post) {
		return ErrNotAuthorized
	}
	if err := db.DB.Model(post).Update("is_active", false).Error; err != nil {
		return err
	}
	invalidateFeeds()
	return nil
}

// Delete removes the post for real: its comment forest, its ledger entries
// and the votes on its comments go with it in one transaction. Karma
// already granted is kept. Author or moderator/admin only.
func (s *PostService) Delete(id, userID uint) error {
	post, actor, err := s.loadPostAndActor(id, userID)
	if err != nil {
		return err
	}
	if !canManagePost(actor, post) {
		return ErrNotAuthorized
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		var commentIDs []uint
		if err := tx.Model(&models.Comment{}).Where("post_id = ?", id).
			Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			if err := tx.Where("comment_id IN ?", commentIDs).Delete(&models.Vote{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.ArticleDetail{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.SubmissionDetail{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, id).Error
	})
	if err != nil {
		return err
	}

	invalidateFeeds()
	return nil
}

// ListRanked returns one page of active posts under the given sort key with
// a keyset cursor. An empty page (and empty next cursor) is a valid result.
func (s *PostService) ListRanked(sortKey, cursorToken string) ([]models.Post, string, error) {
	cursor, err := utils.DecodeCursor(cursorToken)
	if err != nil {
		return nil, "", fmt.Errorf("bad cursor: %w", err)
	}

	// First pages dominate traffic and are identical for everyone; serve
	// them from the local cache for a short window.
	cacheKey := ""
	if cursor == nil {
		cacheKey = "feed:" + sortKey + ":first"
		if cached := utils.GetCache().Get(cacheKey); cached != nil {
			if page, ok := cached.(feedPage); ok {
				return page.posts, page.next, nil
			}
		}
	}

	q := db.DB.Preload("User").Where("is_active = ?", true)
	if sortKey == "" {
		sortKey = SortHot
	}
	switch sortKey {
	case SortHot:
		if cursor != nil {
			boundary, err := strconv.ParseFloat(cursor.Sort, 64)
			if err != nil {
				return nil, "", fmt.Errorf("bad cursor: %w", err)
			}
			q = q.Where("(hot_score < ?) OR (hot_score = ? AND id < ?)",
				boundary, boundary, cursor.ID)
		}
		q = q.Order("hot_score DESC, id DESC")
	case SortTop:
		if cursor != nil {
			boundary, err := strconv.Atoi(cursor.Sort)
			if err != nil {
				return nil, "", fmt.Errorf("bad cursor: %w", err)
			}
			q = q.Where("(score < ?) OR (score = ? AND id < ?)",
				boundary, boundary, cursor.ID)
		}
		q = q.Order("score DESC, id DESC")
	case SortNew:
		if cursor != nil {
			nanos, err := strconv.ParseInt(cursor.Sort, 10, 64)
			if err != nil {
				return nil, "", fmt.Errorf("bad cursor: %w", err)
			}
			boundary := time.Unix(0, nanos).UTC()
			q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
				boundary, boundary, cursor.ID)
		}
		q = q.Order("created_at DESC, id DESC")
	case SortControversial:
		if cursor != nil {
			boundary, err := strconv.Atoi(cursor.Sort)
			if err != nil {
				return nil, "", fmt.Errorf("bad cursor: %w", err)
			}
			q = q.Where("("+controversyExpr+" < ?) OR ("+controversyExpr+" = ? AND id < ?)",
				boundary, boundary, cursor.ID)
		}
		q = q.Order(controversyExpr + " DESC, id DESC")
	default:
		return nil, "", fmt.Errorf("unknown sort key %q", sortKey)
	}

	var posts []models.Post
	if err := q.Limit(feedPageSize).Find(&posts).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(posts) == feedPageSize {
		last := posts[len(posts)-1]
		var sortVal string
		switch sortKey {
		case SortHot:
			sortVal = strconv.FormatFloat(last.HotScore, 'g', -1, 64)
		case SortTop:
			sortVal = strconv.Itoa(last.Score)
		case SortNew:
			sortVal = strconv.FormatInt(last.CreatedAt.UnixNano(), 10)
		case SortControversial:
			sortVal = strconv.Itoa(int(utils.ControversyScore(last.Upvotes, last.Downvotes)))
		}
		next = utils.EncodeCursor(utils.FeedCursor{Sort: sortVal, ID: last.ID})
	}

	if cacheKey != "" {
		utils.GetCache().Set(cacheKey, feedPage{posts: posts, next: next}, 30*time.Second)
	}
	return posts, next, nil
}

type feedPage struct {
	posts []models.Post
	next  string
}

func (s *PostService) loadPostAndActor(id, userID uint) (*models.Post, *models.User, error) {
	var post models.Post
	if err := db.DB.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUnknownPost
		}
		return nil, nil, err
	}
	var actor models.User
	if err := db.DB.First(&actor, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotAuthorized
		}
		return nil, nil, err
	}
	return &post, &actor, nil
}

func canManagePost(u *models.User, p *models.Post) bool {
	if p.UserID != nil && *p.UserID == u.ID {
		return true
	}
	return u.Role == models.RoleModerator || u.Role == models.RoleAdmin
}

func invalidateFeeds() {
	for _, k := range []string{SortHot, SortTop, SortNew, SortControversial} {
		utils.GetCache().Delete("feed:" + k + ":first")
	}
}
