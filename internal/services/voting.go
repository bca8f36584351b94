package services

import (
	"errors"
	"fmt"

	"alterearth/internal/db"
	"alterearth/internal/models"
	"alterearth/internal/utils"

	"gorm.io/gorm"
)

// TargetKind discriminates what a vote lands on.
type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
)

// Target identifies a votable entity. Exactly one kind, exactly one id.
type Target struct {
	Kind TargetKind
	ID   uint
}

// ParseTarget validates a raw kind string from the request path.
func ParseTarget(kind string, id uint) (Target, error) {
	k := TargetKind(kind)
	if (k != TargetPost && k != TargetComment) || id == 0 {
		return Target{}, ErrInvalidTarget
	}
	return Target{Kind: k, ID: id}, nil
}

// Aggregate is the denormalized vote state of a target after an operation.
type Aggregate struct {
	Upvotes   int     `json:"upvotes"`
	Downvotes int     `json:"downvotes"`
	Score     int     `json:"score"`
	HotScore  float64 `json:"hot_score,omitempty"` // posts only
}

// A same-user double submit loses the insert race on the (user, target)
// unique index; the transaction is re-run and takes the flip path instead.
const voteConflictRetries = 3

type VoteService struct{}

func NewVoteService() *VoteService {
	return &VoteService{}
}

// Cast records a vote by userID on the target. Repeating the same value is
// a no-op; the opposite value flips the existing ledger row (net delta
// 2*value). The ledger write, the aggregate update, the author's karma and
// the post's hot score commit as one transaction.
func (s *VoteService) Cast(userID uint, t Target, value int) (Aggregate, error) {
	if value != 1 && value != -1 {
		return Aggregate{}, ErrInvalidValue
	}

	var agg Aggregate
	for attempt := 0; attempt < voteConflictRetries; attempt++ {
		err := db.DB.Transaction(func(tx *gorm.DB) error {
			return s.castInTx(tx, userID, t, value, &agg)
		})
		if err == nil {
			return agg, nil
		}
		// Unique violation aborts the whole transaction on Postgres, so the
		// flip fallback has to re-run it from the top.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		return Aggregate{}, err
	}
	return Aggregate{}, ErrConflict
}

// Retract removes userID's vote from the target if one exists (net delta
// -value of the removed vote); retracting with no vote in place is a no-op.
func (s *VoteService) Retract(userID uint, t Target) (Aggregate, error) {
	var agg Aggregate
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := checkTarget(tx, t); err != nil {
			return err
		}

		var vote models.Vote
		if err := voteQuery(tx, userID, t).First(&vote).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return readAggregate(tx, t, &agg) // no vote, nothing to undo
			}
			return err
		}

		if err := tx.Delete(&vote).Error; err != nil {
			return err
		}
		return s.applyDelta(tx, t, vote.Value, 0, &agg)
	})
	if err != nil {
		return Aggregate{}, err
	}
	return agg, nil
}

// Status returns userID's current vote value on the target, 0 for none.
func (s *VoteService) Status(userID uint, t Target) (int, error) {
	if err := checkTarget(db.DB, t); err != nil {
		return 0, err
	}
	var vote models.Vote
	if err := voteQuery(db.DB, userID, t).First(&vote).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return vote.Value, nil
}

// Recount rebuilds the target's aggregates by scanning the ledger. It is
// the repair path: idempotent, and always able to restore
// score == upvotes - downvotes from the authoritative vote rows.
func (s *VoteService) Recount(t Target) (Aggregate, error) {
	var agg Aggregate
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var up, down int64
		col := targetColumn(t)
		if err := tx.Model(&models.Vote{}).Where(col+" = ? AND value = 1", t.ID).Count(&up).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Vote{}).Where(col+" = ? AND value = -1", t.ID).Count(&down).Error; err != nil {
			return err
		}

		agg = Aggregate{Upvotes: int(up), Downvotes: int(down), Score: int(up - down)}

		switch t.Kind {
		case TargetPost:
			var post models.Post
			if err := tx.Select("id", "created_at").First(&post, t.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrUnknownTarget
				}
				return err
			}
			agg.HotScore = utils.HotScore(agg.Score, post.CreatedAt)
			return tx.Model(&models.Post{}).Where("id = ?", t.ID).Updates(map[string]interface{}{
				"upvotes":   agg.Upvotes,
				"downvotes": agg.Downvotes,
				"score":     agg.Score,
				"hot_score": agg.HotScore,
			}).Error
		case TargetComment:
			res := tx.Model(&models.Comment{}).Where("id = ?", t.ID).Updates(map[string]interface{}{
				"upvotes":   agg.Upvotes,
				"downvotes": agg.Downvotes,
				"score":     agg.Score,
			})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrUnknownTarget
			}
			return nil
		}
		return ErrInvalidTarget
	})
	if err != nil {
		return Aggregate{}, err
	}
	return agg, nil
}

func (s *VoteService) castInTx(tx *gorm.DB, userID uint, t Target, value int, agg *Aggregate) error {
	if err := checkTarget(tx, t); err != nil {
		return err
	}

	var existing models.Vote
	err := voteQuery(tx, userID, t).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		vote := models.Vote{UserID: userID, Value: value}
		if t.Kind == TargetPost {
			vote.PostID = &t.ID
		} else {
			vote.CommentID = &t.ID
		}
		if err := tx.Create(&vote).Error; err != nil {
			return err
		}
		return s.applyDelta(tx, t, 0, value, agg)

	case err != nil:
		return err

	case existing.Value == value:
		// Idempotent repeat: no new row, no aggregate change.
		return readAggregate(tx, t, agg)

	default:
		// Flip: replace the ledger entry, net delta 2*value.
		if err := tx.Model(&existing).Update("value", value).Error; err != nil {
			return err
		}
		return s.applyDelta(tx, t, existing.Value, value, agg)
	}
}

// applyDelta moves the target's denormalized counts from the old vote value
// to the new one (0 means no vote), then refreshes the hot score and the
// author's karma. Counts and score change in one UPDATE with relative
// expressions, so concurrent votes on the same target never lose updates
// and score can't drift from upvotes - downvotes.
func (s *VoteService) applyDelta(tx *gorm.DB, t Target, oldValue, newValue int, agg *Aggregate) error {
	du, dd := 0, 0
	switch oldValue {
	case 1:
		du--
	case -1:
		dd--
	}
	switch newValue {
	case 1:
		du++
	case -1:
		dd++
	}

	updates := map[string]interface{}{
		"upvotes":   gorm.Expr("upvotes + ?", du),
		"downvotes": gorm.Expr("downvotes + ?", dd),
		"score":     gorm.Expr("(upvotes + ?) - (downvotes + ?)", du, dd),
	}

	var authorID *uint
	switch t.Kind {
	case TargetPost:
		if err := tx.Model(&models.Post{}).Where("id = ?", t.ID).Updates(updates).Error; err != nil {
			return err
		}
		var post models.Post
		if err := tx.Select("id", "user_id", "created_at", "upvotes", "downvotes", "score").
			First(&post, t.ID).Error; err != nil {
			return err
		}
		*agg = Aggregate{Upvotes: post.Upvotes, Downvotes: post.Downvotes, Score: post.Score}
		agg.HotScore = utils.HotScore(post.Score, post.CreatedAt)
		if err := tx.Model(&models.Post{}).Where("id = ?", t.ID).
			UpdateColumn("hot_score", agg.HotScore).Error; err != nil {
			return err
		}
		authorID = post.UserID

	case TargetComment:
		if err := tx.Model(&models.Comment{}).Where("id = ?", t.ID).Updates(updates).Error; err != nil {
			return err
		}
		var comment models.Comment
		if err := tx.Select("id", "user_id", "upvotes", "downvotes", "score").
			First(&comment, t.ID).Error; err != nil {
			return err
		}
		*agg = Aggregate{Upvotes: comment.Upvotes, Downvotes: comment.Downvotes, Score: comment.Score}
		authorID = comment.UserID
	}

	// Karma follows the same net delta, resolved against the current author
	// reference. Absent author (removed account): nothing to propagate.
	if delta := newValue - oldValue; delta != 0 && authorID != nil {
		if err := propagateKarma(tx, *authorID, t, delta); err != nil {
			return fmt.Errorf("karma propagation: %w", err)
		}
	}
	return nil
}

// checkTarget verifies the target row exists and is eligible for voting.
func checkTarget(tx *gorm.DB, t Target) error {
	switch t.Kind {
	case TargetPost:
		var post models.Post
		if err := tx.Select("id", "is_active").First(&post, t.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownTarget
			}
			return err
		}
		if !post.IsActive {
			return ErrUnknownTarget
		}
	case TargetComment:
		var comment models.Comment
		if err := tx.Select("id", "is_deleted").First(&comment, t.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownTarget
			}
			return err
		}
		if comment.IsDeleted {
			return ErrUnknownTarget
		}
	default:
		return ErrInvalidTarget
	}
	return nil
}

func targetColumn(t Target) string {
	if t.Kind == TargetPost {
		return "post_id"
	}
	return "comment_id"
}

func voteQuery(tx *gorm.DB, userID uint, t Target) *gorm.DB {
	return tx.Where("user_id = ? AND "+targetColumn(t)+" = ?", userID, t.ID)
}

func readAggregate(tx *gorm.DB, t Target, agg *Aggregate) error {
	switch t.Kind {
	case TargetPost:
		var post models.Post
		if err := tx.Select("upvotes", "downvotes", "score", "hot_score").First(&post, t.ID).Error; err != nil {
			return err
		}
		*agg = Aggregate{Upvotes: post.Upvotes, Downvotes: post.Downvotes, Score: post.Score, HotScore: post.HotScore}
	case TargetComment:
		var comment models.Comment
		if err := tx.Select("upvotes", "downvotes", "score").First(&comment, t.ID).Error; err != nil {
			return err
		}
		*agg = Aggregate{Upvotes: comment.Upvotes, Downvotes: comment.Downvotes, Score: comment.Score}
	}
	return nil
}
