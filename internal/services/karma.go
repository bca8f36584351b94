package services

import (
	"alterearth/internal/db"
	"alterearth/internal/models"

	"gorm.io/gorm"
)

// propagateKarma applies a vote-driven net delta to the content author's
// karma balance and records it in karma_logs, all on the caller's
// transaction. One vote event produces exactly one log row and one balance
// update, so a flip that nets +2 lands as a single +2, never two halves.
func propagateKarma(tx *gorm.DB, authorID uint, t Target, delta int) error {
	column := "post_karma"
	kind := models.KarmaTargetPost
	if t.Kind == TargetComment {
		column = "comment_karma"
		kind = models.KarmaTargetComment
	}

	entry := models.KarmaLog{
		UserID:     authorID,
		Delta:      delta,
		TargetKind: kind,
		TargetID:   t.ID,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return err
	}

	return tx.Model(&models.User{}).
		Where("id = ?", authorID).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta)).
		Error
}

// KarmaHistory returns a user's karma log, newest first.
func KarmaHistory(userID uint, limit int) ([]models.KarmaLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var logs []models.KarmaLog
	err := db.DB.Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
