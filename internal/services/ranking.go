package services

import (
	"log"
	"sync"
	"time"

	"alterearth/internal/db"
	"alterearth/internal/models"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

// RankingService reconciles stored post aggregates against the vote ledger
// in the background. Vote transactions already keep score and hot_score
// consistent on their own; this service is the correctness backstop: it
// re-derives counts from the ledger for posts flagged dirty, and sweeps
// recent/top posts on a schedule so no stored value can stay wrong for
// longer than the sweep interval.
type RankingService struct {
	queue   chan uint
	pending map[uint]bool
	mu      sync.Mutex

	votes *VoteService
	cron  *cron.Cron
}

var (
	rankingService *RankingService
	rankingOnce    sync.Once
)

// GetRankingService returns the singleton reconciliation service and starts
// its worker on first use.
func GetRankingService() *RankingService {
	rankingOnce.Do(func() {
		rankingService = &RankingService{
			queue:   make(chan uint, 1000),
			pending: make(map[uint]bool),
			votes:   NewVoteService(),
		}
		go rankingService.worker()
	})
	return rankingService
}

// ScheduleUpdate queues a post for reconciliation. Duplicate requests for a
// post already in the queue are dropped.
func (s *RankingService) ScheduleUpdate(postID uint) {
	s.mu.Lock()
	if s.pending[postID] {
		s.mu.Unlock()
		return
	}
	s.pending[postID] = true
	s.mu.Unlock()

	select {
	case s.queue <- postID:
	default:
		// Queue full: drop the request, the scheduled sweep picks it up.
		s.mu.Lock()
		delete(s.pending, postID)
		s.mu.Unlock()
		log.Printf("ranking queue full, skipping post %d", postID)
	}
}

// StartScheduledSweep runs the reconciliation sweep every hour. Returns the
// scheduler so the caller can Stop it on shutdown.
func (s *RankingService) StartScheduledSweep() *cron.Cron {
	c := cron.New()
	if _, err := c.AddFunc("@hourly", s.sweep); err != nil {
		log.Fatalf("failed to schedule ranking sweep: %v", err)
	}
	c.Start()
	s.cron = c
	return c
}

func (s *RankingService) worker() {
	batch := make([]uint, 0, 50)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case postID := <-s.queue:
			batch = append(batch, postID)
			if len(batch) >= 50 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *RankingService) processBatch(postIDs []uint) {
	for _, postID := range postIDs {
		if _, err := s.votes.Recount(Target{Kind: TargetPost, ID: postID}); err != nil {
			log.Printf("ranking reconcile failed for post %d: %v", postID, err)
		}
		s.mu.Lock()
		delete(s.pending, postID)
		s.mu.Unlock()
	}
}

// sweep reconciles the last 7 days of posts plus the current top 30, a few
// at a time.
func (s *RankingService) sweep() {
	processed := make(map[uint]bool)

	var ids []uint
	sevenDaysAgo := time.Now().AddDate(0, 0, -7)
	if err := db.DB.Model(&models.Post{}).
		Where("created_at >= ? AND is_active = ?", sevenDaysAgo, true).
		Pluck("id", &ids).Error; err != nil {
		log.Printf("ranking sweep query failed: %v", err)
		return
	}

	var topIDs []uint
	if err := db.DB.Model(&models.Post{}).
		Where("is_active = ?", true).
		Order("score DESC").Limit(30).
		Pluck("id", &topIDs).Error; err != nil {
		log.Printf("ranking sweep query failed: %v", err)
		return
	}
	for _, id := range topIDs {
		ids = append(ids, id)
	}

	g := new(errgroup.Group)
	g.SetLimit(4)
	count := 0
	for _, id := range ids {
		if processed[id] {
			continue
		}
		processed[id] = true
		count++
		id := id
		g.Go(func() error {
			if _, err := s.votes.Recount(Target{Kind: TargetPost, ID: id}); err != nil {
				log.Printf("ranking reconcile failed for post %d: %v", id, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	log.Printf("ranking sweep reconciled %d posts", count)
}
