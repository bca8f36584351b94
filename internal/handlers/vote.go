package handlers

import (
	"net/http"

	"alterearth/internal/middleware"
	"alterearth/internal/services"
	"alterearth/internal/utils"

	"github.com/gin-gonic/gin"
)

// reconcileScheduler queues post aggregates for background reconciliation.
type reconcileScheduler interface {
	ScheduleUpdate(postID uint)
}

type VoteHandler struct {
	votes   *services.VoteService
	ranking reconcileScheduler
}

func NewVoteHandler() *VoteHandler {
	return &VoteHandler{
		votes:   services.NewVoteService(),
		ranking: services.GetRankingService(),
	}
}

// scheduleReconcile flags the post for a ledger recount after a committed
// vote. The transaction already left the aggregates correct; the recount
// catches anything exogenous (clock jumps, manual fixes) early instead of
// waiting for the hourly sweep.
func (h *VoteHandler) scheduleReconcile(t services.Target) {
	if t.Kind == services.TargetPost {
		h.ranking.ScheduleUpdate(t.ID)
	}
}

type castRequest struct {
	Value int `json:"value" binding:"required"`
}

// Cast handles POST /vote/:type/:id. Value +1 or -1 in the body.
func (h *VoteHandler) Cast(c *gin.Context) {
	user := middleware.CurrentUser(c)

	target, err := services.ParseTarget(c.Param("type"), uint(utils.StringToInt(c.Param("id"))))
	if err != nil {
		fail(c, err)
		return
	}

	var req castRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, services.ErrInvalidValue)
		return
	}

	agg, err := h.votes.Cast(user.ID, target, req.Value)
	if err != nil {
		fail(c, err)
		return
	}
	h.scheduleReconcile(target)
	c.JSON(http.StatusOK, agg)
}

// Retract handles DELETE /vote/:type/:id.
func (h *VoteHandler) Retract(c *gin.Context) {
	user := middleware.CurrentUser(c)

	target, err := services.ParseTarget(c.Param("type"), uint(utils.StringToInt(c.Param("id"))))
	if err != nil {
		fail(c, err)
		return
	}

	agg, err := h.votes.Retract(user.ID, target)
	if err != nil {
		fail(c, err)
		return
	}
	h.scheduleReconcile(target)
	c.JSON(http.StatusOK, agg)
}

// Status handles GET /vote/:type/:id, returning the caller's current vote
// (0 means no vote).
func (h *VoteHandler) Status(c *gin.Context) {
	user := middleware.CurrentUser(c)

	target, err := services.ParseTarget(c.Param("type"), uint(utils.StringToInt(c.Param("id"))))
	if err != nil {
		fail(c, err)
		return
	}

	value, err := h.votes.Status(user.ID, target)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": value})
}
