// Reading tracking HTTP handlers: progress, history, favorites, goals,
// sessions, daily stats, and notifications. All routes operate on the
// authenticated caller's own records.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harrmos/quran-api/internal/domain"
	"github.com/harrmos/quran-api/internal/http/middleware"
	"github.com/harrmos/quran-api/internal/services"
	"github.com/harrmos/quran-api/internal/utils"
)

// TrackingHandlers groups the tracking endpoints.
type TrackingHandlers struct {
	tracking *services.TrackingService
}

// NewTrackingHandlers constructs the tracking endpoints.
func NewTrackingHandlers(svc *services.TrackingService) *TrackingHandlers {
	return &TrackingHandlers{tracking: svc}
}

//
// DTOs
//

// SaveProgressRequest is the JSON payload for saving the reading position.
type SaveProgressRequest struct {
	Surah int `json:"surah" binding:"required" example:"2"`
	Ayah  int `json:"ayah" binding:"required" example:"255"`
}

// AddHistoryRequest is the JSON payload for logging a reading action.
type AddHistoryRequest struct {
	Surah           int    `json:"surah" binding:"required"`
	Ayah            int    `json:"ayah" binding:"required"`
	ActionType      string `json:"actionType" example:"read"`
	DurationSeconds int    `json:"durationSeconds"`
}

// AddFavoriteRequest is the JSON payload for bookmarking.
type AddFavoriteRequest struct {
	Type          string `json:"type" binding:"required" example:"verse"`
	ReferenceID   string `json:"referenceId" binding:"required" example:"2:255"`
	ReferenceText string `json:"referenceText"`
	Notes         string `json:"notes"`
}

// CreateGoalRequest is the JSON payload for creating a reading goal.
type CreateGoalRequest struct {
	GoalType    string     `json:"goalType" binding:"required" example:"daily_verses"`
	TargetValue int        `json:"targetValue" binding:"required" example:"10"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
}

// UpdateGoalRequest is the JSON payload for advancing a goal.
type UpdateGoalRequest struct {
	CurrentValue int  `json:"currentValue"`
	IsCompleted  bool `json:"isCompleted"`
}

// StartSessionRequest is the JSON payload for opening a reading session.
type StartSessionRequest struct {
	DeviceInfo map[string]any `json:"deviceInfo,omitempty"`
}

// EndSessionRequest is the JSON payload for closing a reading session.
type EndSessionRequest struct {
	VersesRead    int `json:"versesRead"`
	HasanatEarned int `json:"hasanatEarned"`
}

//
// Helpers
//

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

// trackingErr translates service errors into HTTP responses.
func trackingErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid input")
	case errors.Is(err, services.ErrRecordNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "record not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "tracking operation failed")
	}
}

//
// Progress
//

// SaveProgress godoc
// @ID          saveProgress
// @Summary     Save the reading position
// @Tags        Tracking
// @Accept      json
// @Security    BearerAuth
// @Param       body body handlers.SaveProgressRequest true "Position"
// @Success     204 {string} string "No Content"
// @Failure     400 {object} handlers.ErrorResponse "Invalid position"
// @Router      /api/tracking/progress [put]
func (h *TrackingHandlers) SaveProgress(c *gin.Context) {
	var req SaveProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "surah and ayah required")
		return
	}
	if err := h.tracking.SaveProgress(c.Request.Context(), middleware.UserID(c), req.Surah, req.Ayah); err != nil {
		trackingErr(c, err)
		return
	}
	noContent(c)
}

// Progress godoc
// @ID          progress
// @Summary     Current reading position
// @Tags        Tracking
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} domain.ReadingProgress
// @Router      /api/tracking/progress [get]
func (h *TrackingHandlers) Progress(c *gin.Context) {
	p, err := h.tracking.Progress(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		trackingErr(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

//
// History
//

// AddHistory godoc
// @ID          addHistory
// @Summary     Log a reading action
// @Tags        Tracking
// @Accept      json
// @Security    BearerAuth
// @Param       body body handlers.AddHistoryRequest true "Action"
// @Success     204 {string} string "No Content"
// @Failure     400 {object} handlers.ErrorResponse "Invalid input"
// @Router      /api/tracking/history [post]
func (h *TrackingHandlers) AddHistory(c *gin.Context) {
	var req AddHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "surah and ayah required")
		return
	}
	if err := h.tracking.AddHistory(c.Request.Context(), middleware.UserID(c), req.Surah, req.Ayah, req.ActionType, req.DurationSeconds); err != nil {
		trackingErr(c, err)
		return
	}
	noContent(c)
}

// History godoc
// @ID          history
// @Summary     Recent reading actions
// @Tags        Tracking
// @Produce     json
// @Security    BearerAuth
// @Param       limit query int false "Max entries" default(50) maximum(200)
// @Success     200 {array} domain.ReadingHistory
// @Router      /api/tracking/history [get]
func (h *TrackingHandlers) History(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 50)
	items, err := h.tracking.History(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		trackingErr(c, err)
		return
	}
	if items == nil {
		items = []domain.ReadingHistory{}
	}
	ok(c, http.StatusOK, items)
}

//
// Favorites
//

// AddFavorite godoc
// @ID          addFavorite
// @Summary     Bookmark a verse, surah, or recitation
// @Tags        Tracking
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body body handlers.AddFavoriteRequest true "Bookmark"
// @Success     201 {object} domain.Favorite
// @Failure     400 {object} handlers.ErrorResponse "Invalid input"
// @Router      /api/tracking/favorites [post]
func (h *TrackingHandlers) AddFavorite(c *gin.Context) {
	var req AddFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "type and referenceId required")
		return
	}
	f, err := h.tracking.AddFavorite(c.Request.Context(), middleware.UserID(c), req.Type, req.ReferenceID, req.ReferenceText, req.Notes)
	if err != nil {
		trackingErr(c, err)
		return
	}
	ok(c, http.StatusCreated, f)
}

// Favorites godoc
// @ID          favorites
// @Summary     List bookmarks
// @Tags        Tracking
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} domain.Favorite
// @Router      /api/tracking/favorites [get]
func (h *TrackingHandlers) Favorites(c *gin.Context) {
	items, err := h.tracking.Favorites(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		trackingErr(c, err)
		return
	}
	if items == nil {
		items = []domain.Favorite{}
	}
	ok(c, http.StatusOK, items)
}

// RemoveFavorite godoc
// @ID          removeFavorite
// @Summary     Delete a bookmark
// @Tags        Tracking
// @Security    BearerAuth
// @Param       id path int true "Favorite ID"
// @Success     204 {string} string "No Content"
// @Failure     404 {object} handlers.ErrorResponse "Bookmark not found"
// @Router      /api/tracking/favorites/{id} [delete]
func (h *TrackingHandlers) RemoveFavorite(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	if err := h.tracking.RemoveFavorite(c.Request.Context(), middleware.UserID(c), id); err != nil {
		trackingErr(c, err)
		return
	}
	noContent(c)
}

//
// Goals
//

// CreateGoal godoc
// @ID          createGoal
// @Summary     Create a reading goal
// @Tags        Tracking
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body body handlers.CreateGoalRequest true "Goal"
// @Success     201 {object} domain.ReadingGoal
// @Failure     400 {object} handlers.ErrorResponse "Invalid input"
// @Router      /api/tracking/goals [post]
func (h *TrackingHandlers) CreateGoal(c *gin.Context) {
	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "goalType and targetValue required")
		return
	}
	g, err := h.tracking.CreateGoal(c.Request.Context(), middleware.UserID(c), req.GoalType, req.TargetValue, req.StartDate, req.EndDate)
	if err != nil {
		trackingErr(c, err)
		return
	}
	ok(c, http.StatusCreated, g)
}

// Goals godoc
// @ID          goals
// @Summary     List reading goals
// @Tags        Tracking
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} domain.ReadingGoal
// @Router      /api/tracking/goals [get]
func (h *TrackingHandlers) Goals(c *gin.Context) {
	items, err := h.tracking.Goals(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		trackingErr(c, err)
		return
	}
	if items == nil {
		items = []domain.ReadingGoal{}
	}
	ok(c, http.StatusOK, items)
}

// UpdateGoal godoc
// @ID          updateGoal
// @Summary     Advance a reading goal
// @Tags        Tracking
// @Accept      json
// @Security    BearerAuth
// @Param       id   path int true "Goal ID"
// @Param       body body handlers.UpdateGoalRequest true "Progress"
// @Success     204 {string} string "No Content"
// @Failure     404 {object} handlers.ErrorResponse "Goal not found"
// @Router      /api/tracking/goals/{id} [put]
func (h *TrackingHandlers) UpdateGoal(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	var req UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := h.tracking.UpdateGoal(c.Request.Context(), middleware.UserID(c), id, req.CurrentValue, req.IsCompleted); err != nil {
		trackingErr(c, err)
		return
	}
	noContent(c)
}

//
// Sessions
//

// StartSession godoc
// @ID          startSession
// @Summary     Open a timed reading session
// @Tags        Tracking
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body body handlers.StartSessionRequest false "Device info"
// @Success     201 {object} domain.ReadingSession
// @Router      /api/tracking/sessions [post]
func (h *TrackingHandlers) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	var device []byte
	if len(req.DeviceInfo) > 0 {
		raw, err := json.Marshal(req.DeviceInfo)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid deviceInfo")
			return
		}
		device = raw
	}

	sess, err := h.tracking.StartSession(c.Request.Context(), middleware.UserID(c), device)
	if err != nil {
		trackingErr(c, err)
		return
	}
	ok(c, http.StatusCreated, sess)
}

// EndSession godoc
// @ID          endSession
// @Summary     Close a reading session
// @Description Records the end time, derives the duration, and stores the session counters.
// @Tags        Tracking
// @Accept      json
// @Security    BearerAuth
// @Param       id   path int true "Session ID"
// @Param       body body handlers.EndSessionRequest true "Session counters"
// @Success     204 {string} string "No Content"
// @Failure     404 {object} handlers.ErrorResponse "Session not found"
// @Router      /api/tracking/sessions/{id}/end [post]
func (h *TrackingHandlers) EndSession(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	var req EndSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := h.tracking.EndSession(c.Request.Context(), middleware.UserID(c), id, req.VersesRead, req.HasanatEarned); err != nil {
		trackingErr(c, err)
		return
	}
	noContent(c)
}

//
// Daily stats
//

// RecordStats godoc
// @ID          recordStats
// @Summary     Fold reading activity into today's aggregates
// @Tags        Tracking
// @Accept      json
// @Security    BearerAuth
// @Param       body body services.StatsDelta true "Activity deltas"
// @Success     204 {string} string "No Content"
// @Failure     400 {object} handlers.ErrorResponse "Negative delta"
// @Router      /api/tracking/stats [post]
func (h *TrackingHandlers) RecordStats(c *gin.Context) {
	var req services.StatsDelta
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := h.tracking.RecordStats(c.Request.Context(), middleware.UserID(c), req); err != nil {
		trackingErr(c, err)
		return
	}
	noContent(c)
}

// TodayStats godoc
// @ID          todayStats
// @Summary     Today's reading aggregates
// @Tags        Tracking
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} domain.DailyStat
// @Router      /api/tracking/stats/today [get]
func (h *TrackingHandlers) TodayStats(c *gin.Context) {
	s, err := h.tracking.TodayStats(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		trackingErr(c, err)
		return
	}
	ok(c, http.StatusOK, s)
}

// WeekStats godoc
// @ID          weekStats
// @Summary     Daily aggregates of the last seven days
// @Tags        Tracking
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} domain.DailyStat
// @Router      /api/tracking/stats/week [get]
func (h *TrackingHandlers) WeekStats(c *gin.Context) {
	items, err := h.tracking.WeekStats(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		trackingErr(c, err)
		return
	}
	if items == nil {
		items = []domain.DailyStat{}
	}
	ok(c, http.StatusOK, items)
}

// AllStats godoc
// @ID          allStats
// @Summary     Every daily aggregate row of the caller
// @Tags        Tracking
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} domain.DailyStat
// @Router      /api/tracking/stats [get]
func (h *TrackingHandlers) AllStats(c *gin.Context) {
	items, err := h.tracking.AllStats(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		trackingErr(c, err)
		return
	}
	if items == nil {
		items = []domain.DailyStat{}
	}
	ok(c, http.StatusOK, items)
}

// DailyStats godoc
// @ID          dailyStats
// @Summary     Daily aggregates of the last N days
// @Tags        Tracking
// @Produce     json
// @Security    BearerAuth
// @Param       days path int true "Window in days" minimum(1) maximum(365)
// @Success     200 {array} domain.DailyStat
// @Failure     400 {object} handlers.ErrorResponse "Invalid window"
// @Router      /api/tracking/stats/daily/{days} [get]
func (h *TrackingHandlers) DailyStats(c *gin.Context) {
	days, err := strconv.Atoi(c.Param("days"))
	if err != nil || days <= 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "days must be a positive integer")
		return
	}
	items, err := h.tracking.RecentStats(c.Request.Context(), middleware.UserID(c), days)
	if err != nil {
		trackingErr(c, err)
		return
	}
	if items == nil {
		items = []domain.DailyStat{}
	}
	ok(c, http.StatusOK, items)
}

// Totals godoc
// @ID          totals
// @Summary     Lifetime reading totals
// @Tags        Tracking
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} domain.DailyStat
// @Router      /api/tracking/stats/totals [get]
func (h *TrackingHandlers) Totals(c *gin.Context) {
	s, err := h.tracking.Totals(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		trackingErr(c, err)
		return
	}
	ok(c, http.StatusOK, s)
}

//
// Notifications
//

// Notifications godoc
// @ID          notifications
// @Summary     List the caller's notifications
// @Tags        Notifications
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} domain.Notification
// @Router      /api/notifications [get]
func (h *TrackingHandlers) Notifications(c *gin.Context) {
	items, err := h.tracking.Notifications(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		trackingErr(c, err)
		return
	}
	if items == nil {
		items = []domain.Notification{}
	}
	ok(c, http.StatusOK, items)
}

// MarkNotificationRead godoc
// @ID          markNotificationRead
// @Summary     Mark a notification as read
// @Tags        Notifications
// @Security    BearerAuth
// @Param       id path int true "Notification ID"
// @Success     204 {string} string "No Content"
// @Failure     404 {object} handlers.ErrorResponse "Notification not found"
// @Router      /api/notifications/{id}/read [post]
func (h *TrackingHandlers) MarkNotificationRead(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	if err := h.tracking.MarkRead(c.Request.Context(), middleware.UserID(c), id); err != nil {
		trackingErr(c, err)
		return
	}
	noContent(c)
}
