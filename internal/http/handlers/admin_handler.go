// Admin HTTP handlers: platform aggregates and quota management. The routes
// are mounted behind RequireAuth plus RequireAdmin.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harrmos/quran-api/internal/services"
	"github.com/harrmos/quran-api/internal/utils"
)

// AdminHandlers groups the admin endpoints.
type AdminHandlers struct {
	admin *services.AdminService
}

// NewAdminHandlers constructs the admin endpoints.
func NewAdminHandlers(svc *services.AdminService) *AdminHandlers {
	return &AdminHandlers{admin: svc}
}

// GlobalStats godoc
// @ID          adminGlobalStats
// @Summary     Platform-wide activity totals
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} repo.GlobalTotals
// @Failure     403 {object} handlers.ErrorResponse "Admin access required"
// @Router      /admin/stats/global [get]
func (h *AdminHandlers) GlobalStats(c *gin.Context) {
	totals, err := h.admin.GlobalStats(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to aggregate stats")
		return
	}
	ok(c, http.StatusOK, totals)
}

// UserStats godoc
// @ID          adminUserStats
// @Summary     Per-user activity listing
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Param       limit query int false "Max rows" default(100) maximum(500)
// @Success     200 {array} repo.UserSummary
// @Failure     403 {object} handlers.ErrorResponse "Admin access required"
// @Router      /admin/stats/users [get]
func (h *AdminHandlers) UserStats(c *gin.Context) {
	items, err := h.admin.UserStats(c.Request.Context(), utils.AtoiDefault(c.Query("limit"), 100))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to list user stats")
		return
	}
	ok(c, http.StatusOK, items)
}

// ResetQuota godoc
// @ID          adminResetQuota
// @Summary     Reset a user's chatbot message counter
// @Tags        Admin
// @Security    BearerAuth
// @Param       id path string true "User ID"
// @Success     204 {string} string "No Content"
// @Failure     403 {object} handlers.ErrorResponse "Admin access required"
// @Failure     404 {object} handlers.ErrorResponse "User not found"
// @Router      /admin/users/{id}/quota/reset [post]
func (h *AdminHandlers) ResetQuota(c *gin.Context) {
	if err := h.admin.ResetUserQuota(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to reset quota")
		return
	}
	noContent(c)
}
