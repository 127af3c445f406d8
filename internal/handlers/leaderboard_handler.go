package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/certchain/credential-service/internal/services"
	"github.com/certchain/credential-service/internal/utils"
)

// LeaderboardHandler serves the achievement leaderboard endpoints.
type LeaderboardHandler struct {
	BaseHandler
	service services.LeaderboardService
}

func NewLeaderboardHandler(service services.LeaderboardService, logger utils.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetLeaderboard godoc
// @Summary Get the achievement leaderboard
// @Description Merges registry entries with on-chain issuance history into a ranked list. Optionally filtered by department.
// @Tags leaderboard
// @Produce json
// @Param department query string false "Department filter"
// @Success 200 {object} services.LeaderboardResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/v1/leaderboard [get]
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	h.LogRequest(c, "Getting leaderboard")

	leaderboard, err := h.service.GetLeaderboard(c.Request.Context(), c.Query("department"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, leaderboard)
}

// GetDepartments godoc
// @Summary List departments available for leaderboard filtering
// @Tags leaderboard
// @Produce json
// @Success 200 {array} string
// @Router /api/v1/leaderboard/departments [get]
func (h *LeaderboardHandler) GetDepartments(c *gin.Context) {
	h.LogRequest(c, "Listing leaderboard departments")

	departments, err := h.service.Departments(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, departments)
}
