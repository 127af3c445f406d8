package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/certchain/credential-service/internal/services"
	"github.com/certchain/credential-service/internal/utils"
)

type DashboardHandler struct {
	BaseHandler
	service services.DashboardService
}

func NewDashboardHandler(service services.DashboardService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetPlatformStats godoc
// @Summary Get platform statistics
// @Description Returns registry, event and issuance totals plus the busiest event.
// @Tags dashboard
// @Produce json
// @Success 200 {object} services.PlatformStatsResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/dashboard/stats [get]
func (h *DashboardHandler) GetPlatformStats(c *gin.Context) {
	h.LogRequest(c, "Getting platform stats")

	stats, err := h.service.GetPlatformStats(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetMyPortfolio godoc
// @Summary Get the authenticated student's certificate portfolio
// @Description Returns every on-chain certificate for the authenticated student, with the registry entry attached when one exists.
// @Tags dashboard
// @Produce json
// @Success 200 {object} services.StudentPortfolioResponse
// @Failure 401 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/v1/students/me/portfolio [get]
func (h *DashboardHandler) GetMyPortfolio(c *gin.Context) {
	h.LogRequest(c, "Getting student portfolio")

	studentID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	portfolio, err := h.service.GetStudentPortfolio(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, portfolio)
}

// GetStudentPortfolio godoc
// @Summary Get a student's certificate portfolio
// @Tags dashboard
// @Produce json
// @Param student_id path string true "Student ID"
// @Success 200 {object} services.StudentPortfolioResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/v1/students/{student_id}/portfolio [get]
func (h *DashboardHandler) GetStudentPortfolio(c *gin.Context) {
	h.LogRequest(c, "Getting student portfolio")

	portfolio, err := h.service.GetStudentPortfolio(c.Request.Context(), c.Param("student_id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, portfolio)
}
