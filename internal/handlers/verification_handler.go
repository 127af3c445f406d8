package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/certchain/credential-service/internal/services"
	"github.com/certchain/credential-service/internal/utils"
)

// VerificationHandler serves the public certificate verification endpoint.
type VerificationHandler struct {
	BaseHandler
	service services.VerificationService
}

func NewVerificationHandler(service services.VerificationService, logger utils.Logger) *VerificationHandler {
	return &VerificationHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// Verify godoc
// @Summary Verify a certificate
// @Description Looks the query up as a certificate ID first, then falls back to a student ID search returning the most recent certificate.
// @Tags verification
// @Produce json
// @Param query path string true "Certificate ID or student ID"
// @Success 200 {object} services.VerificationResult
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/v1/verify/{query} [get]
func (h *VerificationHandler) Verify(c *gin.Context) {
	h.LogRequest(c, "Verifying certificate")

	result, err := h.service.Verify(c.Request.Context(), c.Param("query"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
