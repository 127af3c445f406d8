package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/certchain/credential-service/internal/models"
	"github.com/certchain/credential-service/internal/services"
	"github.com/certchain/credential-service/internal/utils"
)

// IssuanceHandler serves the certificate issuance endpoints.
type IssuanceHandler struct {
	BaseHandler
	service services.IssuanceService
}

func NewIssuanceHandler(service services.IssuanceService, logger utils.Logger) *IssuanceHandler {
	return &IssuanceHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// IssueSingle godoc
// @Summary Issue a single certificate
// @Description Pins the uploaded document, records the certificate on chain and mirrors the issuance locally.
// @Tags issuance
// @Accept multipart/form-data
// @Produce json
// @Param cert_id formData string true "Certificate ID"
// @Param student_name formData string true "Student name"
// @Param student_id formData string true "Student ID"
// @Param recipient formData string false "Recipient wallet address"
// @Param document formData file true "Certificate document"
// @Success 201 {object} models.IssuanceReceipt
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/v1/certificates [post]
func (h *IssuanceHandler) IssueSingle(c *gin.Context) {
	h.LogRequest(c, "Issuing certificate")

	req := models.IssueCertificateRequest{
		CertID:      c.PostForm("cert_id"),
		StudentName: c.PostForm("student_name"),
		StudentID:   c.PostForm("student_id"),
		Recipient:   c.PostForm("recipient"),
	}

	fileHeader, err := c.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Certificate document is required", Details: err.Error()})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Failed to open uploaded document", Details: err.Error()})
		return
	}
	defer file.Close()

	receipt, err := h.service.IssueSingle(c.Request.Context(), &req, fileHeader.Filename, file)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

// IssueBatch godoc
// @Summary Issue a batch of certificates
// @Description Parses the uploaded roster, validates every row, then pins one document and records all certificates in a single transaction. The batch succeeds or fails as a whole.
// @Tags issuance
// @Accept multipart/form-data
// @Produce json
// @Param roster formData file true "CSV or Excel roster"
// @Param document formData file true "Shared certificate document"
// @Success 201 {object} models.IssuanceReceipt
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/v1/certificates/batch [post]
func (h *IssuanceHandler) IssueBatch(c *gin.Context) {
	h.LogRequest(c, "Issuing certificate batch")

	rosterHeader, err := c.FormFile("roster")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Roster file is required", Details: err.Error()})
		return
	}
	roster, err := rosterHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Failed to open roster file", Details: err.Error()})
		return
	}
	defer roster.Close()

	rows, err := h.service.ParseBatchFile(rosterHeader.Filename, roster)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	docHeader, err := c.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Certificate document is required", Details: err.Error()})
		return
	}
	document, err := docHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Failed to open uploaded document", Details: err.Error()})
		return
	}
	defer document.Close()

	receipt, err := h.service.IssueBatch(c.Request.Context(), rows, docHeader.Filename, document)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

// RevokeCertificate godoc
// @Summary Revoke a certificate
// @Description Marks the certificate revoked on chain. The record itself is never deleted.
// @Tags issuance
// @Produce json
// @Param cert_id path string true "Certificate ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/v1/certificates/{cert_id} [delete]
func (h *IssuanceHandler) RevokeCertificate(c *gin.Context) {
	h.LogRequest(c, "Revoking certificate")

	txHash, err := h.service.Revoke(c.Request.Context(), c.Param("cert_id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tx_hash": txHash})
}

// ListIssued godoc
// @Summary List locally mirrored issuances
// @Tags issuance
// @Produce json
// @Param limit query int false "Maximum number of records" default(50)
// @Success 200 {array} models.IssuedCertificate
// @Router /api/v1/certificates [get]
func (h *IssuanceHandler) ListIssued(c *gin.Context) {
	h.LogRequest(c, "Listing issued certificates")

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	certificates, err := h.service.ListIssued(c.Request.Context(), limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, certificates)
}
