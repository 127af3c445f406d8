package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/certchain/credential-service/internal/models"
	"github.com/certchain/credential-service/internal/services"
	"github.com/certchain/credential-service/internal/utils"
)

// RegistryHandler serves the student registry endpoints.
type RegistryHandler struct {
	BaseHandler
	service services.RegistryService
}

func NewRegistryHandler(service services.RegistryService, logger utils.Logger) *RegistryHandler {
	return &RegistryHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// RegisterStudent godoc
// @Summary Register a student
// @Description Adds a student to the registry. Student IDs are matched case-insensitively.
// @Tags registry
// @Accept json
// @Produce json
// @Param request body models.RegisterStudentRequest true "Student to register"
// @Success 201 {object} models.Student
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/registry/students [post]
func (h *RegistryHandler) RegisterStudent(c *gin.Context) {
	h.LogRequest(c, "Registering student")

	var req models.RegisterStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Details: err.Error()})
		return
	}

	student, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, student)
}

// BulkImport godoc
// @Summary Bulk import students
// @Description Imports students from an uploaded CSV or Excel file. Rows with already registered IDs are skipped.
// @Tags registry
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or Excel file"
// @Success 200 {object} models.BulkImportResult
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/registry/students/import [post]
func (h *RegistryHandler) BulkImport(c *gin.Context) {
	h.LogRequest(c, "Bulk importing students")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "File upload is required", Details: err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Failed to open uploaded file", Details: err.Error()})
		return
	}
	defer file.Close()

	result, err := h.service.BulkImport(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetStudent godoc
// @Summary Get a registered student
// @Tags registry
// @Produce json
// @Param student_id path string true "Student ID"
// @Success 200 {object} models.Student
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/registry/students/{student_id} [get]
func (h *RegistryHandler) GetStudent(c *gin.Context) {
	h.LogRequest(c, "Getting student")

	student, err := h.service.Get(c.Request.Context(), c.Param("student_id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, student)
}

// ListStudents godoc
// @Summary List registered students
// @Description Lists all students, optionally filtered by department.
// @Tags registry
// @Produce json
// @Param department query string false "Department filter"
// @Success 200 {array} models.Student
// @Router /api/v1/registry/students [get]
func (h *RegistryHandler) ListStudents(c *gin.Context) {
	h.LogRequest(c, "Listing students")

	students, err := h.service.List(c.Request.Context(), c.Query("department"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, students)
}

// ListDepartments godoc
// @Summary List known departments
// @Tags registry
// @Produce json
// @Success 200 {array} string
// @Router /api/v1/registry/departments [get]
func (h *RegistryHandler) ListDepartments(c *gin.Context) {
	h.LogRequest(c, "Listing departments")

	departments, err := h.service.Departments(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, departments)
}

// ExportStudents godoc
// @Summary Export the registry as an issuance-ready CSV
// @Description Produces a CSV with generated certificate IDs, one row per registered student.
// @Tags registry
// @Produce text/csv
// @Success 200 {string} string "CSV content"
// @Router /api/v1/registry/students/export [get]
func (h *RegistryHandler) ExportStudents(c *gin.Context) {
	h.LogRequest(c, "Exporting registry")

	export, err := h.service.ExportCSV(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	writeCSVExport(c, export)
}

// DownloadTemplate godoc
// @Summary Download the bulk import CSV template
// @Tags registry
// @Produce text/csv
// @Success 200 {string} string "CSV content"
// @Router /api/v1/registry/students/template [get]
func (h *RegistryHandler) DownloadTemplate(c *gin.Context) {
	h.LogRequest(c, "Downloading import template")

	writeCSVExport(c, h.service.TemplateCSV())
}

// WipeRegistry godoc
// @Summary Remove every student from the registry
// @Description Clears the registry. On-chain certificates are untouched.
// @Tags registry
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/v1/registry/students [delete]
func (h *RegistryHandler) WipeRegistry(c *gin.Context) {
	h.LogRequest(c, "Wiping registry")

	if err := h.service.Wipe(c.Request.Context()); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "registry cleared"})
}

func writeCSVExport(c *gin.Context, export *services.CSVExport) {
	c.Header("Content-Disposition", "attachment; filename="+export.Filename)
	c.Data(http.StatusOK, "text/csv", export.Content)
}
