package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/certchain/credential-service/internal/models"
	"github.com/certchain/credential-service/internal/services"
	"github.com/certchain/credential-service/internal/utils"
)

// EventHandler serves the campus event endpoints.
type EventHandler struct {
	BaseHandler
	service services.EventService
}

func NewEventHandler(service services.EventService, logger utils.Logger) *EventHandler {
	return &EventHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// CreateEvent godoc
// @Summary Create an event
// @Tags events
// @Accept json
// @Produce json
// @Param request body models.CreateEventRequest true "Event to create"
// @Success 201 {object} models.Event
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/events [post]
func (h *EventHandler) CreateEvent(c *gin.Context) {
	h.LogRequest(c, "Creating event")

	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Details: err.Error()})
		return
	}

	createdBy, _ := GetUserIDFromContext(c)
	event, err := h.service.CreateEvent(c.Request.Context(), &req, createdBy)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Removes the event. Registrations are kept for record keeping.
// @Tags events
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/events/{id} [delete]
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	h.LogRequest(c, "Deleting event")

	id, ok := h.eventID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteEvent(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "event deleted"})
}

// GetEvent godoc
// @Summary Get an event
// @Tags events
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} models.Event
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/events/{id} [get]
func (h *EventHandler) GetEvent(c *gin.Context) {
	h.LogRequest(c, "Getting event")

	id, ok := h.eventID(c)
	if !ok {
		return
	}

	event, err := h.service.GetEvent(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// ListEvents godoc
// @Summary List events
// @Tags events
// @Produce json
// @Param upcoming query bool false "Only events dated today or later"
// @Success 200 {array} models.Event
// @Router /api/v1/events [get]
func (h *EventHandler) ListEvents(c *gin.Context) {
	h.LogRequest(c, "Listing events")

	upcomingOnly, _ := strconv.ParseBool(c.Query("upcoming"))
	eventList, err := h.service.ListEvents(c.Request.Context(), upcomingOnly)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, eventList)
}

// RegisterForEvent godoc
// @Summary Register a student for an event
// @Description Registers the student if seats remain and the student is not already registered.
// @Tags events
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param request body models.RegisterForEventRequest true "Registration"
// @Success 201 {object} models.EventRegistration
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/events/{id}/registrations [post]
func (h *EventHandler) RegisterForEvent(c *gin.Context) {
	h.LogRequest(c, "Registering student for event")

	id, ok := h.eventID(c)
	if !ok {
		return
	}

	var req models.RegisterForEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Details: err.Error()})
		return
	}

	registration, err := h.service.RegisterStudent(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, registration)
}

// CancelRegistration godoc
// @Summary Cancel an event registration
// @Tags events
// @Produce json
// @Param id path int true "Event ID"
// @Param student_id path string true "Student ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/events/{id}/registrations/{student_id} [delete]
func (h *EventHandler) CancelRegistration(c *gin.Context) {
	h.LogRequest(c, "Cancelling event registration")

	id, ok := h.eventID(c)
	if !ok {
		return
	}

	// Students may only cancel their own registration.
	studentID := c.Param("student_id")
	if role, err := GetUserRoleFromContext(c); err == nil && role == models.RoleStudent {
		subject, err := GetUserIDFromContext(c)
		if err != nil || !strings.EqualFold(subject, studentID) {
			c.JSON(http.StatusForbidden, ErrorResponse{Message: "Registrations can only be cancelled by their owner"})
			return
		}
	}

	if err := h.service.CancelRegistration(c.Request.Context(), id, studentID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "registration cancelled"})
}

// ListParticipants godoc
// @Summary List event participants
// @Tags events
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {array} models.EventRegistration
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/events/{id}/registrations [get]
func (h *EventHandler) ListParticipants(c *gin.Context) {
	h.LogRequest(c, "Listing event participants")

	id, ok := h.eventID(c)
	if !ok {
		return
	}

	participants, err := h.service.Participants(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, participants)
}

// ExportParticipants godoc
// @Summary Export event participants as CSV
// @Tags events
// @Produce text/csv
// @Param id path int true "Event ID"
// @Success 200 {string} string "CSV content"
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/events/{id}/registrations/export [get]
func (h *EventHandler) ExportParticipants(c *gin.Context) {
	h.LogRequest(c, "Exporting event participants")

	id, ok := h.eventID(c)
	if !ok {
		return
	}

	export, err := h.service.ExportParticipantsCSV(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	writeCSVExport(c, export)
}

func (h *EventHandler) eventID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid event ID"})
		return 0, false
	}
	return uint(id), true
}
