package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-registration-api/internal/models"
	"github.com/noah-isme/uni-registration-api/internal/service"
	"github.com/noah-isme/uni-registration-api/pkg/response"
)

type gpaService interface {
	Cumulative(ctx context.Context, userID string) (*models.GPAResult, error)
	Transcript(ctx context.Context, userID string) (*models.Transcript, error)
	Calculate(req service.CalculateGPARequest) (*models.GPAResult, error)
}

type transcriptExporter interface {
	Transcript(ctx context.Context, userID string, format service.ExportFormat) (*service.ExportResult, error)
}

type scheduleService interface {
	Weekly(ctx context.Context, userID, language string) ([]models.ScheduleSlot, error)
}

// AcademicHandler serves GPA, transcript and weekly schedule views.
type AcademicHandler struct {
	gpa      gpaService
	exporter transcriptExporter
	schedule scheduleService
}

// NewAcademicHandler constructs AcademicHandler.
func NewAcademicHandler(gpa gpaService, exporter transcriptExporter, schedule scheduleService) *AcademicHandler {
	return &AcademicHandler{gpa: gpa, exporter: exporter, schedule: schedule}
}

// GPA godoc
// @Summary Cumulative GPA
// @Tags Academic
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /students/me/gpa [get]
func (h *AcademicHandler) GPA(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	out, err := h.gpa.Cumulative(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, out, nil)
}

// Transcript godoc
// @Summary Completed courses with grade points
// @Tags Academic
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /students/me/transcript [get]
func (h *AcademicHandler) Transcript(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	out, err := h.gpa.Transcript(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, out, nil)
}

// ExportTranscript godoc
// @Summary Download the transcript
// @Tags Academic
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /students/me/transcript/export [get]
func (h *AcademicHandler) ExportTranscript(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	out, err := h.exporter.Transcript(c.Request.Context(), actor.ID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, out.Filename, out.ContentType, out.Body)
}

// Calculate godoc
// @Summary What-if GPA calculator
// @Tags Academic
// @Accept json
// @Produce json
// @Param payload body service.CalculateGPARequest true "Courses"
// @Success 200 {object} response.Envelope
// @Router /gpa/calculate [post]
func (h *AcademicHandler) Calculate(c *gin.Context) {
	var req service.CalculateGPARequest
	if !bindJSON(c, &req, "invalid calculator payload") {
		return
	}
	out, err := h.gpa.Calculate(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, out, nil)
}

// Schedule godoc
// @Summary Weekly schedule of enrolled courses
// @Tags Academic
// @Produce json
// @Security BearerAuth
// @Param lang query string false "en or ar"
// @Success 200 {object} response.Envelope
// @Router /students/me/schedule [get]
func (h *AcademicHandler) Schedule(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	slots, err := h.schedule.Weekly(c.Request.Context(), actor.ID, c.DefaultQuery("lang", "en"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}
