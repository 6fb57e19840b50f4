package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-registration-api/internal/models"
	"github.com/noah-isme/uni-registration-api/internal/service"
	"github.com/noah-isme/uni-registration-api/pkg/response"
)

type enrollmentService interface {
	Register(ctx context.Context, actor service.Actor, req service.RegisterRequest) (*service.Registration, error)
	ListMine(ctx context.Context, userID string, status string) ([]models.EnrollmentDetail, error)
	RecordGrade(ctx context.Context, actor service.Actor, enrollmentID string, req service.RecordGradeRequest) (*models.Enrollment, error)
}

// EnrollmentHandler serves course registration.
type EnrollmentHandler struct {
	enrollments enrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// Register godoc
// @Summary Register for a course
// @Description Creates the enrollment and its audit "add" request atomically.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.RegisterRequest true "Course"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /registrations [post]
func (h *EnrollmentHandler) Register(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.RegisterRequest
	if !bindJSON(c, &req, "invalid registration payload") {
		return
	}
	out, err := h.enrollments.Register(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, out)
}

// ListMine godoc
// @Summary List my enrollments
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param status query string false "enrolled, completed or dropped"
// @Success 200 {object} response.Envelope
// @Router /students/me/enrollments [get]
func (h *EnrollmentHandler) ListMine(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	list, err := h.enrollments.ListMine(c.Request.Context(), actor.ID, c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// RecordGrade godoc
// @Summary Record a final grade
// @Tags Enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Param payload body service.RecordGradeRequest true "Grade"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/grade [put]
func (h *EnrollmentHandler) RecordGrade(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.RecordGradeRequest
	if !bindJSON(c, &req, "invalid grade payload") {
		return
	}
	out, err := h.enrollments.RecordGrade(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, out, nil)
}
