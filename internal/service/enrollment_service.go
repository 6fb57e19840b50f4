package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-registration-api/internal/models"
	"github.com/noah-isme/uni-registration-api/pkg/database"
	appErrors "github.com/noah-isme/uni-registration-api/pkg/errors"
)

const activeEnrollmentIndex = "enrollments_active_unique"

type enrollmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindActive(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	ListByUser(ctx context.Context, userID string, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error)
	CreateWithRequest(ctx context.Context, enrollment *models.Enrollment, request *models.Request) error
	RecordGrade(ctx context.Context, id, grade string) error
}

type courseFinder interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	CourseID string `json:"course_id" validate:"required"`
}

// RecordGradeRequest sets the final grade of an enrollment.
type RecordGradeRequest struct {
	Grade string `json:"grade" validate:"required,grade"`
}

// Registration is the outcome of a successful registration.
type Registration struct {
	Enrollment models.Enrollment `json:"enrollment"`
	Request    models.Request    `json:"request"`
}

// EnrollmentService orchestrates course registration.
type EnrollmentService struct {
	repo      enrollmentRepository
	courses   courseFinder
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, courses courseFinder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, courses: courses, metrics: metrics, validator: validate, logger: logger}
}

// Register enrolls the student and files the pending add request in one transaction.
func (s *EnrollmentService) Register(ctx context.Context, actor Actor, req RegisterRequest) (*Registration, error) {
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can register for courses")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	if _, err := s.repo.FindActive(ctx, actor.ID, req.CourseID); err == nil {
		s.metrics.RecordRegistration("already_enrolled")
		return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
	} else if !isNotFound(err) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}

	courseID := req.CourseID
	enrollment := &models.Enrollment{UserID: actor.ID, CourseID: courseID, Status: models.EnrollmentStatusEnrolled}
	request := &models.Request{UserID: actor.ID, Type: models.RequestTypeAdd, CourseID: &courseID, Status: models.RequestStatusPending}
	if err := s.repo.CreateWithRequest(ctx, enrollment, request); err != nil {
		if database.IsUniqueViolation(err, activeEnrollmentIndex) {
			s.metrics.RecordRegistration("already_enrolled")
			return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
		}
		s.metrics.RecordRegistration("error")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register for course")
	}

	s.metrics.RecordRegistration("registered")
	s.logger.Info("course registration created",
		zap.String("user_id", actor.ID),
		zap.String("course_id", courseID),
		zap.String("request_id", request.ID))
	return &Registration{Enrollment: *enrollment, Request: *request}, nil
}

// ListMine returns the student's enrollments, optionally filtered by status.
func (s *EnrollmentService) ListMine(ctx context.Context, userID string, status string) ([]models.EnrollmentDetail, error) {
	st := models.EnrollmentStatus(strings.ToLower(strings.TrimSpace(status)))
	switch st {
	case "", models.EnrollmentStatusEnrolled, models.EnrollmentStatusCompleted, models.EnrollmentStatusDropped:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown enrollment status")
	}
	list, err := s.repo.ListByUser(ctx, userID, st)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return list, nil
}

// RecordGrade completes an enrollment with a letter grade. Advisors and admins only.
func (s *EnrollmentService) RecordGrade(ctx context.Context, actor Actor, enrollmentID string, req RecordGradeRequest) (*models.Enrollment, error) {
	if !actor.Role.Staff() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only advisors and admins can record grades")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade")
	}
	enrollment, err := s.repo.FindByID(ctx, enrollmentID)
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status == models.EnrollmentStatusDropped {
		return nil, appErrors.Clone(appErrors.ErrConflict, "cannot grade a dropped enrollment")
	}

	grade := NormaliseGrade(req.Grade)
	if err := s.repo.RecordGrade(ctx, enrollmentID, grade); err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record grade")
	}
	enrollment.Grade = &grade
	enrollment.Status = models.EnrollmentStatusCompleted
	s.logger.Info("grade recorded", zap.String("enrollment_id", enrollmentID), zap.String("grade", grade), zap.String("by", actor.ID))
	return enrollment, nil
}
