package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-registration-api/internal/models"
	"github.com/noah-isme/uni-registration-api/internal/repository"
	appErrors "github.com/noah-isme/uni-registration-api/pkg/errors"
)

type requestRepository interface {
	Create(ctx context.Context, request *models.Request) error
	FindByID(ctx context.Context, id string) (*models.Request, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetail, int, error)
	Decide(ctx context.Context, id string, status models.RequestStatus, decidedBy string, change repository.EnrollmentChange) (bool, error)
}

type activeEnrollmentStore interface {
	FindActive(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	EnsureEnrolled(ctx context.Context, userID, courseID string) error
}

// SubmitRequestPayload files a drop or swap request.
type SubmitRequestPayload struct {
	Type           models.RequestType `json:"type" validate:"required,request_type"`
	CourseID       string             `json:"course_id" validate:"required"`
	TargetCourseID string             `json:"target_course_id" validate:"required_if=Type swap"`
	Message        string             `json:"message" validate:"max=500"`
}

// RequestServiceConfig toggles optional behaviour.
type RequestServiceConfig struct {
	ApplyDropSwap bool
}

// RequestService runs the advisor approval workflow.
type RequestService struct {
	repo        requestRepository
	enrollments activeEnrollmentStore
	courses     courseFinder
	metrics     *MetricsService
	cfg         RequestServiceConfig
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewRequestService constructs RequestService.
func NewRequestService(repo requestRepository, enrollments activeEnrollmentStore, courses courseFinder, metrics *MetricsService, cfg RequestServiceConfig, validate *validator.Validate, logger *zap.Logger) *RequestService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{repo: repo, enrollments: enrollments, courses: courses, metrics: metrics, cfg: cfg, validator: validate, logger: logger}
}

// ParseRequestStatus maps the list filter value. "all" and "" mean no filter.
func ParseRequestStatus(raw string) (models.RequestStatus, error) {
	switch s := models.RequestStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case "", "all":
		return "", nil
	case models.RequestStatusPending, models.RequestStatusApproved, models.RequestStatusRejected:
		return s, nil
	}
	return "", appErrors.Clone(appErrors.ErrValidation, "status must be one of all, pending, approved, rejected")
}

// List returns requests newest first for the advisor queue.
func (s *RequestService) List(ctx context.Context, actor Actor, filter models.RequestFilter) ([]models.RequestDetail, *models.Pagination, error) {
	if !actor.Role.Staff() {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "only advisors and admins can review requests")
	}
	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	return list, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// ListMine returns the student's own requests.
func (s *RequestService) ListMine(ctx context.Context, userID string, filter models.RequestFilter) ([]models.RequestDetail, *models.Pagination, error) {
	filter.UserID = userID
	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	return list, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Submit files a drop or swap request for the student.
func (s *RequestService) Submit(ctx context.Context, actor Actor, payload SubmitRequestPayload) (*models.Request, error) {
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can submit requests")
	}
	payload.Type = models.RequestType(strings.ToLower(strings.TrimSpace(string(payload.Type))))
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload")
	}
	if _, err := s.enrollments.FindActive(ctx, actor.ID, payload.CourseID); err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "you are not enrolled in this course")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}

	courseID := payload.CourseID
	request := &models.Request{UserID: actor.ID, Type: payload.Type, CourseID: &courseID, Status: models.RequestStatusPending}
	if payload.Type == models.RequestTypeSwap {
		if payload.TargetCourseID == payload.CourseID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "target course must differ from the current course")
		}
		if _, err := s.courses.FindByID(ctx, payload.TargetCourseID); err != nil {
			if isNotFound(err) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "target course not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
		target := payload.TargetCourseID
		request.TargetCourseID = &target
	}
	if msg := strings.TrimSpace(payload.Message); msg != "" {
		request.Message = &msg
	}

	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create request")
	}
	return request, nil
}

// Approve moves a pending request to approved and applies its enrollment effects.
// Approving an approved request re-runs the idempotent add effect; approving a rejected one conflicts.
func (s *RequestService) Approve(ctx context.Context, actor Actor, id string) (*models.Request, error) {
	return s.decide(ctx, actor, id, models.RequestStatusApproved)
}

// Reject moves a pending request to rejected. Enrollments are never touched.
func (s *RequestService) Reject(ctx context.Context, actor Actor, id string) (*models.Request, error) {
	return s.decide(ctx, actor, id, models.RequestStatusRejected)
}

func (s *RequestService) decide(ctx context.Context, actor Actor, id string, target models.RequestStatus) (*models.Request, error) {
	if !actor.Role.Staff() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only advisors and admins can decide requests")
	}
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if request.Status != models.RequestStatusPending {
		return s.redecide(ctx, request, target)
	}

	var change repository.EnrollmentChange
	if target == models.RequestStatusApproved {
		change = s.changeFor(request)
	}
	decided, err := s.repo.Decide(ctx, id, target, actor.ID, change)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request")
	}
	if !decided {
		// Lost a race with another reviewer; report against the stored outcome.
		current, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		return s.redecide(ctx, current, target)
	}

	s.metrics.RecordRequestDecision(string(request.Type), string(target))
	s.logger.Info("request decided",
		zap.String("request_id", id),
		zap.String("type", string(request.Type)),
		zap.String("status", string(target)),
		zap.String("by", actor.ID))

	return s.load(ctx, id)
}

func (s *RequestService) redecide(ctx context.Context, request *models.Request, target models.RequestStatus) (*models.Request, error) {
	if request.Status != target {
		return nil, appErrors.Clone(appErrors.ErrRequestDecided, "request already "+string(request.Status))
	}
	if target == models.RequestStatusApproved && request.Type == models.RequestTypeAdd && request.CourseID != nil {
		if err := s.enrollments.EnsureEnrolled(ctx, request.UserID, *request.CourseID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to ensure enrollment")
		}
	}
	return request, nil
}

func (s *RequestService) changeFor(request *models.Request) repository.EnrollmentChange {
	change := repository.EnrollmentChange{UserID: request.UserID}
	if request.CourseID == nil {
		return change
	}
	switch request.Type {
	case models.RequestTypeAdd:
		change.Ensure = []string{*request.CourseID}
	case models.RequestTypeDrop:
		if s.cfg.ApplyDropSwap {
			change.Drop = []string{*request.CourseID}
		}
	case models.RequestTypeSwap:
		if s.cfg.ApplyDropSwap && request.TargetCourseID != nil {
			change.Drop = []string{*request.CourseID}
			change.Ensure = []string{*request.TargetCourseID}
		}
	}
	return change
}

func (s *RequestService) load(ctx context.Context, id string) (*models.Request, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	return request, nil
}
