package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-registration-api/internal/models"
	appErrors "github.com/noah-isme/uni-registration-api/pkg/errors"
)

type studentRepository interface {
	ListStudents(ctx context.Context, filter models.StudentFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	DeleteStudent(ctx context.Context, id string) error
}

// StudentService backs the advisor and admin student views.
type StudentService struct {
	repo        studentRepository
	enrollments enrollmentLister
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, enrollments enrollmentLister, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, enrollments: enrollments, validator: validate, logger: logger}
}

// List returns students with pagination metadata.
func (s *StudentService) List(ctx context.Context, actor Actor, filter models.StudentFilter) ([]models.User, *models.Pagination, error) {
	if !actor.Role.Staff() {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "only advisors and admins can list students")
	}
	if err := optionalUUID("major_id", filter.MajorID); err != nil {
		return nil, nil, err
	}
	students, total, err := s.repo.ListStudents(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	if students == nil {
		students = []models.User{}
	}
	return students, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Detail returns a student profile with their enrollments and GPA.
func (s *StudentService) Detail(ctx context.Context, actor Actor, id string) (*models.StudentDetail, error) {
	if !actor.Role.Staff() && actor.ID != id {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot view another student")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if user.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	enrollments, err := s.enrollments.ListByUser(ctx, id, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	if enrollments == nil {
		enrollments = []models.EnrollmentDetail{}
	}
	return &models.StudentDetail{
		User:        *user,
		Enrollments: enrollments,
		GPA:         ComputeGPA(gradeEntries(completedOnly(enrollments))),
	}, nil
}

// Delete removes a student account along with its enrollments and requests. Admins only.
func (s *StudentService) Delete(ctx context.Context, actor Actor, id string) error {
	if actor.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only admins can delete students")
	}
	if err := s.repo.DeleteStudent(ctx, id); err != nil {
		if isNotFound(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.logger.Info("student deleted", zap.String("student_id", id), zap.String("by", actor.ID))
	return nil
}

func completedOnly(enrollments []models.EnrollmentDetail) []models.EnrollmentDetail {
	out := make([]models.EnrollmentDetail, 0, len(enrollments))
	for _, e := range enrollments {
		if e.Status == models.EnrollmentStatusCompleted {
			out = append(out, e)
		}
	}
	return out
}
