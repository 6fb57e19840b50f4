package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-registration-api/internal/dto"
	"github.com/noah-isme/uni-registration-api/internal/models"
	"github.com/noah-isme/uni-registration-api/pkg/database"
	appErrors "github.com/noah-isme/uni-registration-api/pkg/errors"
)

const catalogCachePattern = "catalog:courses:*"

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

type majorRepository interface {
	List(ctx context.Context) ([]models.Major, error)
	FindByID(ctx context.Context, id string) (*models.Major, error)
	Create(ctx context.Context, major *models.Major) error
	Update(ctx context.Context, major *models.Major) error
	Delete(ctx context.Context, id string) error
}

// CatalogService serves the course catalog and the majors it is grouped by.
type CatalogService struct {
	courses   courseRepository
	majors    majorRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService constructs CatalogService. cache may be nil.
func NewCatalogService(courses courseRepository, majors majorRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{courses: courses, majors: majors, cache: cache, validator: validate, logger: logger}
}

func courseCacheKey(filter models.CourseFilter) string {
	return fmt.Sprintf("catalog:courses:level=%d:major=%s:q=%s", filter.Level, filter.MajorID, strings.ToLower(strings.TrimSpace(filter.Search)))
}

// ListCourses returns the catalog, served from cache when possible.
func (s *CatalogService) ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	if err := optionalUUID("major_id", filter.MajorID); err != nil {
		return nil, err
	}
	courses, _, err := remember(ctx, s.cache, courseCacheKey(filter), 0, func(ctx context.Context) ([]models.Course, error) {
		courses, err := s.courses.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
		}
		if courses == nil {
			courses = []models.Course{}
		}
		return courses, nil
	})
	return courses, err
}

// GetCourse returns one course.
func (s *CatalogService) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// CreateCourse adds a course to the catalog.
func (s *CatalogService) CreateCourse(ctx context.Context, req dto.CourseRequest) (*models.Course, error) {
	course, err := s.courseFromRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.courses.Create(ctx, course); err != nil {
		if database.IsUniqueViolation(err, "") {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.invalidate(ctx)
	return course, nil
}

// UpdateCourse replaces the editable fields of a course.
func (s *CatalogService) UpdateCourse(ctx context.Context, id string, req dto.CourseRequest) (*models.Course, error) {
	existing, err := s.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	course, err := s.courseFromRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	course.ID = existing.ID
	course.CreatedAt = existing.CreatedAt
	if err := s.courses.Update(ctx, course); err != nil {
		switch {
		case isNotFound(err):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		case database.IsUniqueViolation(err, ""):
			return nil, appErrors.Clone(appErrors.ErrConflict, "course code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.invalidate(ctx)
	return course, nil
}

// DeleteCourse removes a course that nobody references.
func (s *CatalogService) DeleteCourse(ctx context.Context, id string) error {
	if err := s.courses.Delete(ctx, id); err != nil {
		switch {
		case isNotFound(err):
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		case database.IsForeignKeyViolation(err):
			return appErrors.Clone(appErrors.ErrConflict, "course has enrollments or requests")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) courseFromRequest(ctx context.Context, req dto.CourseRequest) (*models.Course, error) {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	var majorID *string
	if req.MajorID != nil && strings.TrimSpace(*req.MajorID) != "" {
		id := strings.TrimSpace(*req.MajorID)
		if _, err := s.GetMajor(ctx, id); err != nil {
			return nil, err
		}
		majorID = &id
	}
	return &models.Course{
		Code:        req.Code,
		Name:        req.Name,
		Level:       req.Level,
		CreditHours: req.CreditHours,
		MajorID:     majorID,
	}, nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, catalogCachePattern)
}

// ListMajors returns every major.
func (s *CatalogService) ListMajors(ctx context.Context) ([]models.Major, error) {
	majors, err := s.majors.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list majors")
	}
	return majors, nil
}

// GetMajor returns one major.
func (s *CatalogService) GetMajor(ctx context.Context, id string) (*models.Major, error) {
	major, err := s.majors.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "major not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load major")
	}
	return major, nil
}

// CreateMajor adds a major.
func (s *CatalogService) CreateMajor(ctx context.Context, req dto.MajorRequest) (*models.Major, error) {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid major payload")
	}
	major := &models.Major{Code: req.Code, Name: req.Name}
	if err := s.majors.Create(ctx, major); err != nil {
		if database.IsUniqueViolation(err, "") {
			return nil, appErrors.Clone(appErrors.ErrConflict, "major code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create major")
	}
	return major, nil
}

// UpdateMajor renames a major.
func (s *CatalogService) UpdateMajor(ctx context.Context, id string, req dto.MajorRequest) (*models.Major, error) {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid major payload")
	}
	major, err := s.GetMajor(ctx, id)
	if err != nil {
		return nil, err
	}
	major.Code = req.Code
	major.Name = req.Name
	if err := s.majors.Update(ctx, major); err != nil {
		switch {
		case isNotFound(err):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "major not found")
		case database.IsUniqueViolation(err, ""):
			return nil, appErrors.Clone(appErrors.ErrConflict, "major code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update major")
	}
	return major, nil
}

// DeleteMajor removes a major no course or student points at.
func (s *CatalogService) DeleteMajor(ctx context.Context, id string) error {
	if err := s.majors.Delete(ctx, id); err != nil {
		switch {
		case isNotFound(err):
			return appErrors.Clone(appErrors.ErrNotFound, "major not found")
		case database.IsForeignKeyViolation(err):
			return appErrors.Clone(appErrors.ErrConflict, "major is still in use")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete major")
	}
	return nil
}
