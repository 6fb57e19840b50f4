package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uni-registration-api/internal/models"
	appErrors "github.com/noah-isme/uni-registration-api/pkg/errors"
)

const adminDashboardCacheKey = "dash:admin"

type requestCounter interface {
	CountByStatus(ctx context.Context, userID string, status models.RequestStatus) (int, error)
}

type statsReader interface {
	AdminCounts(ctx context.Context) (*models.AdminDashboard, error)
}

type settingsReader interface {
	Get(ctx context.Context) (*models.SystemSettings, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardService composes the student and admin home screens.
type DashboardService struct {
	enrollments enrollmentLister
	requests    requestCounter
	stats       statsReader
	settings    settingsReader
	cache       *CacheService
	logger      *zap.Logger
	now         func() time.Time
	cfg         DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Enrollments enrollmentLister
	Requests    requestCounter
	Stats       statsReader
	Settings    settingsReader
	Cache       *CacheService
	Logger      *zap.Logger
	Config      DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		enrollments: params.Enrollments,
		requests:    params.Requests,
		stats:       params.Stats,
		settings:    params.Settings,
		cache:       params.Cache,
		logger:      logger,
		now:         time.Now,
		cfg:         cfg,
	}
}

// Student returns the counters shown to a student.
func (s *DashboardService) Student(ctx context.Context, userID string) (*models.StudentDashboard, error) {
	enrolled, err := s.enrollments.ListByUser(ctx, userID, models.EnrollmentStatusEnrolled)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	completed, err := s.enrollments.ListByUser(ctx, userID, models.EnrollmentStatusCompleted)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	pending, err := s.requests.CountByStatus(ctx, userID, models.RequestStatusPending)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count requests")
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	gpa := ComputeGPA(gradeEntries(completed))
	return &models.StudentDashboard{
		EnrolledCourses:  len(enrolled),
		PendingRequests:  pending,
		GPA:              gpa.GPA,
		CompletedCredits: gpa.TotalCredits,
		RegistrationOpen: settings.RegistrationOpen(s.now()),
		SystemMessage:    settings.SystemMessage,
	}, nil
}

// Admin returns roster and queue sizes and indicates cache utilisation.
func (s *DashboardService) Admin(ctx context.Context) (*models.AdminDashboard, bool, error) {
	return remember(ctx, s.cache, adminDashboardCacheKey, s.cfg.CacheTTL, func(ctx context.Context) (*models.AdminDashboard, error) {
		counts, err := s.stats.AdminCounts(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard counts")
		}
		s.logger.Debug("admin dashboard refreshed", zap.Int("students", counts.Students), zap.Int("pending_requests", counts.PendingRequests))
		return counts, nil
	})
}
