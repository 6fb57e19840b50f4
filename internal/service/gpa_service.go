package service

import (
	"context"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-registration-api/internal/models"
	appErrors "github.com/noah-isme/uni-registration-api/pkg/errors"
)

var gradePoints = map[string]float64{
	"A+": 4.0,
	"A":  4.0,
	"A-": 3.7,
	"B+": 3.3,
	"B":  3.0,
	"B-": 2.7,
	"C+": 2.3,
	"C":  2.0,
	"C-": 1.7,
	"D+": 1.3,
	"D":  1.0,
	"F":  0.0,
}

// NormaliseGrade trims and upper-cases a letter grade.
func NormaliseGrade(grade string) string {
	return strings.ToUpper(strings.TrimSpace(grade))
}

// GradePoints maps a letter grade to its point value. Unknown grades are worth 0.
func GradePoints(grade string) float64 {
	return gradePoints[NormaliseGrade(grade)]
}

// ValidGrade reports whether grade is on the grade-point table.
func ValidGrade(grade string) bool {
	_, ok := gradePoints[NormaliseGrade(grade)]
	return ok
}

func roundGPA(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

// ComputeGPA returns the credit-weighted average of the entries.
// Entries without a grade or with non-positive credits are skipped; unknown grades count as 0 points.
func ComputeGPA(entries []models.GradeEntry) models.GPAResult {
	var result models.GPAResult
	for _, entry := range entries {
		if entry.Grade == nil || strings.TrimSpace(*entry.Grade) == "" {
			continue
		}
		if entry.CreditHours <= 0 {
			continue
		}
		result.TotalPoints += GradePoints(*entry.Grade) * float64(entry.CreditHours)
		result.TotalCredits += entry.CreditHours
		result.CourseCount++
	}
	if result.TotalCredits > 0 {
		result.RawGPA = result.TotalPoints / float64(result.TotalCredits)
		result.GPA = roundGPA(result.RawGPA)
	}
	result.TotalPoints = roundGPA(result.TotalPoints)
	return result
}

// CalculatorCourse is one what-if row. Rows with a blank name are ignored.
type CalculatorCourse struct {
	Name    string `json:"name"`
	Credits int    `json:"credits" validate:"gte=0,lte=12"`
	Grade   string `json:"grade"`
}

// CalculateGPARequest is the what-if calculator payload.
type CalculateGPARequest struct {
	Courses []CalculatorCourse `json:"courses" validate:"required,dive"`
}

type enrollmentLister interface {
	ListByUser(ctx context.Context, userID string, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error)
}

type userFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// GPAService derives GPA and transcript views from completed enrollments.
type GPAService struct {
	enrollments enrollmentLister
	users       userFinder
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGPAService constructs GPAService.
func NewGPAService(enrollments enrollmentLister, users userFinder, validate *validator.Validate, logger *zap.Logger) *GPAService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GPAService{enrollments: enrollments, users: users, validator: validate, logger: logger}
}

// Cumulative computes the GPA over the student's completed, graded enrollments.
func (s *GPAService) Cumulative(ctx context.Context, userID string) (*models.GPAResult, error) {
	completed, err := s.enrollments.ListByUser(ctx, userID, models.EnrollmentStatusCompleted)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	result := ComputeGPA(gradeEntries(completed))
	return &result, nil
}

// Transcript lists completed courses with grade points and the cumulative summary.
func (s *GPAService) Transcript(ctx context.Context, userID string) (*models.Transcript, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	completed, err := s.enrollments.ListByUser(ctx, userID, models.EnrollmentStatusCompleted)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	transcript := &models.Transcript{StudentID: user.ID, FullName: user.FullName, Lines: make([]models.TranscriptLine, 0, len(completed))}
	if user.StudentID != nil {
		transcript.Number = *user.StudentID
	}
	for _, e := range completed {
		if e.Grade == nil || strings.TrimSpace(*e.Grade) == "" {
			continue
		}
		points := GradePoints(*e.Grade)
		transcript.Lines = append(transcript.Lines, models.TranscriptLine{
			EnrollmentID: e.ID,
			CourseCode:   e.CourseCode,
			CourseName:   e.CourseName,
			CreditHours:  e.CreditHours,
			Grade:        NormaliseGrade(*e.Grade),
			GradePoints:  points,
			QualityPts:   roundGPA(points * float64(e.CreditHours)),
		})
	}
	transcript.Summary = ComputeGPA(gradeEntries(completed))
	return transcript, nil
}

// Calculate runs the what-if calculator over client-supplied rows.
func (s *GPAService) Calculate(req CalculateGPARequest) (*models.GPAResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid calculator payload")
	}
	entries := make([]models.GradeEntry, 0, len(req.Courses))
	for _, c := range req.Courses {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		grade := c.Grade
		entries = append(entries, models.GradeEntry{Grade: &grade, CreditHours: c.Credits})
	}
	result := ComputeGPA(entries)
	return &result, nil
}

func gradeEntries(enrollments []models.EnrollmentDetail) []models.GradeEntry {
	entries := make([]models.GradeEntry, 0, len(enrollments))
	for _, e := range enrollments {
		entries = append(entries, models.GradeEntry{Grade: e.Grade, CreditHours: e.CreditHours})
	}
	return entries
}
