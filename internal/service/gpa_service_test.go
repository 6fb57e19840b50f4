package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-registration-api/internal/models"
	appErrors "github.com/noah-isme/uni-registration-api/pkg/errors"
)

func strPtr(s string) *string { return &s }

func TestGradePointsTable(t *testing.T) {
	cases := map[string]float64{
		"A+": 4.0, "A": 4.0, "A-": 3.7, "B+": 3.3, "B": 3.0, "B-": 2.7,
		"C+": 2.3, "C": 2.0, "C-": 1.7, "D+": 1.3, "D": 1.0, "F": 0.0,
		" b+ ": 3.3, "a-": 3.7, "E": 0.0, "": 0.0,
	}
	for grade, want := range cases {
		assert.Equal(t, want, GradePoints(grade), grade)
	}
	assert.True(t, ValidGrade("f"))
	assert.False(t, ValidGrade("E"))
	assert.False(t, ValidGrade("D-"))
}

func TestComputeGPAWeighted(t *testing.T) {
	result := ComputeGPA([]models.GradeEntry{
		{Grade: strPtr("A"), CreditHours: 3},
		{Grade: strPtr("B"), CreditHours: 4},
	})
	assert.Equal(t, 7, result.TotalCredits)
	assert.Equal(t, 24.0, result.TotalPoints)
	assert.InDelta(t, 24.0/7.0, result.RawGPA, 1e-9)
	assert.Equal(t, 3.43, result.GPA)
	assert.Equal(t, 2, result.CourseCount)
}

func TestComputeGPASkipsUngraded(t *testing.T) {
	result := ComputeGPA([]models.GradeEntry{
		{Grade: strPtr("B+"), CreditHours: 3},
		{Grade: nil, CreditHours: 4},
		{Grade: strPtr("  "), CreditHours: 2},
	})
	assert.Equal(t, 3.3, result.GPA)
	assert.Equal(t, 3, result.TotalCredits)
	assert.Equal(t, 1, result.CourseCount)
}

func TestComputeGPAEmptyAndZeroCredits(t *testing.T) {
	assert.Equal(t, 0.0, ComputeGPA(nil).GPA)

	result := ComputeGPA([]models.GradeEntry{{Grade: strPtr("A"), CreditHours: 0}, {Grade: strPtr("A"), CreditHours: -2}})
	assert.Equal(t, 0.0, result.GPA)
	assert.Zero(t, result.TotalCredits)
}

func TestComputeGPAUnknownGradeCountsCredits(t *testing.T) {
	result := ComputeGPA([]models.GradeEntry{
		{Grade: strPtr("A"), CreditHours: 3},
		{Grade: strPtr("E"), CreditHours: 3},
	})
	assert.Equal(t, 2.0, result.GPA)
	assert.Equal(t, 6, result.TotalCredits)
}

type stubEnrollmentLister struct {
	byStatus map[models.EnrollmentStatus][]models.EnrollmentDetail
	err      error
}

func (s *stubEnrollmentLister) ListByUser(ctx context.Context, userID string, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	if status == "" {
		var all []models.EnrollmentDetail
		for _, list := range s.byStatus {
			all = append(all, list...)
		}
		return all, nil
	}
	return s.byStatus[status], nil
}

type stubUserFinder struct {
	users map[string]*models.User
}

func (s *stubUserFinder) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func completedDetail(id, code string, credits int, grade *string) models.EnrollmentDetail {
	return models.EnrollmentDetail{
		Enrollment:  models.Enrollment{ID: id, UserID: "stu", CourseID: "c-" + id, Status: models.EnrollmentStatusCompleted, Grade: grade},
		CourseCode:  code,
		CourseName:  code + " course",
		CreditHours: credits,
	}
}

func TestTranscriptSkipsUngradedLines(t *testing.T) {
	lister := &stubEnrollmentLister{byStatus: map[models.EnrollmentStatus][]models.EnrollmentDetail{
		models.EnrollmentStatusCompleted: {
			completedDetail("e1", "CS101", 3, strPtr("a")),
			completedDetail("e2", "MA201", 4, nil),
			completedDetail("e3", "PH110", 3, strPtr("B")),
		},
	}}
	number := "S-100"
	users := &stubUserFinder{users: map[string]*models.User{"stu": {ID: "stu", FullName: "Sara", StudentID: &number}}}
	svc := NewGPAService(lister, users, nil, nil)

	transcript, err := svc.Transcript(context.Background(), "stu")
	require.NoError(t, err)
	require.Len(t, transcript.Lines, 2)
	assert.Equal(t, "A", transcript.Lines[0].Grade)
	assert.Equal(t, 12.0, transcript.Lines[0].QualityPts)
	assert.Equal(t, "S-100", transcript.Number)
	assert.Equal(t, 3.5, transcript.Summary.GPA)
}

func TestTranscriptMissingStudent(t *testing.T) {
	svc := NewGPAService(&stubEnrollmentLister{}, &stubUserFinder{}, nil, nil)
	_, err := svc.Transcript(context.Background(), "ghost")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestCumulativeGPA(t *testing.T) {
	lister := &stubEnrollmentLister{byStatus: map[models.EnrollmentStatus][]models.EnrollmentDetail{
		models.EnrollmentStatusCompleted: {completedDetail("e1", "CS101", 3, strPtr("B+"))},
	}}
	svc := NewGPAService(lister, &stubUserFinder{}, nil, nil)

	result, err := svc.Cumulative(context.Background(), "stu")
	require.NoError(t, err)
	assert.Equal(t, 3.3, result.GPA)
}

func TestCalculatorIgnoresBlankNames(t *testing.T) {
	svc := NewGPAService(nil, nil, nil, nil)
	result, err := svc.Calculate(CalculateGPARequest{Courses: []CalculatorCourse{
		{Name: "Algorithms", Credits: 3, Grade: "A"},
		{Name: "", Credits: 3, Grade: "F"},
		{Name: "Databases", Credits: 3, Grade: "B"},
	}})
	require.NoError(t, err)
	assert.Equal(t, 3.5, result.GPA)
	assert.Equal(t, 6, result.TotalCredits)
}

func TestCalculatorRejectsNegativeCredits(t *testing.T) {
	svc := NewGPAService(nil, nil, nil, nil)
	_, err := svc.Calculate(CalculateGPARequest{Courses: []CalculatorCourse{{Name: "X", Credits: -1, Grade: "A"}}})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
