package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-registration-api/internal/models"
	"github.com/noah-isme/uni-registration-api/pkg/database"
)

func TestCreateWithRequestCommits(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	courseID := "c1"
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO enrollments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO requests").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	enrollment := &models.Enrollment{UserID: "u1", CourseID: courseID, Status: models.EnrollmentStatusEnrolled}
	request := &models.Request{UserID: "u1", Type: models.RequestTypeAdd, CourseID: &courseID, Status: models.RequestStatusPending}
	require.NoError(t, repo.CreateWithRequest(context.Background(), enrollment, request))
	assert.NotEmpty(t, enrollment.ID)
	assert.NotEmpty(t, request.ID)
	assert.Equal(t, enrollment.CreatedAt, request.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithRequestRollsBackOnUniqueViolation(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO enrollments").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "enrollments_active_unique"})
	mock.ExpectRollback()

	err := repo.CreateWithRequest(context.Background(), &models.Enrollment{UserID: "u1", CourseID: "c1"}, &models.Request{UserID: "u1"})
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err, "enrollments_active_unique"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithRequestRollsBackWhenRequestFails(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO enrollments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO requests").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := repo.CreateWithRequest(context.Background(), &models.Enrollment{UserID: "u1", CourseID: "c1"}, &models.Request{UserID: "u1"})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureEnrolledUsesPartialIndexConflict(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(`ON CONFLICT \(user_id, course_id\) WHERE status = 'enrolled' DO NOTHING`).
		WithArgs(sqlmock.AnyArg(), "u1", "c1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureEnrolled(context.Background(), "u1", "c1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByUserFiltersStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "course_id", "status", "grade", "created_at", "updated_at", "course_code", "course_name", "course_level", "credit_hours"}).
		AddRow("e1", "u1", "c1", "completed", "A", now, now, "CS101", "Intro", 1, 3).
		AddRow("e2", "u1", "c2", "completed", nil, now, now, "MA201", "Algebra", 2, 4)
	mock.ExpectQuery(`WHERE e.user_id = \$1 AND e.status = \$2 ORDER BY e.created_at ASC`).
		WithArgs("u1", "completed").
		WillReturnRows(rows)

	list, err := repo.ListByUser(context.Background(), "u1", models.EnrollmentStatusCompleted)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "CS101", list[0].CourseCode)
	require.NotNil(t, list[0].Grade)
	assert.Equal(t, "A", *list[0].Grade)
	assert.Nil(t, list[1].Grade)
}

func TestRecordGrade(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("UPDATE enrollments SET grade = \\$2, status = 'completed'").
		WithArgs("e1", "B+", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RecordGrade(context.Background(), "e1", "B+"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
