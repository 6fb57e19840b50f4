package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-registration-api/internal/models"
	"github.com/noah-isme/uni-registration-api/pkg/database"
)

const enrollmentDetailSelect = `SELECT e.id, e.user_id, e.course_id, e.status, e.grade, e.created_at, e.updated_at,
        c.course_code AS course_code, c.name AS course_name, c.level AS course_level, c.credit_hours AS credit_hours
        FROM enrollments e
        JOIN courses c ON c.id = e.course_id`

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, user_id, course_id, status, grade, created_at, updated_at FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindActive returns the enrolled row for the pair or sql.ErrNoRows.
func (r *EnrollmentRepository) FindActive(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	const query = `SELECT id, user_id, course_id, status, grade, created_at, updated_at FROM enrollments
WHERE user_id = $1 AND course_id = $2 AND status = 'enrolled' LIMIT 1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, userID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find active enrollment: %w", err)
	}
	return &enrollment, nil
}

// ListByUser returns the user's enrollments in enrollment order. An empty status means all.
func (r *EnrollmentRepository) ListByUser(ctx context.Context, userID string, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error) {
	query := enrollmentDetailSelect + ` WHERE e.user_id = $1`
	args := []interface{}{userID}
	if status != "" {
		query += ` AND e.status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY e.created_at ASC, e.id ASC`

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// CreateWithRequest inserts the enrollment and its pending add request atomically.
func (r *EnrollmentRepository) CreateWithRequest(ctx context.Context, enrollment *models.Enrollment, request *models.Request) error {
	now := time.Now().UTC()
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	enrollment.CreatedAt, enrollment.UpdatedAt = now, now
	request.CreatedAt, request.UpdatedAt = now, now

	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const insertEnrollment = `INSERT INTO enrollments (id, user_id, course_id, status, grade, created_at, updated_at)
VALUES (:id, :user_id, :course_id, :status, :grade, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, insertEnrollment, enrollment); err != nil {
			return fmt.Errorf("create enrollment: %w", err)
		}
		if err := insertRequest(ctx, tx, request); err != nil {
			return err
		}
		return nil
	})
}

// EnsureEnrolled creates an enrolled row for the pair unless one exists.
func (r *EnrollmentRepository) EnsureEnrolled(ctx context.Context, userID, courseID string) error {
	return ensureEnrolled(ctx, r.db, userID, courseID, time.Now().UTC())
}

// RecordGrade completes the enrollment with the given grade.
func (r *EnrollmentRepository) RecordGrade(ctx context.Context, id, grade string) error {
	const query = `UPDATE enrollments SET grade = $2, status = 'completed', updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, grade, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record grade: %w", err)
	}
	return expectAffected(res, "record grade")
}

func ensureEnrolled(ctx context.Context, exec sqlx.ExecerContext, userID, courseID string, now time.Time) error {
	const query = `INSERT INTO enrollments (id, user_id, course_id, status, created_at, updated_at)
VALUES ($1, $2, $3, 'enrolled', $4, $4)
ON CONFLICT (user_id, course_id) WHERE status = 'enrolled' DO NOTHING`
	if _, err := exec.ExecContext(ctx, query, uuid.NewString(), userID, courseID, now); err != nil {
		return fmt.Errorf("ensure enrollment: %w", err)
	}
	return nil
}

func dropEnrollment(ctx context.Context, exec sqlx.ExecerContext, userID, courseID string, now time.Time) error {
	const query = `UPDATE enrollments SET status = 'dropped', updated_at = $3
WHERE user_id = $1 AND course_id = $2 AND status = 'enrolled'`
	if _, err := exec.ExecContext(ctx, query, userID, courseID, now); err != nil {
		return fmt.Errorf("drop enrollment: %w", err)
	}
	return nil
}
