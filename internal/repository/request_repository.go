package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-registration-api/internal/models"
	"github.com/noah-isme/uni-registration-api/pkg/database"
)

const requestColumns = `id, user_id, type, course_id, target_course_id, status, message, decided_by, created_at, updated_at`

// EnrollmentChange lists enrollment side effects applied together with a decision.
type EnrollmentChange struct {
	UserID string
	Drop   []string
	Ensure []string
}

// Empty reports whether the change touches no enrollments.
func (c EnrollmentChange) Empty() bool {
	return len(c.Drop) == 0 && len(c.Ensure) == 0
}

// RequestRepository persists add/drop/swap requests.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create inserts a pending request.
func (r *RequestRepository) Create(ctx context.Context, request *models.Request) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	request.CreatedAt, request.UpdatedAt = now, now
	return insertRequest(ctx, r.db, request)
}

// FindByID fetches a request.
func (r *RequestRepository) FindByID(ctx context.Context, id string) (*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = $1`
	var request models.Request
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns requests newest first with student and course labels.
func (r *RequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetail, int, error) {
	base := `FROM requests r
JOIN users u ON u.id = r.user_id
LEFT JOIN courses c ON c.id = r.course_id
LEFT JOIN courses tc ON tc.id = r.target_course_id`
	var conditions []string
	var args []interface{}
	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("r.user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page, size := normalisePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT r.id, r.user_id, r.type, r.course_id, r.target_course_id, r.status, r.message, r.decided_by,
        r.created_at, r.updated_at, u.full_name AS student_name, u.student_id AS student_number,
        c.course_code AS course_code, c.name AS course_name, tc.course_code AS target_course_code
        %s ORDER BY r.created_at DESC, r.id DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var requests []models.RequestDetail
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list requests: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count requests: %w", err)
	}
	return requests, total, nil
}

// CountByStatus counts a user's requests in the given status.
func (r *RequestRepository) CountByStatus(ctx context.Context, userID string, status models.RequestStatus) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM requests WHERE user_id = $1 AND status = $2`, userID, status); err != nil {
		return 0, fmt.Errorf("count requests: %w", err)
	}
	return count, nil
}

// Decide moves a pending request to status and applies change in the same transaction.
// It returns false when the request was no longer pending; nothing is written in that case.
func (r *RequestRepository) Decide(ctx context.Context, id string, status models.RequestStatus, decidedBy string, change EnrollmentChange) (bool, error) {
	decided := false
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()
		const query = `UPDATE requests SET status = $2, decided_by = $3, updated_at = $4 WHERE id = $1 AND status = 'pending'`
		res, err := tx.ExecContext(ctx, query, id, status, decidedBy, now)
		if err != nil {
			return fmt.Errorf("decide request: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("decide request rows: %w", err)
		}
		if affected == 0 {
			return nil
		}
		decided = true
		for _, courseID := range change.Drop {
			if err := dropEnrollment(ctx, tx, change.UserID, courseID, now); err != nil {
				return err
			}
		}
		for _, courseID := range change.Ensure {
			if err := ensureEnrolled(ctx, tx, change.UserID, courseID, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return decided, nil
}

func insertRequest(ctx context.Context, exec sqlx.ExtContext, request *models.Request) error {
	const query = `INSERT INTO requests (id, user_id, type, course_id, target_course_id, status, message, decided_by, created_at, updated_at)
VALUES (:id, :user_id, :type, :course_id, :target_course_id, :status, :message, :decided_by, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, request); err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return nil
}
