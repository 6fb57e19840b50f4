package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-registration-api/internal/models"
)

// StatsRepository computes dashboard counters.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository constructs the repository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// AdminCounts returns roster, catalog and queue sizes in one round trip.
func (r *StatsRepository) AdminCounts(ctx context.Context) (*models.AdminDashboard, error) {
	const query = `SELECT
    (SELECT COUNT(*) FROM users WHERE role = 'student') AS students,
    (SELECT COUNT(*) FROM users WHERE role = 'advisor') AS advisors,
    (SELECT COUNT(*) FROM courses) AS courses,
    (SELECT COUNT(*) FROM enrollments WHERE status = 'enrolled') AS enrollments,
    (SELECT COUNT(*) FROM requests WHERE status = 'pending') AS pending_requests`
	var out models.AdminDashboard
	if err := r.db.GetContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("admin counts: %w", err)
	}
	return &out, nil
}
