package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-registration-api/internal/models"
)

// MajorRepository persists academic majors.
type MajorRepository struct {
	db *sqlx.DB
}

// NewMajorRepository constructs the repository.
func NewMajorRepository(db *sqlx.DB) *MajorRepository {
	return &MajorRepository{db: db}
}

// List returns all majors ordered by code.
func (r *MajorRepository) List(ctx context.Context) ([]models.Major, error) {
	const query = `SELECT id, code, name, created_at, updated_at FROM majors ORDER BY code ASC`
	var majors []models.Major
	if err := r.db.SelectContext(ctx, &majors, query); err != nil {
		return nil, fmt.Errorf("list majors: %w", err)
	}
	return majors, nil
}

// FindByID fetches a major.
func (r *MajorRepository) FindByID(ctx context.Context, id string) (*models.Major, error) {
	const query = `SELECT id, code, name, created_at, updated_at FROM majors WHERE id = $1`
	var major models.Major
	if err := r.db.GetContext(ctx, &major, query, id); err != nil {
		return nil, err
	}
	return &major, nil
}

// Create inserts a major.
func (r *MajorRepository) Create(ctx context.Context, major *models.Major) error {
	if major.ID == "" {
		major.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	major.CreatedAt = now
	major.UpdatedAt = now
	const query = `INSERT INTO majors (id, code, name, created_at, updated_at) VALUES (:id, :code, :name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, major); err != nil {
		return fmt.Errorf("create major: %w", err)
	}
	return nil
}

// Update changes code and name.
func (r *MajorRepository) Update(ctx context.Context, major *models.Major) error {
	major.UpdatedAt = time.Now().UTC()
	const query = `UPDATE majors SET code = :code, name = :name, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, major)
	if err != nil {
		return fmt.Errorf("update major: %w", err)
	}
	return expectAffected(res, "update major")
}

// Delete removes a major.
func (r *MajorRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM majors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete major: %w", err)
	}
	return expectAffected(res, "delete major")
}

func expectAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
