package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-registration-api/internal/models"
)

// SettingsRepository persists the single system_settings row.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs the repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the stored settings or sql.ErrNoRows when none were saved yet.
func (r *SettingsRepository) Get(ctx context.Context) (*models.SystemSettings, error) {
	const query = `SELECT registration_start, registration_end, max_credit_hours, maintenance_mode, system_message, updated_by, updated_at
FROM system_settings WHERE id = 1`
	var settings models.SystemSettings
	if err := r.db.GetContext(ctx, &settings, query); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Upsert writes the settings row.
func (r *SettingsRepository) Upsert(ctx context.Context, settings *models.SystemSettings) error {
	const query = `INSERT INTO system_settings (id, registration_start, registration_end, max_credit_hours, maintenance_mode, system_message, updated_by, updated_at)
VALUES (1, :registration_start, :registration_end, :max_credit_hours, :maintenance_mode, :system_message, :updated_by, :updated_at)
ON CONFLICT (id)
DO UPDATE SET registration_start = EXCLUDED.registration_start, registration_end = EXCLUDED.registration_end,
              max_credit_hours = EXCLUDED.max_credit_hours, maintenance_mode = EXCLUDED.maintenance_mode,
              system_message = EXCLUDED.system_message, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	settings.UpdatedAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}
