package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-registration-api/internal/models"
)

func TestSettingsGet(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSettingsRepository(db)

	start := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"registration_start", "registration_end", "max_credit_hours", "maintenance_mode", "system_message", "updated_by", "updated_at"}).
		AddRow(start, nil, 21, false, "Welcome", "adm", start)
	mock.ExpectQuery("FROM system_settings WHERE id = 1").WillReturnRows(rows)

	settings, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 21, settings.MaxCreditHours)
	require.NotNil(t, settings.RegistrationStart)
	assert.Nil(t, settings.RegistrationEnd)
}

func TestSettingsUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSettingsRepository(db)

	mock.ExpectExec("INSERT INTO system_settings").WillReturnResult(sqlmock.NewResult(0, 1))

	settings := &models.SystemSettings{MaxCreditHours: 18}
	require.NoError(t, repo.Upsert(context.Background(), settings))
	assert.False(t, settings.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
