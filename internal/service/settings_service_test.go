package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-registration-api/internal/dto"
	"github.com/noah-isme/uni-registration-api/internal/models"
	appErrors "github.com/noah-isme/uni-registration-api/pkg/errors"
)

type stubSettingsRepo struct {
	stored *models.SystemSettings
}

func (s *stubSettingsRepo) Get(ctx context.Context) (*models.SystemSettings, error) {
	if s.stored == nil {
		return nil, sql.ErrNoRows
	}
	return s.stored, nil
}

func (s *stubSettingsRepo) Upsert(ctx context.Context, settings *models.SystemSettings) error {
	s.stored = settings
	return nil
}

func TestSettingsDefaultsWhenMissing(t *testing.T) {
	svc := NewSettingsService(&stubSettingsRepo{}, nil, nil)
	settings, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 18, settings.MaxCreditHours)
	assert.False(t, settings.MaintenanceMode)
}

func TestSettingsUpdateValidates(t *testing.T) {
	svc := NewSettingsService(&stubSettingsRepo{}, nil, nil)
	start := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)

	_, err := svc.Update(context.Background(), admin, dto.UpdateSettingsRequest{MaxCreditHours: 0})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.Update(context.Background(), admin, dto.UpdateSettingsRequest{MaxCreditHours: 41})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.Update(context.Background(), admin, dto.UpdateSettingsRequest{MaxCreditHours: 18, RegistrationStart: &start, RegistrationEnd: &end})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.Update(context.Background(), admin, dto.UpdateSettingsRequest{MaxCreditHours: 18, SystemMessage: strings.Repeat("x", 501)})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestSettingsUpdateStoresActor(t *testing.T) {
	repo := &stubSettingsRepo{}
	svc := NewSettingsService(repo, nil, nil)

	out, err := svc.Update(context.Background(), admin, dto.UpdateSettingsRequest{MaxCreditHours: 21, SystemMessage: " Welcome "})
	require.NoError(t, err)
	assert.Equal(t, "Welcome", out.SystemMessage)
	assert.Equal(t, "adm", *repo.stored.UpdatedBy)
}

func TestSettingsUpdateRequiresAdmin(t *testing.T) {
	svc := NewSettingsService(&stubSettingsRepo{}, nil, nil)
	_, err := svc.Update(context.Background(), advisor, dto.UpdateSettingsRequest{MaxCreditHours: 18})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestRegistrationWindow(t *testing.T) {
	start := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 9, 14, 0, 0, 0, 0, time.UTC)
	repo := &stubSettingsRepo{stored: &models.SystemSettings{RegistrationStart: &start, RegistrationEnd: &end, MaxCreditHours: 18}}
	svc := NewSettingsService(repo, nil, nil)

	svc.now = func() time.Time { return start.Add(48 * time.Hour) }
	open, _, err := svc.RegistrationOpen(context.Background())
	require.NoError(t, err)
	assert.True(t, open)

	svc.now = func() time.Time { return end.Add(time.Hour) }
	open, _, _ = svc.RegistrationOpen(context.Background())
	assert.False(t, open)

	repo.stored.MaintenanceMode = true
	svc.now = func() time.Time { return start.Add(time.Hour) }
	open, _, _ = svc.RegistrationOpen(context.Background())
	assert.False(t, open)
}
