package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-registration-api/internal/dto"
	"github.com/noah-isme/uni-registration-api/internal/models"
	appErrors "github.com/noah-isme/uni-registration-api/pkg/errors"
)

type settingsRepository interface {
	Get(ctx context.Context) (*models.SystemSettings, error)
	Upsert(ctx context.Context, settings *models.SystemSettings) error
}

// SettingsService manages the typed system settings record.
type SettingsService struct {
	repo      settingsRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSettingsService constructs SettingsService.
func NewSettingsService(repo settingsRepository, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, validator: validate, logger: logger, now: time.Now}
}

// Get returns the stored settings, or defaults when none were saved.
func (s *SettingsService) Get(ctx context.Context) (*models.SystemSettings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		if isNotFound(err) {
			def := models.DefaultSystemSettings()
			return &def, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	return settings, nil
}

// Update validates and stores the settings. Admins only.
func (s *SettingsService) Update(ctx context.Context, actor Actor, req dto.UpdateSettingsRequest) (*models.SystemSettings, error) {
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can change settings")
	}
	req.SystemMessage = strings.TrimSpace(req.SystemMessage)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}
	if req.RegistrationStart != nil && req.RegistrationEnd != nil && !req.RegistrationEnd.After(*req.RegistrationStart) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "registration_end must be after registration_start")
	}

	actorID := actor.ID
	settings := &models.SystemSettings{
		RegistrationStart: req.RegistrationStart,
		RegistrationEnd:   req.RegistrationEnd,
		MaxCreditHours:    req.MaxCreditHours,
		MaintenanceMode:   req.MaintenanceMode,
		SystemMessage:     req.SystemMessage,
		UpdatedBy:         &actorID,
	}
	if err := s.repo.Upsert(ctx, settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save settings")
	}
	s.logger.Info("system settings updated", zap.String("by", actor.ID), zap.Bool("maintenance_mode", settings.MaintenanceMode))
	return settings, nil
}

// RegistrationOpen reports whether the registration window is open right now.
func (s *SettingsService) RegistrationOpen(ctx context.Context) (bool, *models.SystemSettings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return false, nil, err
	}
	return settings.RegistrationOpen(s.now()), settings, nil
}
