package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-registration-api/internal/models"
	appErrors "github.com/noah-isme/uni-registration-api/pkg/errors"
)

// EventBroadcast is the event type published after a notification fan-out.
const EventBroadcast = "notification.broadcast"

type notificationRepository interface {
	BulkInsert(ctx context.Context, notifications []models.Notification) (int, error)
	ListByUser(ctx context.Context, userID string) ([]models.Notification, error)
	ListAll(ctx context.Context, page, size int) ([]models.Notification, int, error)
	MarkRead(ctx context.Context, id, userID string) error
}

type rosterReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	StudentIDs(ctx context.Context) ([]string, error)
}

// EventPublisher sends domain events to a broker.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, evt interface{}) error
}

// BroadcastRequest addresses a notification to one student or to "all".
type BroadcastRequest struct {
	Target  string `json:"target" validate:"required"`
	Title   string `json:"title" validate:"required,max=200"`
	Message string `json:"message" validate:"required"`
}

// BroadcastResult reports how many rows were written.
type BroadcastResult struct {
	Recipients int `json:"recipients"`
}

// NotificationService fans notifications out to users.
type NotificationService struct {
	repo      notificationRepository
	users     rosterReader
	publisher EventPublisher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNotificationService constructs NotificationService. publisher may be nil.
func NewNotificationService(repo notificationRepository, users rosterReader, publisher EventPublisher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, users: users, publisher: publisher, metrics: metrics, validator: validate, logger: logger}
}

// Broadcast writes one unread notification per recipient in a single insert.
// Nothing is retried or deduplicated.
func (s *NotificationService) Broadcast(ctx context.Context, actor Actor, req BroadcastRequest) (*BroadcastResult, error) {
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can send notifications")
	}
	req.Target = strings.TrimSpace(req.Target)
	req.Title = strings.TrimSpace(req.Title)
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notification payload")
	}

	recipients, err := s.recipients(ctx, req.Target)
	if err != nil {
		return nil, err
	}

	rows := make([]models.Notification, 0, len(recipients))
	for _, userID := range recipients {
		rows = append(rows, models.Notification{UserID: userID, Title: req.Title, Message: req.Message})
	}
	count, err := s.repo.BulkInsert(ctx, rows)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send notifications")
	}
	s.metrics.AddNotifications(count)
	s.logger.Info("notifications sent", zap.String("target", req.Target), zap.Int("recipients", count))

	if s.publisher != nil && count > 0 {
		evt := models.BroadcastEvent{SenderID: actor.ID, Target: req.Target, Title: req.Title, Recipients: count, SentAt: time.Now().UTC()}
		if err := s.publisher.Publish(ctx, EventBroadcast, evt); err != nil {
			s.logger.Warn("failed to publish broadcast event", zap.Error(err))
		}
	}
	return &BroadcastResult{Recipients: count}, nil
}

func (s *NotificationService) recipients(ctx context.Context, target string) ([]string, error) {
	if strings.EqualFold(target, models.BroadcastAll) {
		ids, err := s.users.StudentIDs(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
		}
		return ids, nil
	}
	user, err := s.users.FindByID(ctx, target)
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "recipient not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recipient")
	}
	if user.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "recipient not found")
	}
	return []string{user.ID}, nil
}

// ListMine returns the caller's notifications newest first.
func (s *NotificationService) ListMine(ctx context.Context, userID string) ([]models.Notification, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return list, nil
}

// ListAll returns every notification for the admin history view.
func (s *NotificationService) ListAll(ctx context.Context, actor Actor, page, size int) ([]models.Notification, *models.Pagination, error) {
	if actor.Role != models.RoleAdmin {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can list all notifications")
	}
	list, total, err := s.repo.ListAll(ctx, page, size)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return list, models.NewPagination(page, size, total), nil
}

// MarkRead flags a notification as read. Only the recipient may do so.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		if isNotFound(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update notification")
	}
	return nil
}
