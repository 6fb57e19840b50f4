package service

import (
	"context"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-registration-api/internal/models"
	appErrors "github.com/noah-isme/uni-registration-api/pkg/errors"
)

type chatRepository interface {
	Create(ctx context.Context, msg *models.ChatMessage) error
	Conversation(ctx context.Context, a, b string) ([]models.ChatMessage, error)
}

type chatUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FirstAdmin(ctx context.Context) (*models.User, error)
}

type chatEventBus interface {
	Publish(ctx context.Context, evt models.ChatEvent) error
	Subscribe(ctx context.Context, userID string) (<-chan models.ChatEvent, error)
}

// SendChatRequest is a support chat message. Students may omit the receiver.
type SendChatRequest struct {
	ReceiverID string `json:"receiver_id"`
	Message    string `json:"message" validate:"required,max=2000"`
}

// ChatService delivers support chat messages between students and staff.
type ChatService struct {
	repo      chatRepository
	users     chatUserReader
	bus       chatEventBus
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewChatService constructs ChatService.
func NewChatService(repo chatRepository, users chatUserReader, bus chatEventBus, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ChatService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{repo: repo, users: users, bus: bus, metrics: metrics, validator: validate, logger: logger}
}

// Send stores the message and publishes an inserted event.
// A student's message always goes to the designated admin.
func (s *ChatService) Send(ctx context.Context, actor Actor, req SendChatRequest) (*models.ChatMessage, error) {
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid chat message")
	}

	receiverID, err := s.resolveReceiver(ctx, actor, strings.TrimSpace(req.ReceiverID))
	if err != nil {
		return nil, err
	}

	msg := &models.ChatMessage{SenderID: actor.ID, ReceiverID: receiverID, Message: req.Message}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send message")
	}
	if s.bus != nil {
		if err := s.bus.Publish(ctx, models.ChatEvent{Type: models.ChatEventInserted, Message: *msg}); err != nil {
			s.logger.Warn("failed to publish chat event", zap.String("message_id", msg.ID), zap.Error(err))
		}
	}
	return msg, nil
}

func (s *ChatService) resolveReceiver(ctx context.Context, actor Actor, receiverID string) (string, error) {
	if actor.Role == models.RoleStudent {
		adminUser, err := s.users.FirstAdmin(ctx)
		if err != nil {
			if isNotFound(err) {
				return "", appErrors.Clone(appErrors.ErrNotFound, "no admin available")
			}
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to find admin")
		}
		return adminUser.ID, nil
	}
	if receiverID == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "receiver_id is required")
	}
	if _, err := s.users.FindByID(ctx, receiverID); err != nil {
		if isNotFound(err) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "receiver not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load receiver")
	}
	return receiverID, nil
}

// Conversation returns the thread between the caller and a peer, oldest first.
// Students without a peer get their thread with the designated admin.
func (s *ChatService) Conversation(ctx context.Context, actor Actor, peerID string) ([]models.ChatMessage, error) {
	peerID = strings.TrimSpace(peerID)
	if peerID == "" {
		if actor.Role != models.RoleStudent {
			return nil, appErrors.Clone(appErrors.ErrValidation, "peer is required")
		}
		resolved, err := s.resolveReceiver(ctx, actor, "")
		if err != nil {
			return nil, err
		}
		peerID = resolved
	} else if err := optionalUUID("peer", peerID); err != nil {
		return nil, err
	}
	messages, err := s.repo.Conversation(ctx, actor.ID, peerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load messages")
	}
	return MergeMessages(nil, messages...), nil
}

// Subscribe streams inserted events involving the caller until ctx ends.
func (s *ChatService) Subscribe(ctx context.Context, userID string) (<-chan models.ChatEvent, func(), error) {
	if s.bus == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrUpstream, "realtime chat unavailable")
	}
	events, err := s.bus.Subscribe(ctx, userID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "realtime chat unavailable")
	}
	return events, s.metrics.ChatStreamOpened(), nil
}

// MergeMessages merges incoming rows into existing by id, keeping created_at order with id as tiebreak.
// A repeated id replaces the earlier copy.
func MergeMessages(existing []models.ChatMessage, incoming ...models.ChatMessage) []models.ChatMessage {
	byID := make(map[string]int, len(existing)+len(incoming))
	merged := make([]models.ChatMessage, 0, len(existing)+len(incoming))
	for _, list := range [][]models.ChatMessage{existing, incoming} {
		for _, msg := range list {
			if idx, ok := byID[msg.ID]; ok {
				merged[idx] = msg
				continue
			}
			byID[msg.ID] = len(merged)
			merged = append(merged, msg)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].CreatedAt.Equal(merged[j].CreatedAt) {
			return merged[i].ID < merged[j].ID
		}
		return merged[i].CreatedAt.Before(merged[j].CreatedAt)
	})
	return merged
}
