package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-registration-api/internal/models"
	"github.com/noah-isme/uni-registration-api/pkg/completion"
	appErrors "github.com/noah-isme/uni-registration-api/pkg/errors"
)

const (
	systemPromptEN = "You are an AI assistant for a university course registration system. Help users answer their questions about registration, courses, and academic schedules. Be helpful and polite."
	systemPromptAR = "أنت مساعد ذكي لنظام تسجيل المقررات الجامعي. ساعد المستخدمين في الإجابة على أسئلتهم حول التسجيل والمقررات والجدول الأكاديمي. كن مفيداً ومهذباً."

	noContentEN = "Sorry, I could not process your request."
	noContentAR = "عذراً، لم أتمكن من معالجة طلبك."
	failureEN   = "Sorry, an error occurred. Please try again."
	failureAR   = "عذراً، حدث خطأ. يرجى المحاولة مرة أخرى."
)

type completionClient interface {
	Complete(ctx context.Context, messages []completion.Message) (string, error)
}

// ChatbotRequest is the relay payload. History is the conversation so far, oldest first.
type ChatbotRequest struct {
	Message  string            `json:"message"`
	Language string            `json:"language"`
	History  []models.ChatTurn `json:"conversationHistory"`
}

// ChatbotReply carries the assistant text.
type ChatbotReply struct {
	Response string `json:"response"`
}

// ChatbotService relays questions to the completion endpoint. Nothing is persisted.
type ChatbotService struct {
	client      completionClient
	historySize int
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewChatbotService constructs ChatbotService. historySize <= 0 defaults to 5 turns.
func NewChatbotService(client completionClient, historySize int, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ChatbotService {
	if historySize <= 0 {
		historySize = 5
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatbotService{client: client, historySize: historySize, metrics: metrics, validator: validate, logger: logger}
}

// Reply forwards the message with the trailing history and a language-specific system prompt.
func (s *ChatbotService) Reply(ctx context.Context, req ChatbotRequest) (*ChatbotReply, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Message is required")
	}
	arabic := strings.EqualFold(strings.TrimSpace(req.Language), "ar")

	content, err := s.client.Complete(ctx, s.buildMessages(message, arabic, req.History))
	if err != nil {
		s.metrics.RecordChatbotReply("error")
		s.logger.Warn("chat completion failed", zap.Error(err))
		fallback := failureEN
		if arabic {
			fallback = failureAR
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, fallback)
	}
	if strings.TrimSpace(content) == "" {
		s.metrics.RecordChatbotReply("empty")
		content = noContentEN
		if arabic {
			content = noContentAR
		}
		return &ChatbotReply{Response: content}, nil
	}
	s.metrics.RecordChatbotReply("ok")
	return &ChatbotReply{Response: content}, nil
}

func (s *ChatbotService) buildMessages(message string, arabic bool, history []models.ChatTurn) []completion.Message {
	prompt := systemPromptEN
	if arabic {
		prompt = systemPromptAR
	}
	if len(history) > s.historySize {
		history = history[len(history)-s.historySize:]
	}

	messages := make([]completion.Message, 0, len(history)+2)
	messages = append(messages, completion.Message{Role: "system", Content: prompt})
	for _, turn := range history {
		switch turn.Role {
		case "user", "assistant":
			messages = append(messages, completion.Message{Role: turn.Role, Content: turn.Content})
		}
	}
	return append(messages, completion.Message{Role: "user", Content: message})
}
