package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-registration-api/internal/models"
	"github.com/noah-isme/uni-registration-api/internal/service"
	"github.com/noah-isme/uni-registration-api/pkg/response"
)

const streamHeartbeat = 25 * time.Second

type chatService interface {
	Send(ctx context.Context, actor service.Actor, req service.SendChatRequest) (*models.ChatMessage, error)
	Conversation(ctx context.Context, actor service.Actor, peerID string) ([]models.ChatMessage, error)
	Subscribe(ctx context.Context, userID string) (<-chan models.ChatEvent, func(), error)
}

type chatbotService interface {
	Reply(ctx context.Context, req service.ChatbotRequest) (*service.ChatbotReply, error)
}

// ChatHandler serves the support chat and the AI assistant.
type ChatHandler struct {
	chat      chatService
	chatbot   chatbotService
	heartbeat time.Duration
}

// NewChatHandler constructs ChatHandler.
func NewChatHandler(chat chatService, chatbot chatbotService) *ChatHandler {
	return &ChatHandler{chat: chat, chatbot: chatbot, heartbeat: streamHeartbeat}
}

// Send godoc
// @Summary Send a support chat message
// @Description Students always write to the designated admin; staff must name the receiver.
// @Tags Chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.SendChatRequest true "Message"
// @Success 201 {object} response.Envelope
// @Router /chat/messages [post]
func (h *ChatHandler) Send(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.SendChatRequest
	if !bindJSON(c, &req, "invalid chat payload") {
		return
	}
	msg, err := h.chat.Send(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}

// Conversation godoc
// @Summary Conversation with a peer, oldest first
// @Tags Chat
// @Produce json
// @Security BearerAuth
// @Param peer query string false "Peer user ID (optional for students)"
// @Success 200 {object} response.Envelope
// @Router /chat/messages [get]
func (h *ChatHandler) Conversation(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	messages, err := h.chat.Conversation(c.Request.Context(), actor, c.Query("peer"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, messages, nil)
}

// Stream godoc
// @Summary Server-sent events for new chat messages
// @Tags Chat
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200 {string} string "event stream"
// @Router /chat/stream [get]
func (h *ChatHandler) Stream(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	events, done, err := h.chat.Subscribe(ctx, actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer done()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case evt, open := <-events:
			if !open {
				return false
			}
			c.SSEvent(evt.Type, evt)
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}

// Chatbot godoc
// @Summary Ask the AI registration assistant
// @Tags Chat
// @Accept json
// @Produce json
// @Param payload body service.ChatbotRequest true "Question"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /chatbot [post]
func (h *ChatHandler) Chatbot(c *gin.Context) {
	var req service.ChatbotRequest
	if !bindJSON(c, &req, "invalid chatbot payload") {
		return
	}
	reply, err := h.chatbot.Reply(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reply, nil)
}
