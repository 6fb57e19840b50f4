package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-registration-api/internal/models"
	"github.com/noah-isme/uni-registration-api/internal/service"
	"github.com/noah-isme/uni-registration-api/pkg/response"
)

type notificationService interface {
	Broadcast(ctx context.Context, actor service.Actor, req service.BroadcastRequest) (*service.BroadcastResult, error)
	ListMine(ctx context.Context, userID string) ([]models.Notification, error)
	ListAll(ctx context.Context, actor service.Actor, page, size int) ([]models.Notification, *models.Pagination, error)
	MarkRead(ctx context.Context, userID, id string) error
}

// NotificationHandler serves notifications.
type NotificationHandler struct {
	notifications notificationService
}

// NewNotificationHandler constructs NotificationHandler.
func NewNotificationHandler(notifications notificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// Broadcast godoc
// @Summary Send a notification to one student or all students
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.BroadcastRequest true "Broadcast"
// @Success 201 {object} response.Envelope
// @Router /notifications/broadcast [post]
func (h *NotificationHandler) Broadcast(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.BroadcastRequest
	if !bindJSON(c, &req, "invalid broadcast payload") {
		return
	}
	out, err := h.notifications.Broadcast(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, out)
}

// ListMine godoc
// @Summary My notifications, newest first
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /notifications/me [get]
func (h *NotificationHandler) ListMine(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	list, err := h.notifications.ListMine(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// ListAll godoc
// @Summary Every notification sent
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) ListAll(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	page, size := pageParams(c)
	list, pagination, err := h.notifications.ListAll(c.Request.Context(), actor, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, pagination)
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags Notifications
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 204
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), actor.ID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
