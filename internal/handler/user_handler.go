package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-registration-api/internal/models"
	"github.com/noah-isme/uni-registration-api/internal/service"
	"github.com/noah-isme/uni-registration-api/pkg/response"
)

type userService interface {
	ListStaff(ctx context.Context, actor service.Actor) ([]models.User, error)
	CreateStaff(ctx context.Context, actor service.Actor, req service.CreateStaffRequest) (*models.User, error)
}

// UserHandler manages staff accounts.
type UserHandler struct {
	users userService
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(users userService) *UserHandler {
	return &UserHandler{users: users}
}

// ListStaff godoc
// @Summary List advisors and admins
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /users [get]
func (h *UserHandler) ListStaff(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	users, err := h.users.ListStaff(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, nil)
}

// CreateStaff godoc
// @Summary Create an advisor or admin account
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateStaffRequest true "Account"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users [post]
func (h *UserHandler) CreateStaff(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.CreateStaffRequest
	if !bindJSON(c, &req, "invalid user payload") {
		return
	}
	user, err := h.users.CreateStaff(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}
