package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-registration-api/internal/models"
	"github.com/noah-isme/uni-registration-api/internal/service"
	"github.com/noah-isme/uni-registration-api/pkg/response"
)

type requestService interface {
	List(ctx context.Context, actor service.Actor, filter models.RequestFilter) ([]models.RequestDetail, *models.Pagination, error)
	ListMine(ctx context.Context, userID string, filter models.RequestFilter) ([]models.RequestDetail, *models.Pagination, error)
	Submit(ctx context.Context, actor service.Actor, payload service.SubmitRequestPayload) (*models.Request, error)
	Approve(ctx context.Context, actor service.Actor, id string) (*models.Request, error)
	Reject(ctx context.Context, actor service.Actor, id string) (*models.Request, error)
}

// RequestHandler serves drop/swap requests and the advisor queue.
type RequestHandler struct {
	requests requestService
}

// NewRequestHandler constructs RequestHandler.
func NewRequestHandler(requests requestService) *RequestHandler {
	return &RequestHandler{requests: requests}
}

func requestFilter(c *gin.Context) (models.RequestFilter, error) {
	status, err := service.ParseRequestStatus(c.Query("status"))
	if err != nil {
		return models.RequestFilter{}, err
	}
	page, size := pageParams(c)
	return models.RequestFilter{Status: status, Page: page, PageSize: size}, nil
}

// Submit godoc
// @Summary Submit a drop or swap request
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.SubmitRequestPayload true "Request"
// @Success 201 {object} response.Envelope
// @Router /requests [post]
func (h *RequestHandler) Submit(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var payload service.SubmitRequestPayload
	if !bindJSON(c, &payload, "invalid request payload") {
		return
	}
	out, err := h.requests.Submit(c.Request.Context(), actor, payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, out)
}

// ListMine godoc
// @Summary List my requests
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param status query string false "all, pending, approved, rejected"
// @Success 200 {object} response.Envelope
// @Router /students/me/requests [get]
func (h *RequestHandler) ListMine(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	filter, err := requestFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	list, page, err := h.requests.ListMine(c.Request.Context(), actor.ID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, page)
}

// List godoc
// @Summary Advisor request queue
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param status query string false "all, pending, approved, rejected"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	filter, err := requestFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	list, page, err := h.requests.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, page)
}

// Approve godoc
// @Summary Approve a request
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/approve [post]
func (h *RequestHandler) Approve(c *gin.Context) {
	h.decide(c, h.requests.Approve)
}

// Reject godoc
// @Summary Reject a request
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/reject [post]
func (h *RequestHandler) Reject(c *gin.Context) {
	h.decide(c, h.requests.Reject)
}

func (h *RequestHandler) decide(c *gin.Context, fn func(context.Context, service.Actor, string) (*models.Request, error)) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	out, err := fn(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, out, nil)
}
