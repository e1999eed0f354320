package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jinjin-academy/schedule-api/internal/dto"
	"github.com/jinjin-academy/schedule-api/internal/service"
	appErrors "github.com/jinjin-academy/schedule-api/pkg/errors"
	"github.com/jinjin-academy/schedule-api/pkg/response"
)

// ChangeRequestHandler manages the request lifecycle endpoints.
type ChangeRequestHandler struct {
	service *service.ChangeRequestService
}

// NewChangeRequestHandler constructs handler.
func NewChangeRequestHandler(svc *service.ChangeRequestService) *ChangeRequestHandler {
	return &ChangeRequestHandler{service: svc}
}

// Create godoc
// @Summary Submit a change request
// @Tags ChangeRequests
// @Accept json
// @Produce json
// @Param payload body dto.CreateChangeRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /change-requests [post]
func (h *ChangeRequestHandler) Create(c *gin.Context) {
	var req dto.CreateChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// List godoc
// @Summary List change requests
// @Tags ChangeRequests
// @Produce json
// @Param status query string false "Filter by exact status"
// @Success 200 {object} response.Envelope
// @Router /change-requests [get]
func (h *ChangeRequestHandler) List(c *gin.Context) {
	requests, err := h.service.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Decide godoc
// @Summary Approve or reject a change request
// @Tags ChangeRequests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.DecideChangeRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /change-requests/{id}/decision [put]
func (h *ChangeRequestHandler) Decide(c *gin.Context) {
	var req dto.DecideChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.service.Decide(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Acknowledge godoc
// @Summary Mark a decided request as seen
// @Tags ChangeRequests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /change-requests/{id}/acknowledge [put]
func (h *ChangeRequestHandler) Acknowledge(c *gin.Context) {
	request, err := h.service.Acknowledge(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}
