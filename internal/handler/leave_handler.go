package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ksndmc/flow-api/internal/models"
	"github.com/ksndmc/flow-api/internal/service"
	appErrors "github.com/ksndmc/flow-api/pkg/errors"
	"github.com/ksndmc/flow-api/pkg/response"
)

// LeaveHandler wires HTTP endpoints to the leave service.
type LeaveHandler struct {
	service *service.LeaveService
	metrics *service.MetricsService
}

// NewLeaveHandler creates a new handler.
func NewLeaveHandler(svc *service.LeaveService, metrics *service.MetricsService) *LeaveHandler {
	return &LeaveHandler{service: svc, metrics: metrics}
}

// List godoc
// @Summary List leave requests
// @Tags Leave
// @Produce json
// @Param status query string false "Filter by status"
// @Param user_id query string false "Filter by user"
// @Success 200 {object} response.Envelope
// @Router /leave/requests [get]
func (h *LeaveHandler) List(c *gin.Context) {
	filter := models.LeaveRequestFilter{
		UserID:    c.Query("user_id"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.LeaveStatus(strings.ToUpper(raw))
		if status != models.LeavePending && !status.Terminal() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown leave status"))
			return
		}
		filter.Status = &status
	}

	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if claims.Role != models.RoleAdmin {
		filter.UserID = claims.UserID
	}

	requests, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, requests, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Submit godoc
// @Summary Submit a leave request
// @Tags Leave
// @Accept json
// @Produce json
// @Param payload body service.SubmitLeaveRequest true "Leave request payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /leave/requests [post]
func (h *LeaveHandler) Submit(c *gin.Context) {
	var req service.SubmitLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	// Employees file for themselves.
	if claims.Role != models.RoleAdmin {
		req.UserID = claims.UserID
	}

	created, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Approve godoc
// @Summary Approve a leave request
// @Tags Leave
// @Produce json
// @Param id path string true "Request id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /leave/requests/{id}/approve [post]
func (h *LeaveHandler) Approve(c *gin.Context) {
	decided, err := h.service.Decide(c.Request.Context(), c.Param("id"), true)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordLeaveDecision("approved")
	response.JSON(c, http.StatusOK, decided, nil)
}

// Reject godoc
// @Summary Reject a leave request
// @Tags Leave
// @Produce json
// @Param id path string true "Request id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /leave/requests/{id}/reject [post]
func (h *LeaveHandler) Reject(c *gin.Context) {
	decided, err := h.service.Decide(c.Request.Context(), c.Param("id"), false)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordLeaveDecision("rejected")
	response.JSON(c, http.StatusOK, decided, nil)
}

// Balance godoc
// @Summary Leave balance for a user
// @Tags Leave
// @Produce json
// @Param id path string true "User id"
// @Success 200 {object} response.Envelope
// @Router /leave/balances/{id} [get]
func (h *LeaveHandler) Balance(c *gin.Context) {
	balance, err := h.service.Balance(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, balance, nil)
}

// PatchBalance godoc
// @Summary Edit leave balance counters
// @Tags Leave
// @Accept json
// @Produce json
// @Param id path string true "User id"
// @Param payload body models.LeaveBalancePatch true "Counters to set"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /leave/balances/{id} [patch]
func (h *LeaveHandler) PatchBalance(c *gin.Context) {
	var patch models.LeaveBalancePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	userID := c.Param("id")
	if err := h.service.PatchBalance(c.Request.Context(), userID, patch); err != nil {
		response.Error(c, err)
		return
	}

	balance, err := h.service.Balance(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, balance, nil)
}
