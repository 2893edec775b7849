package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ksndmc/flow-api/internal/models"
	"github.com/ksndmc/flow-api/internal/service"
	"github.com/ksndmc/flow-api/pkg/response"
)

// CalendarHandler serves the holiday calendar.
type CalendarHandler struct {
	service *service.CalendarService
}

// NewCalendarHandler creates a new handler.
func NewCalendarHandler(svc *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{service: svc}
}

// Holidays godoc
// @Summary List holidays
// @Tags Calendar
// @Produce json
// @Param year query int false "Restrict to a year"
// @Success 200 {object} response.Envelope
// @Router /calendar/holidays [get]
func (h *CalendarHandler) Holidays(c *gin.Context) {
	holidays, err := h.service.Holidays(c.Request.Context(), queryInt(c, "year", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, holidays, nil)
}

// ClassifyDate godoc
// @Summary Classify a date for an employee type
// @Description Reports whether a date is a holiday or weekend for the given employee type.
// @Tags Calendar
// @Produce json
// @Param date query string true "Date YYYY-MM-DD"
// @Param employee_type query string false "Employee type, default REGULAR"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /calendar/special-day [get]
func (h *CalendarHandler) ClassifyDate(c *gin.Context) {
	employeeType := models.EmployeeRegular
	if raw := c.Query("employee_type"); raw != "" {
		employeeType = models.EmployeeType(strings.ToUpper(raw))
	}

	day, err := h.service.ClassifyDate(c.Request.Context(), c.Query("date"), employeeType)
	if err != nil {
		response.Error(c, err)
		return
	}

	if day == nil {
		response.JSON(c, http.StatusOK, gin.H{"special": false}, nil)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"special": true,
		"status":  day.Status,
		"name":    day.Name,
	}, nil)
}
