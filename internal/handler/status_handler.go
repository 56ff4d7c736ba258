package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"icu-backend-bed-allocation/internal/service"
	"icu-backend-bed-allocation/pkg/utils"

	"github.com/gin-gonic/gin"
)

type StatusHandler struct {
	allocationService *service.AllocationService
}

func NewStatusHandler(allocationService *service.AllocationService) *StatusHandler {
	return &StatusHandler{
		allocationService: allocationService,
	}
}

// GetStatus returns the aggregate system metrics.
func (h *StatusHandler) GetStatus(c *gin.Context) {
	utils.SuccessResponse(c, h.allocationService.Status())
}

// GetBedStatus returns every bed with its occupant, in bed id order.
func (h *StatusHandler) GetBedStatus(c *gin.Context) {
	beds := h.allocationService.ListBeds()
	utils.SuccessResponse(c, gin.H{
		"beds":  beds,
		"count": len(beds),
	})
}

// GetWaitingQueue returns the waiting queue in allocation order.
func (h *StatusHandler) GetWaitingQueue(c *gin.Context) {
	waiting := h.allocationService.ListWaiting()
	utils.SuccessResponse(c, gin.H{
		"waiting": waiting,
		"count":   len(waiting),
	})
}

// GetDoctorWorkloads returns all doctors ordered by priority.
func (h *StatusHandler) GetDoctorWorkloads(c *gin.Context) {
	doctors := h.allocationService.DoctorWorkloads()
	utils.SuccessResponse(c, gin.H{
		"doctors": doctors,
		"count":   len(doctors),
	})
}

// GetAllocationLog returns ledger records, optionally filtered by
// ?patient_id= or by ?start=&end= (RFC3339).
func (h *StatusHandler) GetAllocationLog(c *gin.Context) {
	patientID := c.Query("patient_id")

	var start, end *time.Time
	if s := c.Query("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid start time, want RFC3339")
			return
		}
		start = &t
	}
	if s := c.Query("end"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid end time, want RFC3339")
			return
		}
		end = &t
	}
	if (start == nil) != (end == nil) {
		utils.ErrorResponse(c, http.StatusBadRequest, "start and end must be given together")
		return
	}

	records := h.allocationService.QueryLog(patientID, start, end)
	utils.SuccessResponse(c, gin.H{
		"records": records,
		"count":   len(records),
	})
}

// ExportAllocationLog returns the full ledger as a CSV download. The
// report is built in memory first so an export error yields a clean
// JSON error instead of a truncated CSV body.
func (h *StatusHandler) ExportAllocationLog(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.allocationService.ExportLog(&buf); err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to export allocation log")
		return
	}

	filename := fmt.Sprintf("icu_report_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}
