package handler

import (
	"errors"
	"net/http"

	"icu-backend-bed-allocation/internal/engine"
	"icu-backend-bed-allocation/internal/middleware"
	"icu-backend-bed-allocation/internal/service"
	"icu-backend-bed-allocation/pkg/utils"

	"github.com/gin-gonic/gin"
)

type AllocationHandler struct {
	allocationService *service.AllocationService
}

func NewAllocationHandler(allocationService *service.AllocationService) *AllocationHandler {
	return &AllocationHandler{
		allocationService: allocationService,
	}
}

// AdmitRequest represents the admission request body
type AdmitRequest struct {
	PatientID     string `json:"patient_id"`
	Name          string `json:"name" binding:"required"`
	Age           int    `json:"age" binding:"required,gte=0"`
	SeverityLevel int    `json:"severity_level" binding:"required"`
	MedicalNotes  string `json:"medical_notes"`
	NeedsBed      *bool  `json:"needs_bed"`
	BedType       string `json:"bed_type"`
}

// AdmitPatient admits a new patient. Resource scarcity is not an
// error: the patient is queued and the call still succeeds with the
// queue position.
func (h *AllocationHandler) AdmitPatient(c *gin.Context) {
	var req AdmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	needsBed := true
	if req.NeedsBed != nil {
		needsBed = *req.NeedsBed
	}

	result, err := h.allocationService.AdmitPatient(middleware.CurrentUserID(c), engine.AdmitRequest{
		PatientID:     req.PatientID,
		Name:          req.Name,
		Age:           req.Age,
		SeverityLevel: req.SeverityLevel,
		MedicalNotes:  req.MedicalNotes,
		NeedsBed:      needsBed,
		BedType:       req.BedType,
	})
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	utils.SuccessResponse(c, result)
}

// DischargePatient discharges a patient and frees their bed and
// doctor; the engine then attempts one requeue allocation.
func (h *AllocationHandler) DischargePatient(c *gin.Context) {
	patientID := c.Param("id")

	message, err := h.allocationService.DischargePatient(middleware.CurrentUserID(c), patientID)
	if err != nil {
		if errors.Is(err, engine.ErrPatientNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, err.Error())
		} else {
			utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		}
		return
	}

	utils.MessageResponse(c, message)
}

// GetPatient looks up a patient by id, including discharged ones.
func (h *AllocationHandler) GetPatient(c *gin.Context) {
	patient, err := h.allocationService.FindPatient(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, err.Error())
		return
	}

	utils.SuccessResponse(c, patient)
}

// AddDoctorRequest represents the add-doctor request body
type AddDoctorRequest struct {
	Name            string `json:"name" binding:"required"`
	ExperienceYears int    `json:"experience_years" binding:"required,gte=0"`
	Specialization  string `json:"specialization" binding:"required"`
	MaxCapacity     int    `json:"max_capacity"`
}

// AddDoctor registers a new doctor (admin only). Doctors are never
// removed once added.
func (h *AllocationHandler) AddDoctor(c *gin.Context) {
	var req AddDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	doctor, err := h.allocationService.AddDoctor(middleware.CurrentUserID(c), req.Name, req.ExperienceYears, req.Specialization, req.MaxCapacity)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": "Doctor added successfully",
		"doctor":  doctor,
	})
}
