package service

import (
	"io"
	"log"
	"time"

	"icu-backend-bed-allocation/internal/engine"
	"icu-backend-bed-allocation/internal/models"
)

// AuditTrail records admin actions. Implemented by
// repository.AuditRepository.
type AuditTrail interface {
	CreateAuditLog(userID *uint, action, details string) error
}

// AllocationService is the presentation facade over the engine. The
// engine owns all allocation logic; this layer translates the "auto"
// patient id, attributes admin actions to the acting account in the
// audit log, and keeps handlers off the engine's internals.
type AllocationService struct {
	eng   *engine.Engine
	audit AuditTrail
}

func NewAllocationService(eng *engine.Engine, audit AuditTrail) *AllocationService {
	return &AllocationService{eng: eng, audit: audit}
}

// AdmitPatient admits a patient. An empty or "auto" id asks the engine
// to generate the next sequential one under its lock.
func (s *AllocationService) AdmitPatient(actor *uint, req engine.AdmitRequest) (*engine.AdmitResult, error) {
	if req.PatientID == "auto" {
		req.PatientID = ""
	}
	result, err := s.eng.Admit(req)
	if err != nil {
		return nil, err
	}
	s.auditAction(actor, "patient_admit", "Admitted patient "+result.Patient.PatientID+": "+result.Message)
	return result, nil
}

// DischargePatient discharges a patient and lets the engine run its
// requeue scan for the freed bed type.
func (s *AllocationService) DischargePatient(actor *uint, patientID string) (string, error) {
	message, err := s.eng.Discharge(patientID)
	if err != nil {
		return "", err
	}
	s.auditAction(actor, "patient_discharge", "Discharged patient "+patientID+": "+message)
	return message, nil
}

// AddDoctor registers a doctor at runtime.
func (s *AllocationService) AddDoctor(actor *uint, name string, experienceYears int, specialization string, maxCapacity int) (*models.Doctor, error) {
	doctor, err := s.eng.AddDoctor(name, experienceYears, specialization, maxCapacity)
	if err != nil {
		return nil, err
	}
	s.auditAction(actor, "doctor_add", "Added Dr. "+doctor.Name+" ("+doctor.Specialization+")")
	return doctor, nil
}

func (s *AllocationService) FindPatient(patientID string) (*models.Patient, error) {
	return s.eng.FindPatient(patientID)
}

func (s *AllocationService) Status() engine.StatusReport {
	return s.eng.Status()
}

func (s *AllocationService) ListWaiting() []engine.WaitingStatus {
	return s.eng.ListWaiting()
}

func (s *AllocationService) ListBeds() []engine.BedStatus {
	return s.eng.ListBeds()
}

func (s *AllocationService) DoctorWorkloads() []engine.DoctorStatus {
	return s.eng.DoctorWorkloads()
}

// QueryLog filters the ledger by patient or time range; with neither
// filter set it returns the full log.
func (s *AllocationService) QueryLog(patientID string, start, end *time.Time) []*models.AllocationRecord {
	if patientID != "" {
		return s.eng.LogByPatient(patientID)
	}
	if start != nil && end != nil {
		return s.eng.LogByRange(*start, *end)
	}
	return s.eng.LogAll()
}

// ExportLog streams the ledger as CSV.
func (s *AllocationService) ExportLog(w io.Writer) error {
	return s.eng.ExportLog(w)
}

// auditAction writes an audit row for an admin action. The allocation
// already succeeded; an audit failure is a warning, not a rollback.
func (s *AllocationService) auditAction(actor *uint, action, details string) {
	if err := s.audit.CreateAuditLog(actor, action, details); err != nil {
		log.Printf("Warning: failed to write audit log for %s: %v", action, err)
	}
}
