package engine

import (
	"fmt"
	"log"
	"sort"
	"time"

	"icu-backend-bed-allocation/internal/models"
)

// StatusReport is the aggregate metrics snapshot. Pure read.
type StatusReport struct {
	TotalPatients      int `json:"total_patients"`
	PatientsInICU      int `json:"patients_in_icu"`
	PatientsWaiting    int `json:"patients_waiting"`
	PatientsDischarged int `json:"patients_discharged"`

	BedsFree      int     `json:"beds_free"`
	BedsOccupied  int     `json:"beds_occupied"`
	BedsTotal     int     `json:"beds_total"`
	OccupancyRate float64 `json:"occupancy_rate"`

	TotalDoctors          int     `json:"total_doctors"`
	TotalDoctorWorkload   int     `json:"total_doctor_workload"`
	TotalDoctorCapacity   int     `json:"total_doctor_capacity"`
	AverageDoctorWorkload float64 `json:"average_doctor_workload"`

	TotalAllocations int `json:"total_allocations"`
}

// Status returns the aggregate system metrics.
func (e *Engine) Status() StatusReport {
	e.mu.Lock()
	defer e.mu.Unlock()

	totalBeds := e.beds.Len()
	freeBeds := e.beds.CountFree()
	occupied := totalBeds - freeBeds

	report := StatusReport{
		TotalPatients:   len(e.patients),
		PatientsInICU:   occupied,
		PatientsWaiting: e.waiting.Size(),

		BedsFree:     freeBeds,
		BedsOccupied: occupied,
		BedsTotal:    totalBeds,

		TotalDoctors:     e.doctors.Len(),
		TotalAllocations: e.ledger.Count(),
	}
	for _, id := range e.order {
		if e.patients[id].Status == models.StatusDischarged {
			report.PatientsDischarged++
		}
	}
	if totalBeds > 0 {
		report.OccupancyRate = float64(occupied) / float64(totalBeds) * 100
	}
	for _, d := range e.doctors.Doctors() {
		report.TotalDoctorWorkload += d.CurrentWorkload
		report.TotalDoctorCapacity += d.MaxCapacity
	}
	if n := e.doctors.Len(); n > 0 {
		report.AverageDoctorWorkload = float64(report.TotalDoctorWorkload) / float64(n)
	}
	return report
}

// WaitingStatus is one waiting queue slot with its patient details.
type WaitingStatus struct {
	Position         int            `json:"position"`
	Patient          models.Patient `json:"patient"`
	RequestedBedType string         `json:"requested_bed_type"`
	EnqueueTime      time.Time      `json:"enqueue_time"`
	WaitMinutes      float64        `json:"wait_minutes"`
}

// ListWaiting returns the waiting queue in allocation order.
func (e *Engine) ListWaiting() []WaitingStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := timeNow()
	out := make([]WaitingStatus, 0, e.waiting.Size())
	for i, entry := range e.waiting.Ordered() {
		patient, ok := e.patients[entry.PatientID]
		if !ok {
			continue
		}
		out = append(out, WaitingStatus{
			Position:         i + 1,
			Patient:          *patient,
			RequestedBedType: entry.RequestedBedType,
			EnqueueTime:      entry.EnqueueTime,
			WaitMinutes:      now.Sub(entry.EnqueueTime).Minutes(),
		})
	}
	return out
}

// BedStatus is one bed with the occupying patient, if any.
type BedStatus struct {
	Bed     models.Bed      `json:"bed"`
	Patient *models.Patient `json:"patient,omitempty"`
}

// ListBeds returns every bed in id order with occupant details.
func (e *Engine) ListBeds() []BedStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	beds := e.beds.Snapshot()
	out := make([]BedStatus, 0, len(beds))
	for _, bed := range beds {
		status := BedStatus{Bed: *bed}
		if bed.IsOccupied && bed.AssignedPatientID != nil {
			if patient, ok := e.patients[*bed.AssignedPatientID]; ok {
				p := *patient
				status.Patient = &p
			}
		}
		out = append(out, status)
	}
	return out
}

// DoctorStatus is one doctor with derived workload metrics.
type DoctorStatus struct {
	Doctor         models.Doctor `json:"doctor"`
	Priority       int           `json:"priority"`
	UtilizationPct float64       `json:"utilization_pct"`
}

// DoctorWorkloads returns all doctors ordered by descending priority,
// ties to the lower doctor id.
func (e *Engine) DoctorWorkloads() []DoctorStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	doctors := e.doctors.Doctors()
	sort.Slice(doctors, func(i, j int) bool {
		return outranks(doctors[i], doctors[j])
	})

	out := make([]DoctorStatus, 0, len(doctors))
	for _, d := range doctors {
		status := DoctorStatus{Doctor: *d, Priority: d.Priority()}
		status.Doctor.AssignedPatients = append([]string(nil), d.AssignedPatients...)
		if d.MaxCapacity > 0 {
			status.UtilizationPct = float64(d.CurrentWorkload) / float64(d.MaxCapacity) * 100
		}
		out = append(out, status)
	}
	return out
}

// AddDoctor registers a new doctor at runtime with the next free id.
// Doctors are never removed.
func (e *Engine) AddDoctor(name string, experienceYears int, specialization string, maxCapacity int) (*models.Doctor, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !models.ValidSpecialization(specialization) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSpec, specialization)
	}
	if maxCapacity <= 0 {
		maxCapacity = 5
	}

	nextID := 1
	for _, d := range e.doctors.Doctors() {
		if d.DoctorID >= nextID {
			nextID = d.DoctorID + 1
		}
	}

	doctor := &models.Doctor{
		DoctorID:        nextID,
		Name:            name,
		ExperienceYears: experienceYears,
		Specialization:  specialization,
		MaxCapacity:     maxCapacity,
		IsAvailable:     true,
	}
	if !e.doctors.Insert(doctor) {
		return nil, fmt.Errorf("%w: %d", ErrDuplicateDoctor, nextID)
	}
	e.notifyDoctor(doctor)
	log.Printf("Added Dr. %s (exp %dy, %s, capacity %d)", name, experienceYears, specialization, maxCapacity)

	d := *doctor
	return &d, nil
}

// FindPatient looks a patient up by id. Discharged patients remain
// searchable.
func (e *Engine) FindPatient(patientID string) (*models.Patient, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	patient, ok := e.patients[patientID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPatientNotFound, patientID)
	}
	p := *patient
	return &p, nil
}

// LogByPatient returns the allocation records for one patient.
func (e *Engine) LogByPatient(patientID string) []*models.AllocationRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.QueryByPatient(patientID)
}

// LogByRange returns the allocation records in [start, end].
func (e *Engine) LogByRange(start, end time.Time) []*models.AllocationRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.QueryByTimeRange(start, end)
}

// LogAll returns the full ledger, oldest first.
func (e *Engine) LogAll() []*models.AllocationRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Records()
}
