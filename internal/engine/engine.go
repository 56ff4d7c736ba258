package engine

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"icu-backend-bed-allocation/internal/models"
)

// timeNow is swapped out by tests that need deterministic timestamps.
var timeNow = time.Now

// Validation failures surfaced to callers. Resource scarcity is not an
// error; it queues the patient and admission still succeeds.
var (
	ErrDuplicatePatient = errors.New("patient id already exists")
	ErrPatientNotFound  = errors.New("patient not found")
	ErrPatientNotInICU  = errors.New("patient is not in ICU")
	ErrInvalidSeverity  = errors.New("severity level out of range")
	ErrInvalidBedType   = errors.New("unknown bed type")
	ErrInvalidSpec      = errors.New("unknown specialization")
	ErrDuplicateDoctor  = errors.New("doctor id already exists")
)

// Sink receives a synchronous notification after each in-memory
// mutation so the persistence layer can write through. Sink errors are
// logged as warnings and never roll back in-memory state; the engine's
// memory is authoritative for the running session.
type Sink interface {
	PatientChanged(p *models.Patient) error
	BedChanged(b *models.Bed) error
	DoctorChanged(d *models.Doctor) error
	RecordAppended(r *models.AllocationRecord) error
	WaitingEnqueued(e *models.WaitingEntry) error
	WaitingDequeued(patientID string) error
}

type noopSink struct{}

func (noopSink) PatientChanged(*models.Patient) error          { return nil }
func (noopSink) BedChanged(*models.Bed) error                  { return nil }
func (noopSink) DoctorChanged(*models.Doctor) error            { return nil }
func (noopSink) RecordAppended(*models.AllocationRecord) error { return nil }
func (noopSink) WaitingEnqueued(*models.WaitingEntry) error    { return nil }
func (noopSink) WaitingDequeued(string) error                  { return nil }

// InitialState is everything loaded from persistence at startup.
type InitialState struct {
	Beds     []*models.Bed
	Doctors  []*models.Doctor
	Patients []*models.Patient
	Waiting  []*models.WaitingEntry
	Records  []*models.AllocationRecord
}

// Engine orchestrates joint bed+doctor allocation over the four core
// structures. One coarse mutex guards all state: every public
// operation holds it for its full duration, which is what makes the
// all-or-nothing allocation transaction invisible in partial form to
// the foreground handlers and the background sweep alike.
type Engine struct {
	mu sync.Mutex

	patients map[string]*models.Patient
	order    []string // patient ids in admission order

	beds    *BedInventory
	doctors *DoctorHeap
	waiting *WaitingQueue
	ledger  *Ledger

	sink Sink
}

// New builds the engine from the loaded initial state. Doctor
// workloads and assignment lists are rederived from the patients that
// reference each doctor, so a stale workload column cannot violate the
// workload invariant.
func New(state InitialState, sink Sink) *Engine {
	if sink == nil {
		sink = noopSink{}
	}
	e := &Engine{
		patients: make(map[string]*models.Patient),
		beds:     NewBedInventory(state.Beds),
		doctors:  NewDoctorHeap(),
		waiting:  NewWaitingQueue(),
		ledger:   NewLedger(),
		sink:     sink,
	}

	for _, p := range state.Patients {
		e.patients[p.PatientID] = p
		e.order = append(e.order, p.PatientID)
	}

	assigned := make(map[int][]string)
	for _, id := range e.order {
		p := e.patients[id]
		if p.Status != models.StatusDischarged && p.AssignedDoctorID != nil {
			assigned[*p.AssignedDoctorID] = append(assigned[*p.AssignedDoctorID], p.PatientID)
		}
	}
	for _, d := range state.Doctors {
		d.AssignedPatients = assigned[d.DoctorID]
		d.CurrentWorkload = len(d.AssignedPatients)
		e.doctors.Insert(d)
	}

	for _, entry := range state.Waiting {
		e.waiting.Enqueue(entry)
	}
	e.ledger.Restore(state.Records)

	return e
}

// AdmitRequest carries the admission form fields.
type AdmitRequest struct {
	PatientID     string
	Name          string
	Age           int
	SeverityLevel int
	MedicalNotes  string
	NeedsBed      bool
	BedType       string
}

// AdmitResult reports what happened to an admission. Exactly one of
// Allocated and Queued is set when a bed was needed; neither is set
// for a doctor-only admission.
type AdmitResult struct {
	Patient       models.Patient `json:"patient"`
	Allocated     bool           `json:"allocated"`
	Queued        bool           `json:"queued"`
	QueuePosition int            `json:"queue_position,omitempty"`
	Message       string         `json:"message"`
}

// Admit creates the patient and either commits a joint bed+doctor
// allocation or enqueues the patient. Scarcity of either resource is
// not a failure: the admission succeeds with a queue position.
func (e *Engine) Admit(req AdmitRequest) (*AdmitResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if req.SeverityLevel < models.SeverityMin || req.SeverityLevel > models.SeverityMax {
		return nil, fmt.Errorf("%w: %d (want %d-%d)", ErrInvalidSeverity, req.SeverityLevel, models.SeverityMin, models.SeverityMax)
	}
	bedType := normalizeBedType(req.BedType)
	if req.NeedsBed && !models.ValidBedType(bedType) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBedType, req.BedType)
	}
	if req.PatientID == "" {
		req.PatientID = e.nextPatientID()
	} else if _, exists := e.patients[req.PatientID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicatePatient, req.PatientID)
	}

	patient := &models.Patient{
		PatientID:     req.PatientID,
		Name:          req.Name,
		Age:           req.Age,
		SeverityLevel: req.SeverityLevel,
		MedicalNotes:  req.MedicalNotes,
		Status:        models.StatusWaiting,
		ArrivalTime:   timeNow(),
	}
	e.patients[patient.PatientID] = patient
	e.order = append(e.order, patient.PatientID)
	e.notifyPatient(patient)
	log.Printf("Patient %s admitted to system", patient.PatientID)

	// Doctor-only admission: best effort, never queued.
	if !req.NeedsBed {
		doctor := e.doctors.BestAvailable()
		if doctor == nil {
			return &AdmitResult{
				Patient: *patient,
				Message: fmt.Sprintf("Patient %s registered (no bed required, no doctor available)", patient.PatientID),
			}, nil
		}
		e.assignDoctor(doctor, patient)
		e.notifyDoctor(doctor)
		e.notifyPatient(patient)
		return &AdmitResult{
			Patient: *patient,
			Message: fmt.Sprintf("Patient %s registered and assigned to Dr. %s", patient.PatientID, doctor.Name),
		}, nil
	}

	// Joint check: commit only when both a typed bed and doctor
	// capacity exist right now.
	if _, bedFree := e.beds.FindFree(bedType); bedFree && e.doctors.BestAvailable() != nil {
		if msg, ok := e.allocate(patient, bedType); ok {
			return &AdmitResult{
				Patient:   *patient,
				Allocated: true,
				Message:   "Admitted and allocated: " + msg,
			}, nil
		}
	}

	patient.RequestedBedType = bedType
	entry := &models.WaitingEntry{
		PatientID:        patient.PatientID,
		SeveritySnapshot: patient.SeverityLevel,
		RequestedBedType: bedType,
		EnqueueTime:      timeNow(),
	}
	e.waiting.Enqueue(entry)
	e.notifyPatient(patient)
	e.notifyEnqueued(entry)

	position, _ := e.waiting.Position(patient.PatientID)
	log.Printf("Patient %s added to waiting queue (position %d, type %s)", patient.PatientID, position, bedType)
	return &AdmitResult{
		Patient:       *patient,
		Queued:        true,
		QueuePosition: position,
		Message:       fmt.Sprintf("Admitted to waiting queue (position %d)", position),
	}, nil
}

// nextPatientID generates the next free sequential id (P001, P002,
// ...). Caller holds the lock, so two concurrent admissions can never
// draw the same id.
func (e *Engine) nextPatientID() string {
	n := len(e.patients) + 1
	for {
		id := fmt.Sprintf("P%03d", n)
		if _, exists := e.patients[id]; !exists {
			return id
		}
		n++
	}
}

// allocate performs the all-or-nothing joint transaction. The caller
// holds the lock; availability is re-verified here because the
// admission path and the requeue paths both funnel through it.
func (e *Engine) allocate(patient *models.Patient, bedType string) (string, bool) {
	bedID, ok := e.beds.FindFree(bedType)
	if !ok {
		return fmt.Sprintf("no %s beds available", bedType), false
	}
	doctor := e.doctors.BestAvailable()
	if doctor == nil {
		return "no doctors available (all at capacity)", false
	}

	if !e.beds.Allocate(bedID, patient.PatientID) {
		// Unreachable under the engine lock; fail the operation
		// rather than corrupt shared state.
		log.Printf("Warning: bed %d was free then failed to allocate", bedID)
		return "failed to allocate bed", false
	}

	e.assignDoctor(doctor, patient)

	now := timeNow()
	patient.Status = models.StatusInICU
	patient.AssignedBedID = &bedID
	patient.AssignmentTime = &now

	record := e.ledger.Append(
		patient.PatientID, bedID, doctor.DoctorID,
		patient.SeverityLevel, doctor.Priority(), models.ReasonAutomatic,
	)

	log.Printf("Allocated: patient %s -> bed %d (%s) + Dr. %s", patient.PatientID, bedID, bedType, doctor.Name)

	e.notifyBed(e.beds.Get(bedID))
	e.notifyDoctor(doctor)
	e.notifyPatient(patient)
	e.notifyRecord(record)

	return fmt.Sprintf("Bed %d (%s) + Dr. %s", bedID, bedType, doctor.Name), true
}

// assignDoctor links the patient to the doctor and re-sifts the heap.
// The workload mutation goes through UpdateWorkload so the sift
// direction is derived from the actual priority delta.
func (e *Engine) assignDoctor(doctor *models.Doctor, patient *models.Patient) {
	doctor.AssignedPatients = append(doctor.AssignedPatients, patient.PatientID)
	e.doctors.UpdateWorkload(doctor.DoctorID, doctor.CurrentWorkload+1)
	id := doctor.DoctorID
	patient.AssignedDoctorID = &id
}

// Discharge releases the patient's bed and doctor, then runs the
// single-candidate requeue scan for the freed bed type.
func (e *Engine) Discharge(patientID string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	patient, ok := e.patients[patientID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrPatientNotFound, patientID)
	}
	if patient.Status != models.StatusInICU {
		return "", fmt.Errorf("%w: %s (status: %s)", ErrPatientNotInICU, patientID, patient.Status)
	}
	if patient.AssignedBedID == nil {
		log.Printf("Warning: patient %s is IN_ICU without a bed reference", patientID)
		return "", fmt.Errorf("%w: %s", ErrPatientNotInICU, patientID)
	}

	bedID := *patient.AssignedBedID
	freedType := ""
	if bed := e.beds.Get(bedID); bed != nil {
		freedType = bed.BedType
	}
	e.beds.Release(bedID)

	if patient.AssignedDoctorID != nil {
		if doctor := e.doctors.Get(*patient.AssignedDoctorID); doctor != nil {
			doctor.AssignedPatients = removeString(doctor.AssignedPatients, patientID)
			newWorkload := doctor.CurrentWorkload - 1
			if newWorkload < 0 {
				newWorkload = 0
			}
			e.doctors.UpdateWorkload(doctor.DoctorID, newWorkload)
			e.notifyDoctor(doctor)
		} else {
			log.Printf("Warning: doctor %d not found in heap", *patient.AssignedDoctorID)
		}
	}

	now := timeNow()
	patient.Status = models.StatusDischarged
	patient.DischargeTime = &now
	patient.AssignedBedID = nil
	patient.AssignedDoctorID = nil

	e.notifyBed(e.beds.Get(bedID))
	e.notifyPatient(patient)
	log.Printf("Patient %s discharged from bed %d", patientID, bedID)

	e.requeueAfterRelease(freedType)

	return fmt.Sprintf("Discharged from Bed %d", bedID), nil
}

// requeueAfterRelease scans the waiting queue in severity order for
// the first entry requesting the freed bed type and attempts exactly
// one allocation. On failure the entry is re-inserted with its
// original enqueue time, restoring its position, and the scan stops.
// It deliberately does not drain the queue even if more beds are free.
func (e *Engine) requeueAfterRelease(freedType string) {
	for _, entry := range e.waiting.Ordered() {
		patient, ok := e.patients[entry.PatientID]
		if !ok || patient.Status != models.StatusWaiting {
			continue
		}
		if entry.RequestedBedType != freedType {
			continue
		}

		e.waiting.Remove(entry.PatientID)
		e.notifyDequeued(entry.PatientID)

		msg, allocated := e.allocate(patient, freedType)
		if !allocated {
			log.Printf("Could not allocate freed %s bed to %s: %s", freedType, entry.PatientID, msg)
			e.waiting.Enqueue(entry)
			e.notifyEnqueued(entry)
		}
		return
	}
}

// SweepOnce is one iteration of the background requeue sweep: find the
// first waiting patient whose requested bed type has a free bed,
// attempt a single allocation, and stop. It reports whether an
// allocation was committed.
func (e *Engine) SweepOnce() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, entry := range e.waiting.Ordered() {
		patient, ok := e.patients[entry.PatientID]
		if !ok || patient.Status != models.StatusWaiting {
			continue
		}
		if _, free := e.beds.FindFree(entry.RequestedBedType); !free {
			continue
		}

		e.waiting.Remove(entry.PatientID)
		e.notifyDequeued(entry.PatientID)

		msg, allocated := e.allocate(patient, entry.RequestedBedType)
		if !allocated {
			log.Printf("Sweep could not allocate %s bed to %s: %s", entry.RequestedBedType, entry.PatientID, msg)
			e.waiting.Enqueue(entry)
			e.notifyEnqueued(entry)
			return false
		}
		log.Printf("Sweep allocated %s bed to waiting patient %s", entry.RequestedBedType, entry.PatientID)
		return true
	}
	return false
}

func normalizeBedType(t string) string {
	if t == "" {
		return models.BedTypeGeneral
	}
	return strings.ToUpper(t)
}

func removeString(list []string, s string) []string {
	for i, v := range list {
		if v == s {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// Export of the ledger, under the engine lock like every other read.
func (e *Engine) ExportLog(w io.Writer) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.ExportCSV(w)
}

func (e *Engine) notifyPatient(p *models.Patient) {
	if err := e.sink.PatientChanged(p); err != nil {
		log.Printf("Warning: failed to persist patient %s: %v", p.PatientID, err)
	}
}

func (e *Engine) notifyBed(b *models.Bed) {
	if b == nil {
		return
	}
	if err := e.sink.BedChanged(b); err != nil {
		log.Printf("Warning: failed to persist bed %d: %v", b.BedID, err)
	}
}

func (e *Engine) notifyDoctor(d *models.Doctor) {
	if err := e.sink.DoctorChanged(d); err != nil {
		log.Printf("Warning: failed to persist doctor %d: %v", d.DoctorID, err)
	}
}

func (e *Engine) notifyRecord(r *models.AllocationRecord) {
	if err := e.sink.RecordAppended(r); err != nil {
		log.Printf("Warning: failed to persist allocation record %d: %v", r.RecordID, err)
	}
}

func (e *Engine) notifyEnqueued(entry *models.WaitingEntry) {
	if err := e.sink.WaitingEnqueued(entry); err != nil {
		log.Printf("Warning: failed to persist waiting entry for %s: %v", entry.PatientID, err)
	}
}

func (e *Engine) notifyDequeued(patientID string) {
	if err := e.sink.WaitingDequeued(patientID); err != nil {
		log.Printf("Warning: failed to remove waiting entry for %s: %v", patientID, err)
	}
}
