package service

import (
	"fmt"

	"icu-backend-bed-allocation/internal/engine"
	"icu-backend-bed-allocation/internal/models"
	"icu-backend-bed-allocation/internal/repository"
)

// PersistenceSink implements engine.Sink by writing each in-memory
// mutation through to MySQL. Errors bubble back to the engine, which
// logs them as warnings; in-memory state is never rolled back.
type PersistenceSink struct {
	patientRepo    *repository.PatientRepository
	bedRepo        *repository.BedRepository
	doctorRepo     *repository.DoctorRepository
	waitingRepo    *repository.WaitingRepository
	allocationRepo *repository.AllocationRepository
}

func NewPersistenceSink(
	patientRepo *repository.PatientRepository,
	bedRepo *repository.BedRepository,
	doctorRepo *repository.DoctorRepository,
	waitingRepo *repository.WaitingRepository,
	allocationRepo *repository.AllocationRepository,
) *PersistenceSink {
	return &PersistenceSink{
		patientRepo:    patientRepo,
		bedRepo:        bedRepo,
		doctorRepo:     doctorRepo,
		waitingRepo:    waitingRepo,
		allocationRepo: allocationRepo,
	}
}

func (s *PersistenceSink) PatientChanged(p *models.Patient) error {
	return s.patientRepo.SavePatient(p)
}

func (s *PersistenceSink) BedChanged(b *models.Bed) error {
	return s.bedRepo.SaveBed(b)
}

func (s *PersistenceSink) DoctorChanged(d *models.Doctor) error {
	return s.doctorRepo.SaveDoctor(d)
}

func (s *PersistenceSink) RecordAppended(r *models.AllocationRecord) error {
	return s.allocationRepo.AppendRecord(r)
}

func (s *PersistenceSink) WaitingEnqueued(e *models.WaitingEntry) error {
	return s.waitingRepo.SaveEntry(e)
}

func (s *PersistenceSink) WaitingDequeued(patientID string) error {
	return s.waitingRepo.DeleteEntry(patientID)
}

// LoadInitialState reads all five aggregates from the database, called
// once at startup before the engine is constructed.
func LoadInitialState(
	patientRepo *repository.PatientRepository,
	bedRepo *repository.BedRepository,
	doctorRepo *repository.DoctorRepository,
	waitingRepo *repository.WaitingRepository,
	allocationRepo *repository.AllocationRepository,
) (engine.InitialState, error) {
	var state engine.InitialState
	var err error

	if state.Beds, err = bedRepo.GetAllBeds(); err != nil {
		return state, fmt.Errorf("failed to load beds: %w", err)
	}
	if state.Doctors, err = doctorRepo.GetAllDoctors(); err != nil {
		return state, fmt.Errorf("failed to load doctors: %w", err)
	}
	if state.Patients, err = patientRepo.GetAllPatients(); err != nil {
		return state, fmt.Errorf("failed to load patients: %w", err)
	}
	if state.Waiting, err = waitingRepo.GetAllEntries(); err != nil {
		return state, fmt.Errorf("failed to load waiting queue: %w", err)
	}
	if state.Records, err = allocationRepo.GetAllRecords(); err != nil {
		return state, fmt.Errorf("failed to load allocation log: %w", err)
	}
	return state, nil
}
