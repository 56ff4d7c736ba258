package repository

import (
	"icu-backend-bed-allocation/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PatientRepository struct {
	db *gorm.DB
}

func NewPatientRepo(db *gorm.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

// GetAllPatients retrieves every patient in admission order. Discharged
// patients are included; rows are never deleted.
func (r *PatientRepository) GetAllPatients() ([]*models.Patient, error) {
	var patients []*models.Patient
	err := r.db.Order("arrival_time ASC, id ASC").Find(&patients).Error
	return patients, err
}

// SavePatient writes the patient through, inserting or updating on the
// business key.
func (r *PatientRepository) SavePatient(p *models.Patient) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "patient_id"}},
		UpdateAll: true,
	}).Create(p).Error
}
