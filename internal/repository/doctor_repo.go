package repository

import (
	"icu-backend-bed-allocation/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DoctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepo(db *gorm.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

// GetAllDoctors retrieves every doctor ordered by doctor id.
func (r *DoctorRepository) GetAllDoctors() ([]*models.Doctor, error) {
	var doctors []*models.Doctor
	err := r.db.Order("doctor_id ASC").Find(&doctors).Error
	return doctors, err
}

// SaveDoctor writes workload and profile changes through on the
// doctor id.
func (r *DoctorRepository) SaveDoctor(d *models.Doctor) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "doctor_id"}},
		UpdateAll: true,
	}).Create(d).Error
}
