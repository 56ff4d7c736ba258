package repository

import (
	"icu-backend-bed-allocation/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BedRepository struct {
	db *gorm.DB
}

func NewBedRepo(db *gorm.DB) *BedRepository {
	return &BedRepository{db: db}
}

// GetAllBeds retrieves every bed ordered by bed id.
func (r *BedRepository) GetAllBeds() ([]*models.Bed, error) {
	var beds []*models.Bed
	err := r.db.Order("bed_id ASC").Find(&beds).Error
	return beds, err
}

// SaveBed writes occupancy state through on the bed id.
func (r *BedRepository) SaveBed(b *models.Bed) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "bed_id"}},
		UpdateAll: true,
	}).Create(b).Error
}
