package repository

import (
	"icu-backend-bed-allocation/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WaitingRepository struct {
	db *gorm.DB
}

func NewWaitingRepo(db *gorm.DB) *WaitingRepository {
	return &WaitingRepository{db: db}
}

// GetAllEntries retrieves waiting entries ordered the way the engine
// queues them: ascending severity, then enqueue time.
func (r *WaitingRepository) GetAllEntries() ([]*models.WaitingEntry, error) {
	var entries []*models.WaitingEntry
	err := r.db.Order("severity_snapshot ASC, enqueue_time ASC, id ASC").Find(&entries).Error
	return entries, err
}

// SaveEntry writes a waiting entry through on the patient id. A
// re-enqueue after a failed allocation lands on the same row.
func (r *WaitingRepository) SaveEntry(entry *models.WaitingEntry) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "patient_id"}},
		UpdateAll: true,
	}).Create(entry).Error
}

// DeleteEntry removes the waiting row for a patient.
func (r *WaitingRepository) DeleteEntry(patientID string) error {
	return r.db.Where("patient_id = ?", patientID).
		Delete(&models.WaitingEntry{}).Error
}
