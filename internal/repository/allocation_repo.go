package repository

import (
	"icu-backend-bed-allocation/internal/models"

	"gorm.io/gorm"
)

type AllocationRepository struct {
	db *gorm.DB
}

func NewAllocationRepo(db *gorm.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

// GetAllRecords retrieves the full ledger in record id order.
func (r *AllocationRepository) GetAllRecords() ([]*models.AllocationRecord, error) {
	var records []*models.AllocationRecord
	err := r.db.Order("record_id ASC").Find(&records).Error
	return records, err
}

// AppendRecord inserts a new ledger row. The table is append-only;
// there is no update or delete method.
func (r *AllocationRepository) AppendRecord(record *models.AllocationRecord) error {
	return r.db.Create(record).Error
}
