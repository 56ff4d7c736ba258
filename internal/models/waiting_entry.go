package models

import "time"

// WaitingEntry represents the waiting_queue table. One row per patient
// currently waiting for a bed; removed on allocation or explicit dequeue.
type WaitingEntry struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	PatientID string `gorm:"size:50;uniqueIndex;not null" json:"patient_id"`

	SeveritySnapshot int    `gorm:"not null" json:"severity_snapshot"`
	RequestedBedType string `gorm:"size:50;not null;default:'GENERAL'" json:"requested_bed_type"`

	EnqueueTime time.Time `gorm:"not null" json:"enqueue_time"`
}

// TableName specifies the table name for WaitingEntry model
func (WaitingEntry) TableName() string {
	return "waiting_queue"
}
