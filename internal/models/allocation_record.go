package models

import "time"

// Allocation reason codes.
const (
	ReasonAutomatic      = "AUTOMATIC"
	ReasonManualOverride = "MANUAL_OVERRIDE"
	ReasonEmergency      = "EMERGENCY"
)

// AllocationRecord represents the allocations table. Records are
// append-only with strictly increasing record ids; there is no update
// or delete path anywhere in the codebase.
type AllocationRecord struct {
	ID       uint `gorm:"primaryKey" json:"-"`
	RecordID int  `gorm:"uniqueIndex;not null" json:"record_id"`

	PatientID string `gorm:"size:50;not null;index" json:"patient_id"`
	BedID     int    `gorm:"not null" json:"bed_id"`
	DoctorID  int    `gorm:"not null" json:"doctor_id"`

	// Snapshots taken at decision time, for audit.
	PatientSeverity     int `gorm:"not null" json:"patient_severity"`
	DoctorPriorityScore int `gorm:"not null" json:"doctor_priority_score"`

	AllocationTime time.Time `gorm:"not null;index" json:"allocation_time"`
	DecisionReason string    `gorm:"size:50;not null;default:'AUTOMATIC'" json:"decision_reason"`
}

// TableName specifies the table name for AllocationRecord model
func (AllocationRecord) TableName() string {
	return "allocations"
}
