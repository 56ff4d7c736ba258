package models

import "time"

// Bed types form a closed set; requested types are validated against it.
const (
	BedTypeGeneral    = "GENERAL"
	BedTypeVentilator = "VENTILATOR"
	BedTypeIsolation  = "ISOLATION"
)

// BedTypes lists all valid bed types in seeding order.
var BedTypes = []string{BedTypeGeneral, BedTypeVentilator, BedTypeIsolation}

// ValidBedType reports whether t is a member of the closed bed type set.
func ValidBedType(t string) bool {
	for _, bt := range BedTypes {
		if t == bt {
			return true
		}
	}
	return false
}

// Bed represents the beds table. Bed ids run 0..N-1 and are fixed at
// seeding time; only occupancy fields change afterwards.
type Bed struct {
	ID      uint   `gorm:"primaryKey" json:"-"`
	BedID   int    `gorm:"uniqueIndex;not null" json:"bed_id"`
	BedType string `gorm:"size:50;not null;default:'GENERAL'" json:"bed_type"`

	IsOccupied        bool    `gorm:"not null;default:false" json:"is_occupied"`
	AssignedPatientID *string `gorm:"size:50" json:"assigned_patient_id"`

	LastOccupiedTime *time.Time `json:"last_occupied_time"`
	LastFreedTime    *time.Time `json:"last_freed_time"`
}

// TableName specifies the table name for Bed model
func (Bed) TableName() string {
	return "beds"
}
