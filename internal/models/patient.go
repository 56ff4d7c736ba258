package models

import "time"

// Patient status lifecycle: WAITING -> IN_ICU -> DISCHARGED.
// Patients admitted without a bed stay WAITING until discharged.
const (
	StatusWaiting    = "WAITING"
	StatusInICU      = "IN_ICU"
	StatusDischarged = "DISCHARGED"
)

// Severity bounds: 1 = most critical, 10 = most stable.
const (
	SeverityMin = 1
	SeverityMax = 10
)

// Patient represents the patients table. Discharged patients are kept
// for audit and search; rows are never deleted.
type Patient struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	PatientID string `gorm:"size:50;uniqueIndex;not null" json:"patient_id"`
	Name      string `gorm:"size:100;not null" json:"name"`
	Age       int    `gorm:"not null" json:"age"`

	SeverityLevel int    `gorm:"not null" json:"severity_level"`
	MedicalNotes  string `gorm:"type:text" json:"medical_notes,omitempty"`

	Status           string  `gorm:"size:20;not null;default:'WAITING'" json:"status"`
	RequestedBedType string  `gorm:"size:50" json:"requested_bed_type,omitempty"`
	AssignedBedID    *int    `json:"assigned_bed_id"`
	AssignedDoctorID *int    `json:"assigned_doctor_id"`

	ArrivalTime    time.Time  `gorm:"not null" json:"arrival_time"`
	AssignmentTime *time.Time `json:"assignment_time"`
	DischargeTime  *time.Time `json:"discharge_time"`
}

// TableName specifies the table name for Patient model
func (Patient) TableName() string {
	return "patients"
}
