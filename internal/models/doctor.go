package models

import "time"

// Doctor specializations.
const (
	SpecGeneral   = "GENERAL"
	SpecCardiac   = "CARDIAC"
	SpecNeuro     = "NEURO"
	SpecPulmonary = "PULMONARY"
)

// Specializations lists all valid doctor specializations.
var Specializations = []string{SpecGeneral, SpecCardiac, SpecNeuro, SpecPulmonary}

// ValidSpecialization reports whether s is a known specialization.
func ValidSpecialization(s string) bool {
	for _, sp := range Specializations {
		if s == sp {
			return true
		}
	}
	return false
}

// Doctor represents the doctors table. Doctors may be added at runtime
// but are never removed. AssignedPatients is engine state, derived from
// patients' assigned_doctor_id on load, and is not a column of its own.
type Doctor struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	DoctorID int    `gorm:"uniqueIndex;not null" json:"doctor_id"`
	Name     string `gorm:"size:100;not null" json:"name"`

	ExperienceYears int    `gorm:"not null" json:"experience_years"`
	Specialization  string `gorm:"size:50;not null;default:'GENERAL'" json:"specialization"`

	MaxCapacity     int  `gorm:"not null;default:5" json:"max_capacity"`
	CurrentWorkload int  `gorm:"not null;default:0" json:"current_workload"`
	IsAvailable     bool `gorm:"not null;default:true" json:"is_available"`

	AssignedPatients []string `gorm:"-" json:"assigned_patients,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP" json:"updated_at"`
}

// Priority is the heap key: more experienced and less loaded doctors
// are preferred. It changes whenever workload changes.
func (d *Doctor) Priority() int {
	return d.ExperienceYears - d.CurrentWorkload
}

// TableName specifies the table name for Doctor model
func (Doctor) TableName() string {
	return "doctors"
}
