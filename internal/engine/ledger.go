package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"icu-backend-bed-allocation/internal/models"
)

// Ledger is the append-only allocation audit trail. Record ids are
// strictly increasing with no gaps; records are never mutated or
// deleted.
type Ledger struct {
	records []*models.AllocationRecord
	nextID  int
}

func NewLedger() *Ledger {
	return &Ledger{nextID: 1}
}

// Restore seeds the ledger from persisted records, expected in record
// id order, and resumes numbering after the highest id seen.
func (l *Ledger) Restore(records []*models.AllocationRecord) {
	l.records = append(l.records[:0], records...)
	for _, r := range records {
		if r.RecordID >= l.nextID {
			l.nextID = r.RecordID + 1
		}
	}
}

// Append creates and stores the next allocation record, snapshotting
// severity and doctor priority at decision time.
func (l *Ledger) Append(patientID string, bedID, doctorID, severity, doctorPriority int, reason string) *models.AllocationRecord {
	record := &models.AllocationRecord{
		RecordID:            l.nextID,
		PatientID:           patientID,
		BedID:               bedID,
		DoctorID:            doctorID,
		PatientSeverity:     severity,
		DoctorPriorityScore: doctorPriority,
		AllocationTime:      timeNow(),
		DecisionReason:      reason,
	}
	l.records = append(l.records, record)
	l.nextID++
	return record
}

// QueryByPatient returns all records for the given patient, oldest
// first. Linear scan; audit-scale volumes make that acceptable.
func (l *Ledger) QueryByPatient(patientID string) []*models.AllocationRecord {
	var out []*models.AllocationRecord
	for _, r := range l.records {
		if r.PatientID == patientID {
			out = append(out, r)
		}
	}
	return out
}

// QueryByTimeRange returns records with allocation time in
// [start, end], inclusive on both ends.
func (l *Ledger) QueryByTimeRange(start, end time.Time) []*models.AllocationRecord {
	var out []*models.AllocationRecord
	for _, r := range l.records {
		if !r.AllocationTime.Before(start) && !r.AllocationTime.After(end) {
			out = append(out, r)
		}
	}
	return out
}

// Count returns the total number of records.
func (l *Ledger) Count() int {
	return len(l.records)
}

// Records returns all records in append order.
func (l *Ledger) Records() []*models.AllocationRecord {
	out := make([]*models.AllocationRecord, len(l.records))
	copy(out, l.records)
	return out
}

// ExportCSV writes the full ledger as a CSV report.
func (l *Ledger) ExportCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	rows := [][]string{
		{"Allocation Log Report"},
		{"Generated:", timeNow().Format("2006-01-02 15:04:05")},
		{},
		{"Record ID", "Patient ID", "Bed ID", "Doctor ID", "Patient Severity", "Doctor Priority", "Allocation Time", "Reason"},
	}
	for _, r := range l.records {
		rows = append(rows, []string{
			fmt.Sprintf("%d", r.RecordID),
			r.PatientID,
			fmt.Sprintf("%d", r.BedID),
			fmt.Sprintf("%d", r.DoctorID),
			fmt.Sprintf("%d", r.PatientSeverity),
			fmt.Sprintf("%d", r.DoctorPriorityScore),
			r.AllocationTime.Format("2006-01-02 15:04:05"),
			r.DecisionReason,
		})
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write allocation log: %w", err)
	}
	return nil
}
