package engine

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"icu-backend-bed-allocation/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerIDsAreGapless(t *testing.T) {
	l := NewLedger()
	for i := 0; i < 5; i++ {
		l.Append("P001", 0, 1, 3, 10, models.ReasonAutomatic)
	}

	records := l.Records()
	require.Len(t, records, 5)
	for i, r := range records {
		assert.Equal(t, i+1, r.RecordID)
	}
	assert.Equal(t, 5, l.Count())
}

func TestLedgerRestoreResumesNumbering(t *testing.T) {
	l := NewLedger()
	l.Restore([]*models.AllocationRecord{
		{RecordID: 1, PatientID: "P001"},
		{RecordID: 2, PatientID: "P002"},
		{RecordID: 7, PatientID: "P003"},
	})

	r := l.Append("P004", 0, 1, 2, 9, models.ReasonAutomatic)
	assert.Equal(t, 8, r.RecordID)
	assert.Equal(t, 4, l.Count())
}

func TestLedgerQueryByPatient(t *testing.T) {
	l := NewLedger()
	l.Append("P001", 0, 1, 3, 10, models.ReasonAutomatic)
	l.Append("P002", 1, 2, 5, 8, models.ReasonAutomatic)
	l.Append("P001", 2, 1, 3, 9, models.ReasonManualOverride)

	records := l.QueryByPatient("P001")
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0].RecordID)
	assert.Equal(t, 3, records[1].RecordID)

	assert.Empty(t, l.QueryByPatient("P999"))
}

func TestLedgerQueryByTimeRangeInclusive(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	current := base
	timeNow = func() time.Time {
		now := current
		current = current.Add(time.Hour)
		return now
	}
	defer func() { timeNow = time.Now }()

	l := NewLedger()
	l.Append("P001", 0, 1, 3, 10, models.ReasonAutomatic) // 08:00
	l.Append("P002", 1, 2, 5, 8, models.ReasonAutomatic)  // 09:00
	l.Append("P003", 2, 1, 2, 9, models.ReasonAutomatic)  // 10:00

	// Both boundaries are part of the range.
	records := l.QueryByTimeRange(base, base.Add(time.Hour))
	require.Len(t, records, 2)
	assert.Equal(t, "P001", records[0].PatientID)
	assert.Equal(t, "P002", records[1].PatientID)

	assert.Empty(t, l.QueryByTimeRange(base.Add(3*time.Hour), base.Add(4*time.Hour)))
}

func TestLedgerExportCSV(t *testing.T) {
	timeNow = func() time.Time {
		return time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	}
	defer func() { timeNow = time.Now }()

	l := NewLedger()
	l.Append("P001", 2, 4, 3, 7, models.ReasonAutomatic)

	var buf bytes.Buffer
	require.NoError(t, l.ExportCSV(&buf))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Allocation Log Report\n"))
	assert.Contains(t, out, "Generated:,2026-03-01 08:30:00")
	assert.Contains(t, out, "Record ID,Patient ID,Bed ID,Doctor ID,Patient Severity,Doctor Priority,Allocation Time,Reason")
	assert.Contains(t, out, "1,P001,2,4,3,7,2026-03-01 08:30:00,"+models.ReasonAutomatic)
}
