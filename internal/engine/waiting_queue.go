package engine

import (
	"sort"

	"icu-backend-bed-allocation/internal/models"
)

// WaitingQueue holds patients awaiting a bed, ordered by ascending
// severity (most critical first) with FIFO order among equal
// severities. Entries are removed on successful allocation or explicit
// dequeue.
type WaitingQueue struct {
	entries []*models.WaitingEntry
}

func NewWaitingQueue() *WaitingQueue {
	return &WaitingQueue{}
}

// Enqueue inserts the entry at its severity-ordered position. An entry
// with the same severity as existing ones goes after them, which is
// what preserves FIFO order; re-inserting an entry with its original
// enqueue time restores its exact previous position.
func (q *WaitingQueue) Enqueue(entry *models.WaitingEntry) {
	i := sort.Search(len(q.entries), func(i int) bool {
		e := q.entries[i]
		if e.SeveritySnapshot != entry.SeveritySnapshot {
			return e.SeveritySnapshot > entry.SeveritySnapshot
		}
		return e.EnqueueTime.After(entry.EnqueueTime)
	})
	q.entries = append(q.entries, nil)
	copy(q.entries[i+1:], q.entries[i:])
	q.entries[i] = entry
}

// PeekHighest returns the most critical entry without removing it, or
// nil when the queue is empty.
func (q *WaitingQueue) PeekHighest() *models.WaitingEntry {
	if len(q.entries) == 0 {
		return nil
	}
	return q.entries[0]
}

// DequeueHighest removes and returns the most critical entry, or nil
// when the queue is empty.
func (q *WaitingQueue) DequeueHighest() *models.WaitingEntry {
	if len(q.entries) == 0 {
		return nil
	}
	head := q.entries[0]
	q.entries = q.entries[1:]
	return head
}

// Remove drops the entry for the given patient, wherever it sits in
// the order. Used when a freed bed type matches a non-head entry.
func (q *WaitingQueue) Remove(patientID string) bool {
	for i, e := range q.entries {
		if e.PatientID == patientID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Position returns the 1-based queue position of the given patient.
func (q *WaitingQueue) Position(patientID string) (int, bool) {
	for i, e := range q.entries {
		if e.PatientID == patientID {
			return i + 1, true
		}
	}
	return 0, false
}

// Size returns the number of waiting entries.
func (q *WaitingQueue) Size() int {
	return len(q.entries)
}

// Ordered returns all entries in queue order.
func (q *WaitingQueue) Ordered() []*models.WaitingEntry {
	out := make([]*models.WaitingEntry, len(q.entries))
	copy(out, q.entries)
	return out
}
