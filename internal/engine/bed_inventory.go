package engine

import (
	"icu-backend-bed-allocation/internal/models"
)

// BedInventory is a fixed-size collection of typed bed slots. Bed ids
// are the slot indexes (0..N-1), fixed at construction; only occupancy
// fields ever change.
type BedInventory struct {
	beds []*models.Bed
}

// NewBedInventory builds the inventory from loaded bed rows. Slots are
// placed by bed id, so the free-bed scan stays deterministic (lowest id
// wins) regardless of load order.
func NewBedInventory(beds []*models.Bed) *BedInventory {
	maxID := -1
	for _, b := range beds {
		if b.BedID > maxID {
			maxID = b.BedID
		}
	}
	inv := &BedInventory{beds: make([]*models.Bed, maxID+1)}
	for _, b := range beds {
		inv.beds[b.BedID] = b
	}
	return inv
}

// FindFree returns the lowest-indexed free bed matching bedType, or
// any type when bedType is empty. The linear scan is fine at this
// scale (tens of beds).
func (inv *BedInventory) FindFree(bedType string) (int, bool) {
	for _, bed := range inv.beds {
		if bed == nil || bed.IsOccupied {
			continue
		}
		if bedType == "" || bed.BedType == bedType {
			return bed.BedID, true
		}
	}
	return 0, false
}

// Allocate marks a bed occupied by a patient. It fails if the id is out
// of range or the bed is already occupied; the caller must pick another
// candidate rather than retry.
func (inv *BedInventory) Allocate(bedID int, patientID string) bool {
	bed := inv.Get(bedID)
	if bed == nil || bed.IsOccupied {
		return false
	}
	now := timeNow()
	bed.IsOccupied = true
	bed.AssignedPatientID = &patientID
	bed.LastOccupiedTime = &now
	return true
}

// Release frees a bed. It fails only on an out-of-range id; releasing
// an already-free bed is a no-op success (idempotent).
func (inv *BedInventory) Release(bedID int) bool {
	bed := inv.Get(bedID)
	if bed == nil {
		return false
	}
	now := timeNow()
	bed.IsOccupied = false
	bed.AssignedPatientID = nil
	bed.LastFreedTime = &now
	return true
}

// Get returns the bed with the given id, or nil for out-of-range ids.
func (inv *BedInventory) Get(bedID int) *models.Bed {
	if bedID < 0 || bedID >= len(inv.beds) {
		return nil
	}
	return inv.beds[bedID]
}

// CountFree returns the number of unoccupied beds.
func (inv *BedInventory) CountFree() int {
	count := 0
	for _, bed := range inv.beds {
		if bed != nil && !bed.IsOccupied {
			count++
		}
	}
	return count
}

// Len returns the total number of beds.
func (inv *BedInventory) Len() int {
	n := 0
	for _, bed := range inv.beds {
		if bed != nil {
			n++
		}
	}
	return n
}

// Snapshot returns all beds in id order.
func (inv *BedInventory) Snapshot() []*models.Bed {
	out := make([]*models.Bed, 0, len(inv.beds))
	for _, bed := range inv.beds {
		if bed != nil {
			out = append(out, bed)
		}
	}
	return out
}
