package engine

import (
	"icu-backend-bed-allocation/internal/models"
)

// DoctorHeap is a binary max-heap of doctors keyed by the dynamic
// priority experience - workload. A doctor id to array index map is
// kept consistent on every swap so workload updates are O(log n).
// Equal priorities break toward the lower doctor id, which keeps heap
// order reproducible.
type DoctorHeap struct {
	heap  []*models.Doctor
	index map[int]int
}

func NewDoctorHeap() *DoctorHeap {
	return &DoctorHeap{index: make(map[int]int)}
}

// outranks reports whether doctor a takes precedence over doctor b.
func outranks(a, b *models.Doctor) bool {
	pa, pb := a.Priority(), b.Priority()
	if pa != pb {
		return pa > pb
	}
	return a.DoctorID < b.DoctorID
}

// Insert appends the doctor and sifts it up. It fails on a duplicate
// doctor id.
func (h *DoctorHeap) Insert(d *models.Doctor) bool {
	if _, exists := h.index[d.DoctorID]; exists {
		return false
	}
	h.heap = append(h.heap, d)
	h.index[d.DoctorID] = len(h.heap) - 1
	h.siftUp(len(h.heap) - 1)
	return true
}

// PeekMax returns the highest-priority doctor without removing it, or
// nil on an empty heap.
func (h *DoctorHeap) PeekMax() *models.Doctor {
	if len(h.heap) == 0 {
		return nil
	}
	return h.heap[0]
}

// ExtractMax removes and returns the highest-priority doctor, or nil
// on an empty heap. The last element is promoted to the root and
// sifted down.
func (h *DoctorHeap) ExtractMax() *models.Doctor {
	if len(h.heap) == 0 {
		return nil
	}
	top := h.heap[0]
	last := h.heap[len(h.heap)-1]
	h.heap = h.heap[:len(h.heap)-1]
	if len(h.heap) > 0 {
		h.heap[0] = last
		h.index[last.DoctorID] = 0
		h.siftDown(0)
	}
	delete(h.index, top.DoctorID)
	return top
}

// UpdateWorkload sets the doctor's workload and restores heap order.
// The re-sift direction follows the sign of the priority change: a
// workload decrease raises priority and sifts up, an increase lowers
// priority and sifts down.
func (h *DoctorHeap) UpdateWorkload(doctorID, newWorkload int) bool {
	i, ok := h.index[doctorID]
	if !ok {
		return false
	}
	d := h.heap[i]
	oldPriority := d.Priority()
	d.CurrentWorkload = newWorkload
	switch {
	case d.Priority() > oldPriority:
		h.siftUp(i)
	case d.Priority() < oldPriority:
		h.siftDown(i)
	}
	return true
}

// BestAvailable returns the on-duty doctor with spare capacity whose
// priority is highest, ties to the lower doctor id. The heap root can
// be at capacity while a deeper doctor still has room, so this scans
// the whole array; n is small.
func (h *DoctorHeap) BestAvailable() *models.Doctor {
	var best *models.Doctor
	for _, d := range h.heap {
		if !d.IsAvailable || d.CurrentWorkload >= d.MaxCapacity {
			continue
		}
		if best == nil || outranks(d, best) {
			best = d
		}
	}
	return best
}

// Get returns the doctor with the given id, or nil if unknown.
func (h *DoctorHeap) Get(doctorID int) *models.Doctor {
	i, ok := h.index[doctorID]
	if !ok {
		return nil
	}
	return h.heap[i]
}

// Len returns the number of doctors in the heap.
func (h *DoctorHeap) Len() int {
	return len(h.heap)
}

// Doctors returns the heap array in storage order.
func (h *DoctorHeap) Doctors() []*models.Doctor {
	out := make([]*models.Doctor, len(h.heap))
	copy(out, h.heap)
	return out
}

func (h *DoctorHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !outranks(h.heap[i], h.heap[parent]) {
			break
		}
		h.swap(i, parent)
		i = parent
	}
}

func (h *DoctorHeap) siftDown(i int) {
	for {
		left := 2*i + 1
		if left >= len(h.heap) {
			break
		}
		largest := i
		if outranks(h.heap[left], h.heap[largest]) {
			largest = left
		}
		if right := left + 1; right < len(h.heap) && outranks(h.heap[right], h.heap[largest]) {
			largest = right
		}
		if largest == i {
			break
		}
		h.swap(i, largest)
		i = largest
	}
}

// swap exchanges two heap slots and fixes both index map entries.
func (h *DoctorHeap) swap(i, j int) {
	h.heap[i], h.heap[j] = h.heap[j], h.heap[i]
	h.index[h.heap[i].DoctorID] = i
	h.index[h.heap[j].DoctorID] = j
}
