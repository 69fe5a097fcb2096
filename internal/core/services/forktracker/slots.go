package forktracker

// slotAllocator hands out load slot indices, reusing freed ones before
// growing.
type slotAllocator struct {
	used []bool
}

// Acquire returns the lowest free index, extending by one when none is free.
func (a *slotAllocator) Acquire() int {
	for i, used := range a.used {
		if !used {
			a.used[i] = true
			return i
		}
	}
	a.used = append(a.used, true)
	return len(a.used) - 1
}

// Release frees index i. Releasing a free or unknown index is a no-op.
func (a *slotAllocator) Release(i int) {
	if i < 0 || i >= len(a.used) {
		return
	}
	a.used[i] = false
}

func (a *slotAllocator) Len() int {
	return len(a.used)
}
