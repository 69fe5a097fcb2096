package selector

// NotFound is returned when no position is eligible.
const NotFound = -1

// MinIndex returns the index of the smallest non-nil value in loads whose
// index is not in ignore. Ties go to the lowest index. It returns NotFound
// for empty input or when every value is nil or ignored.
func MinIndex(loads []*int, ignore map[int]struct{}) int {
	best := NotFound
	for i, load := range loads {
		if load == nil {
			continue
		}
		if _, skip := ignore[i]; skip {
			continue
		}
		if best == NotFound || *load < *loads[best] {
			best = i
		}
	}
	return best
}
