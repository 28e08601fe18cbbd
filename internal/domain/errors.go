package domain

import "fmt"

// AlignmentError reports series that do not share the same grid.
// Index is -1 for a length mismatch, otherwise the first point whose
// times disagree.
type AlignmentError struct {
	Wind  int
	Storm int
	Burst int
	Index int
}

func (e *AlignmentError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("series length mismatch: wind=%d storm=%d burst=%d", e.Wind, e.Storm, e.Burst)
	}
	return fmt.Sprintf("series time mismatch at index %d", e.Index)
}
