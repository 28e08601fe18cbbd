// Package domain models a synthetic wind-speed trace with storm and
// microburst overlays.
//
// # Time Grid
//
// A run samples the interval [0, duration] at a fixed step. Grid point i sits
// at i*step, and the last point is the largest multiple of step that does not
// exceed duration by more than [Epsilon]:
//
//	duration=10, step=5   →  0, 5, 10          (3 points)
//	duration=10, step=3   →  0, 3, 6, 9        (4 points)
//	duration=0.3, step=0.1 → 0, 0.1, 0.2, 0.3  (4 points, drift absorbed)
//
// Times are computed by multiplication rather than repeated addition so the
// point count never depends on accumulated rounding.
//
// # Series
//
// Three series are generated per run and all share the grid:
//
//	Wind:  baseSpeed + U(-1, 1) * gust at every point.
//	Storm: zero outside storm windows, U(minAmplitude, maxAmplitude) inside.
//	Burst: like Storm, but may only be active where the storm is nonzero.
//
// A value is "effectively zero" when its magnitude does not exceed [Epsilon].
// The same tolerance is used for every zero test and every grid-boundary test.
//
// # Trace
//
// The merged [Trace] holds one [TracePoint] per grid point with the summed
// speed and a flag telling whether a storm is present. Merging series of
// different lengths is a programming error reported as [*AlignmentError].
package domain
