package collector

// RotationState tracks completed download attempts against the rotation
// interval. The counter advances on every attempt, success or failure, so
// the rotation cadence stays predictable even when a run of links fails.
// It is owned by the download loop and never touched concurrently.
type RotationState struct {
	interval  int
	counter   int
	rotations int
}

// NewRotationState returns a state with the given interval; an interval
// below one disables rotation entirely.
func NewRotationState(interval int) *RotationState {
	return &RotationState{interval: interval}
}

// Advance records one completed attempt and reports whether a rotation is
// now due. When it is, the counter resets.
func (rs *RotationState) Advance() bool {
	if rs.interval < 1 {
		return false
	}
	rs.counter++
	if rs.counter >= rs.interval {
		rs.counter = 0
		rs.rotations++
		return true
	}
	return false
}

// Rotations returns how many rotations have been triggered this run.
func (rs *RotationState) Rotations() int {
	return rs.rotations
}
