package ledger

import "time"

// =============================================================================
// CLOCK - Injectable time source
// =============================================================================

// Clock abstracts wall-clock reads so the past-due sweep and record
// timestamps are testable. The core never calls time.Now directly.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the real UTC clock.
func SystemClock() Clock { return systemClock{} }
