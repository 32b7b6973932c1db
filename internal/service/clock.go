package service

import "time"

// Clock abstracts "now" so date-dependent conflict and extension scenarios
// are deterministic in tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func NewClock() Clock { return realClock{} }

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

// NewFixedClock returns a clock frozen at t.
func NewFixedClock(t time.Time) Clock { return fixedClock{t: t} }
