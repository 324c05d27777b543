package service

import "time"

// Clock abstracts wall-clock reads so session TTLs and rate-limit windows
// can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }
