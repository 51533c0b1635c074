// Package clock abstracts time.Now so that components stamping samples can be
// tested with a fixed time.
package clock

import "time"

// Clock tells the time.
type Clock interface {
	Now() time.Time
}

// New returns a Clock backed by time.Now.
func New() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}
