package application

import "time"

// Clock interface supaya gampang ditest
type Clock interface {
	Now() time.Time
}

// SystemClock implementasi default, pakai time.Now()
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// NowMillis returns the clock's time as unix milliseconds, the unit stored on records and turns.
func NowMillis(c Clock) int64 {
	if c == nil {
		c = SystemClock{}
	}
	return c.Now().UnixMilli()
}
