// Package clock is the process-wide source of time; tests swap it for a mock.
package clock

import (
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

type Clock = clock.Clock
type Mock = clock.Mock
type Ticker = clock.Ticker

var globalClock atomic.Pointer[Clock]

func init() {
	Set(clock.New())
}

func Get() Clock {
	return *globalClock.Load()
}

// Set replaces the global clock and returns a function restoring the previous one.
func Set(clk Clock) func() {
	prev := globalClock.Swap(&clk)
	return func() {
		if prev != nil {
			globalClock.Store(prev)
		}
	}
}

func Now() time.Time {
	return Get().Now()
}

func NewMock() *Mock {
	return clock.NewMock()
}
