package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Provider is the package wide clock used by constructors which do not
// get a clock injected.
var Provider Clock = NewRealClock()

type Clock interface {
	clockwork.Clock
}

type FakeClock interface {
	clockwork.FakeClock
}

func NewRealClock() Clock {
	return realClock{}
}

func NewFakeClock() FakeClock {
	return clockwork.NewFakeClock()
}

func NewFakeClockAt(t time.Time) FakeClock {
	return clockwork.NewFakeClockAt(t)
}

type realClock struct{}

func (c realClock) After(d time.Duration) <-chan time.Time {
	if shouldUseUTC() {
		c := time.After(d)
		// use a small buffered channel so our go routine can
		// terminate as soon as the timeout expires even if there
		// is no one receiving the time (anymore)
		utcChan := make(chan time.Time, 1)

		go func() {
			t := <-c
			utcChan <- t.UTC()
		}()

		return utcChan
	}

	return time.After(d)
}

func (c realClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

func (c realClock) Now() time.Time {
	if shouldUseUTC() {
		return time.Now().UTC()
	}

	return time.Now()
}

func (c realClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

func (c realClock) NewTicker(d time.Duration) clockwork.Ticker {
	return clockwork.NewRealClock().NewTicker(d)
}

func (c realClock) NewTimer(d time.Duration) clockwork.Timer {
	return clockwork.NewRealClock().NewTimer(d)
}

func (c realClock) AfterFunc(d time.Duration, f func()) clockwork.Timer {
	return clockwork.NewRealClock().AfterFunc(d, f)
}
