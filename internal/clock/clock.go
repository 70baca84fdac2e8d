// Package clock - источник времени и одноразовых таймеров для трекера.
// В проде работает поверх time.AfterFunc, в тестах подменяется на Fake.
package clock

import "time"

type Timer interface {
	// Stop отменяет таймер. false - таймер уже сработал или был остановлен.
	Stop() bool
}

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func Real() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
