package ticker

import "time"

// Creator hands out periodic tick channels together with the function that
// stops them.
type Creator interface {
	Create(d time.Duration) (<-chan time.Time, func())
}

type Real struct{}

func (Real) Create(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}
