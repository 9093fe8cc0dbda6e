package canvassync

import (
	"math"
	"time"
)

// Easing maps linear progress in [0, 1] to eased progress.
type Easing func(p float64) float64

func Linear(p float64) float64 {
	return p
}

func EaseInOutCubic(p float64) float64 {
	if p < 0.5 {
		return 4 * p * p * p
	}
	return 1 - math.Pow(-2*p+2, 3)/2
}

type tween struct {
	from  float64
	to    float64
	start time.Time
}

func (tw tween) at(now time.Time, d time.Duration, ease Easing) (value float64, done bool) {
	if d <= 0 {
		return tw.to, true
	}
	p := float64(now.Sub(tw.start)) / float64(d)
	if p >= 1 {
		return tw.to, true
	}
	if p < 0 {
		p = 0
	}
	return tw.from + (tw.to-tw.from)*ease(p), false
}

// shortestStart rewrites the current angle by a full turn when the target is
// more than half a turn away, so the animation takes the short way round.
func shortestStart(current, target float64) float64 {
	switch diff := target - current; {
	case diff > 180:
		return current + 360
	case diff < -180:
		return current - 360
	}
	return current
}
