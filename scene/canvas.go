package scene

import "math"

const (
	// ScaleFactor is the fixed multiplier applied to normalized scales so they
	// travel as integers.
	ScaleFactor = 100000
	AspectRatio = 0.75
)

// Canvas converts between pixel values of one canvas and the width independent
// values exchanged between peers.
type Canvas struct {
	Width float64
}

func (c Canvas) width() float64 {
	if c.Width == 0 {
		return 1
	}
	return c.Width
}

func (c Canvas) Height() float64 {
	return c.width() * AspectRatio
}

func (c Canvas) Center() (left, top float64) {
	return c.width() / 2, c.Height() / 2
}

func (c Canvas) NormalizeLeft(px float64) float64 {
	return px / c.width()
}

func (c Canvas) NormalizeTop(px float64) float64 {
	return px / c.Height()
}

func (c Canvas) NormalizeScale(scale float64) int64 {
	return int64(math.Round(scale / c.width() * ScaleFactor))
}

func (c Canvas) DenormalizeLeft(v float64) float64 {
	return v * c.width()
}

func (c Canvas) DenormalizeTop(v float64) float64 {
	return v * c.Height()
}

func (c Canvas) DenormalizeScale(v int64) float64 {
	return float64(v) * c.width() / ScaleFactor
}
