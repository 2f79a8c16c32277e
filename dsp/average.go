package dsp

import "fmt"

// MovingAverage is a running mean over a fixed window of samples.
type MovingAverage struct {
	ring  []float64
	pos   int
	sum   float64
	scale float64
}

// NewMovingAverage returns a moving average over length samples.
func NewMovingAverage(length int) *MovingAverage {
	if length < 1 {
		panic(fmt.Errorf("moving average: invalid length: %d", length))
	}

	return &MovingAverage{
		ring:  make([]float64, length),
		scale: 1 / float64(length),
	}
}

// Len returns the window length.
func (ma *MovingAverage) Len() int {
	return len(ma.ring)
}

// Next pushes x into the window and returns the current mean.
func (ma *MovingAverage) Next(x float64) float64 {
	ma.sum += x - ma.ring[ma.pos]
	ma.ring[ma.pos] = x

	ma.pos++
	if ma.pos == len(ma.ring) {
		ma.pos = 0

		// Recompute the sum once per lap so rounding error can't accumulate.
		ma.sum = 0
		for _, v := range ma.ring {
			ma.sum += v
		}
	}

	return ma.sum * ma.scale
}

// Delay is a fixed-length delay line.
type Delay[T Sample] struct {
	ring []T
	pos  int
}

// NewDelay returns a delay line of length samples, initially filled with
// zeros. A length of zero passes samples through unchanged.
func NewDelay[T Sample](length int) *Delay[T] {
	if length < 0 {
		panic(fmt.Errorf("delay: invalid length: %d", length))
	}
	return &Delay[T]{ring: make([]T, length)}
}

// Len returns the delay in samples.
func (d *Delay[T]) Len() int {
	return len(d.ring)
}

// Next pushes x and returns the sample from length samples ago.
func (d *Delay[T]) Next(x T) T {
	if len(d.ring) == 0 {
		return x
	}

	y := d.ring[d.pos]
	d.ring[d.pos] = x

	d.pos++
	if d.pos == len(d.ring) {
		d.pos = 0
	}

	return y
}
