// ABOUTME: Rolling mean/stddev strategies for baseline maintenance.
// ABOUTME: Windowed batch and online Welford behind one interface.
package stats

import (
	"math"
	"sort"
	"time"
)

// Rolling is a rolling mean/stddev accumulator. Both implementations
// must answer identically (within floating tolerance) over the same
// retained samples.
type Rolling interface {
	Add(ts time.Time, value float64)
	Stats() (mean, stddev float64, n int)
}

// Welford is an online accumulator using Welford's algorithm. It never
// drops samples, so it suits metrics whose raw history is not retained.
type Welford struct {
	n    int
	mean float64
	m2   float64
}

// NewWelford returns an empty online accumulator.
func NewWelford() *Welford { return &Welford{} }

// FromMoments reconstructs an accumulator from persisted moments so
// incremental updates can resume from a stored baseline row.
func FromMoments(mean, stddev float64, n int) *Welford {
	w := &Welford{n: n, mean: mean}
	if n > 1 {
		w.m2 = stddev * stddev * float64(n-1)
	}
	return w
}

// Add folds one value into the accumulator.
func (w *Welford) Add(_ time.Time, value float64) {
	w.n++
	delta := value - w.mean
	w.mean += delta / float64(w.n)
	w.m2 += delta * (value - w.mean)
}

// Stats returns the sample mean and stddev. Stddev is 0 until two
// samples exist.
func (w *Welford) Stats() (float64, float64, int) {
	if w.n == 0 {
		return 0, 0, 0
	}
	if w.n < 2 {
		return w.mean, 0, w.n
	}
	return w.mean, math.Sqrt(w.m2 / float64(w.n-1)), w.n
}

type sample struct {
	ts    time.Time
	value float64
}

// Window retains raw samples up to a count cap and age limit and
// recomputes statistics over the retained window on demand.
type Window struct {
	cap     int
	maxAge  time.Duration
	samples []sample
}

// NewWindow creates a windowed accumulator. cap <= 0 means no count
// cap; maxAge <= 0 means no age limit.
func NewWindow(cap int, maxAge time.Duration) *Window {
	return &Window{cap: cap, maxAge: maxAge}
}

// Add inserts a sample, keeping the window ordered by timestamp and
// trimming the oldest entries beyond the cap and age limit. Out-of-order
// arrival is tolerated; the retained window depends only on the set of
// samples, not insertion order.
func (w *Window) Add(ts time.Time, value float64) {
	i := sort.Search(len(w.samples), func(i int) bool {
		return w.samples[i].ts.After(ts)
	})
	w.samples = append(w.samples, sample{})
	copy(w.samples[i+1:], w.samples[i:])
	w.samples[i] = sample{ts: ts, value: value}

	if w.maxAge > 0 && len(w.samples) > 0 {
		cutoff := w.samples[len(w.samples)-1].ts.Add(-w.maxAge)
		keep := sort.Search(len(w.samples), func(i int) bool {
			return !w.samples[i].ts.Before(cutoff)
		})
		w.samples = w.samples[keep:]
	}
	if w.cap > 0 && len(w.samples) > w.cap {
		w.samples = w.samples[len(w.samples)-w.cap:]
	}
}

// Len returns the number of retained samples.
func (w *Window) Len() int { return len(w.samples) }

// Stats recomputes the sample mean and stddev over the retained window.
func (w *Window) Stats() (float64, float64, int) {
	n := len(w.samples)
	if n == 0 {
		return 0, 0, 0
	}
	var sum float64
	for _, s := range w.samples {
		sum += s.value
	}
	mean := sum / float64(n)
	if n < 2 {
		return mean, 0, n
	}
	var m2 float64
	for _, s := range w.samples {
		d := s.value - mean
		m2 += d * d
	}
	return mean, math.Sqrt(m2 / float64(n-1)), n
}

// Percentile returns the p-quantile (0..1) of the retained values using
// linear interpolation. Returns 0 for an empty window.
func (w *Window) Percentile(p float64) float64 {
	n := len(w.samples)
	if n == 0 {
		return 0
	}
	values := make([]float64, n)
	for i, s := range w.samples {
		values[i] = s.value
	}
	sort.Float64s(values)
	if n == 1 {
		return values[0]
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return values[lo]
	}
	return values[lo] + (pos-float64(lo))*(values[hi]-values[lo])
}

// Pearson computes the Pearson correlation coefficient of two equal
// length series, clamped to [-1, 1]. It returns ok=false when fewer
// than two pairs exist or either series has zero variance.
func Pearson(xs, ys []float64) (r float64, ok bool) {
	n := len(xs)
	if n != len(ys) || n < 2 {
		return 0, false
	}
	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0, false
	}
	r = cov / math.Sqrt(varX*varY)
	return math.Max(-1, math.Min(1, r)), true
}
