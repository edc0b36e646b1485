// ABOUTME: Tests for rolling statistics strategies.
// ABOUTME: Verifies Welford/windowed equivalence and order independence.
package stats

import (
	"math"
	"math/rand"
	"testing"
	"time"
)

const tolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestWelfordMatchesWindowedBatch(t *testing.T) {
	values := []float64{62, 58, 71, 64.5, 60, 59, 80, 55.2, 66, 61}

	w := NewWelford()
	win := NewWindow(0, 0)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i, v := range values {
		ts := base.Add(time.Duration(i) * time.Minute)
		w.Add(ts, v)
		win.Add(ts, v)
	}

	m1, s1, n1 := w.Stats()
	m2, s2, n2 := win.Stats()

	if n1 != n2 {
		t.Fatalf("sample counts differ: %d vs %d", n1, n2)
	}
	if !almostEqual(m1, m2) {
		t.Errorf("means differ: %v vs %v", m1, m2)
	}
	if !almostEqual(s1, s2) {
		t.Errorf("stddevs differ: %v vs %v", s1, s2)
	}
}

func TestWelfordOrderIndependence(t *testing.T) {
	values := []float64{62, 58, 71, 64.5, 60, 59, 80, 55.2, 66, 61}
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	inOrder := NewWelford()
	for i, v := range values {
		inOrder.Add(base.Add(time.Duration(i)*time.Minute), v)
	}
	wantMean, wantStd, _ := inOrder.Stats()

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 5; trial++ {
		perm := rng.Perm(len(values))
		shuffled := NewWelford()
		for _, i := range perm {
			shuffled.Add(base.Add(time.Duration(i)*time.Minute), values[i])
		}
		gotMean, gotStd, _ := shuffled.Stats()
		if math.Abs(gotMean-wantMean) > 1e-9 || math.Abs(gotStd-wantStd) > 1e-9 {
			t.Errorf("permutation %v changed stats: got (%v, %v), want (%v, %v)",
				perm, gotMean, gotStd, wantMean, wantStd)
		}
	}
}

func TestWindowOrderIndependence(t *testing.T) {
	values := []float64{70, 65, 90, 58, 61, 77}
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	ordered := NewWindow(4, 0)
	for i, v := range values {
		ordered.Add(base.Add(time.Duration(i)*time.Hour), v)
	}
	wantMean, wantStd, wantN := ordered.Stats()
	if wantN != 4 {
		t.Fatalf("expected cap trim to 4 samples, got %d", wantN)
	}

	perm := []int{3, 0, 5, 2, 1, 4}
	shuffled := NewWindow(4, 0)
	for _, i := range perm {
		shuffled.Add(base.Add(time.Duration(i)*time.Hour), values[i])
	}
	gotMean, gotStd, gotN := shuffled.Stats()
	if gotN != wantN || !almostEqual(gotMean, wantMean) || !almostEqual(gotStd, wantStd) {
		t.Errorf("out-of-order arrival changed window stats: got (%v, %v, %d), want (%v, %v, %d)",
			gotMean, gotStd, gotN, wantMean, wantStd, wantN)
	}
}

func TestWindowAgeTrim(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	win := NewWindow(0, 48*time.Hour)

	win.Add(base, 100)                  // falls outside once newer samples arrive
	win.Add(base.Add(72*time.Hour), 60) // newest
	win.Add(base.Add(30*time.Hour), 62) // within 48h of newest

	mean, _, n := win.Stats()
	if n != 2 {
		t.Fatalf("expected age trim to 2 samples, got %d", n)
	}
	if !almostEqual(mean, 61) {
		t.Errorf("mean = %v, want 61", mean)
	}
}

func TestWelfordFromMoments(t *testing.T) {
	values := []float64{60, 62, 58, 65, 61}
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	full := NewWelford()
	for i, v := range values {
		full.Add(base.Add(time.Duration(i)*time.Minute), v)
	}

	// Resume from moments after the first three samples.
	head := NewWelford()
	for i := 0; i < 3; i++ {
		head.Add(base.Add(time.Duration(i)*time.Minute), values[i])
	}
	mean, std, n := head.Stats()
	resumed := FromMoments(mean, std, n)
	for i := 3; i < len(values); i++ {
		resumed.Add(base.Add(time.Duration(i)*time.Minute), values[i])
	}

	wantMean, wantStd, wantN := full.Stats()
	gotMean, gotStd, gotN := resumed.Stats()
	if gotN != wantN {
		t.Fatalf("n = %d, want %d", gotN, wantN)
	}
	if math.Abs(gotMean-wantMean) > 1e-9 || math.Abs(gotStd-wantStd) > 1e-9 {
		t.Errorf("resumed stats (%v, %v) differ from full (%v, %v)",
			gotMean, gotStd, wantMean, wantStd)
	}
}

func TestWindowPercentile(t *testing.T) {
	win := NewWindow(0, 0)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range []float64{50, 60, 70, 80, 90} {
		win.Add(base.Add(time.Duration(i)*time.Minute), v)
	}

	if got := win.Percentile(0.25); !almostEqual(got, 60) {
		t.Errorf("p25 = %v, want 60", got)
	}
	if got := win.Percentile(0.5); !almostEqual(got, 70) {
		t.Errorf("p50 = %v, want 70", got)
	}
}

func TestPearson(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	ys := []float64{2, 4, 6, 8, 10}
	r, ok := Pearson(xs, ys)
	if !ok || !almostEqual(r, 1) {
		t.Errorf("perfect positive correlation: r=%v ok=%v", r, ok)
	}

	inverted := []float64{10, 8, 6, 4, 2}
	r, ok = Pearson(xs, inverted)
	if !ok || !almostEqual(r, -1) {
		t.Errorf("perfect negative correlation: r=%v ok=%v", r, ok)
	}

	flat := []float64{3, 3, 3, 3, 3}
	if _, ok := Pearson(xs, flat); ok {
		t.Error("zero-variance series should not produce a coefficient")
	}

	if _, ok := Pearson([]float64{1}, []float64{2}); ok {
		t.Error("single pair should not produce a coefficient")
	}
}
