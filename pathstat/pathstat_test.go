package pathstat

import (
	"encoding/json"
	"math"
	"testing"

	tracks "github.com/yosefm/gotracks"
	"github.com/yosefm/gotracks/v3"
)

//accelTraj is a path along the x axis through the given coordinates, one
//per unit of time.
func accelTraj(t *testing.T, xs ...float64) *tracks.Trajectory {
	t.Helper()
	pos := v3.Zeros(len(xs))
	time := make([]float64, len(xs))
	for i, x := range xs {
		pos.Set(i, 0, x)
		time[i] = float64(i)
	}
	trj, err := tracks.NewTrajectory(pos, nil, time, 0)
	if err != nil {
		t.Fatal(err)
	}
	return trj
}

func TestSpeedSeries(t *testing.T) {
	trj := accelTraj(t, 0, 1, 3, 6)
	speeds := SpeedSeries(trj, 1.0)
	want := []float64{1, 2, 3}
	if len(speeds) != len(want) {
		t.Fatalf("expected %d speed samples, got %d", len(want), len(speeds))
	}
	for i, v := range want {
		if math.Abs(speeds[i]-v) > 1e-12 {
			t.Errorf("speed %d: expected %v, got %v", i, v, speeds[i])
		}
	}
	//the frame rate scales derived speeds
	speeds = SpeedSeries(trj, 100.0)
	if math.Abs(speeds[0]-100.0) > 1e-9 {
		t.Errorf("expected frame-rate-scaled speed 100, got %v", speeds[0])
	}
}

func TestVelocityMagnitudes(t *testing.T) {
	trjs := []*tracks.Trajectory{
		accelTraj(t, 0, 1, 3),
		accelTraj(t, 0, 4),
	}
	pool := VelocityMagnitudes(trjs, 1.0)
	want := []float64{1, 2, 4}
	if len(pool) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(pool))
	}
	for i, v := range want {
		if math.Abs(pool[i]-v) > 1e-12 {
			t.Errorf("sample %d: expected %v, got %v", i, v, pool[i])
		}
	}
}

func TestAutoCorr(t *testing.T) {
	c := []float64{1, 2, 1, 3, 0, 2, 1, 4}
	ac := AutoCorr(c)
	if len(ac) != 2*len(c) {
		t.Fatalf("expected %d lags, got %d", 2*len(c), len(ac))
	}
	//with the sample standard deviation in the normalization the
	//zero-lag value is (n-1)/n
	want := float64(len(c)-1) / float64(len(c))
	if math.Abs(ac[0]-want) > 1e-9 {
		t.Errorf("expected zero-lag autocorrelation %v, got %v", want, ac[0])
	}
	for i := 1; i < len(c); i++ {
		if math.Abs(ac[i]) >= ac[0] {
			t.Errorf("lag %d correlation %v not below the zero-lag value %v", i, ac[i], ac[0])
		}
	}
}

//A particle drifting at constant speed has no speed variance to
//correlate; the answer is zeros, not NaN.
func TestAutoCorrConstant(t *testing.T) {
	ac := AutoCorr([]float64{2, 2, 2, 2})
	if len(ac) != 8 {
		t.Fatalf("expected 8 lags, got %d", len(ac))
	}
	for i, v := range ac {
		if v != 0 {
			t.Errorf("lag %d of a constant series: expected 0, got %v", i, v)
		}
	}
	ac = SpeedAutoCorr(accelTraj(t, 0, 1, 2, 3, 4), 1.0)
	for i, v := range ac {
		if math.IsNaN(v) {
			t.Errorf("lag %d of a uniform-speed trajectory is NaN", i)
		}
	}
}

func TestSpeedAutoCorr(t *testing.T) {
	trj := accelTraj(t, 0, 1, 3, 6, 10)
	ac := SpeedAutoCorr(trj, 1.0)
	if ac == nil {
		t.Fatal("expected an autocorrelation series, got nil")
	}
	if len(ac) != 8 { //4 speed samples, all lags
		t.Errorf("expected 8 lags, got %d", len(ac))
	}
	if SpeedAutoCorr(accelTraj(t, 0, 1), 1.0) != nil {
		t.Error("a single speed sample should not produce an autocorrelation")
	}
}

func TestSpeedHistogram(t *testing.T) {
	h, err := SpeedHistogram([]float64{1, 2, 3}, 2)
	if err != nil {
		t.Fatal(err)
	}
	counts := h.Counts()
	if counts[0] != 1 || counts[1] != 2 {
		t.Errorf("expected counts [1 2], got %v", counts)
	}
	divs := h.Dividers()
	if len(divs) != 3 || divs[0] != 1 {
		t.Errorf("unexpected dividers %v", divs)
	}
	//the maximum sample must land in the last bin, not fall off the top
	h, err = SpeedHistogram([]float64{5, 5, 5}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if h.Counts()[0] != 3 {
		t.Errorf("identical samples should all land in the first bin, got %v", h.Counts())
	}
}

func TestHistogramAdd(t *testing.T) {
	h, err := NewHistogram([]float64{0, 1, 2})
	if err != nil {
		t.Fatal(err)
	}
	h.Add(0.5, 1.5, 1.6, -3, 7) //out-of-range samples are dropped
	counts := h.Counts()
	if counts[0] != 1 || counts[1] != 2 {
		t.Errorf("expected counts [1 2], got %v", counts)
	}
	if _, err := NewHistogram([]float64{1}); err == nil {
		t.Error("expected an error for too few dividers")
	}
	if _, err := NewHistogram([]float64{2, 1}); err == nil {
		t.Error("expected an error for unsorted dividers")
	}
}

func TestHistogramJSON(t *testing.T) {
	h, err := SpeedHistogram([]float64{1, 2, 3, 4}, 2)
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(h)
	if err != nil {
		t.Fatal(err)
	}
	back := new(Histogram)
	if err := json.Unmarshal(b, back); err != nil {
		t.Fatal(err)
	}
	if back.String() != h.String() {
		t.Errorf("histogram changed over JSON round trip: %v vs %v", back, h)
	}
}
