package pathstat

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//Histogram is a binned distribution of scalar samples. The dividers
//slice has one more element than there are bins; sample x falls in bin
//i when dividers[i] <= x < dividers[i+1].
type Histogram struct {
	dividers []float64
	counts   []float64
}

//NewHistogram returns an empty histogram with the given dividers, which
//must be sorted ascending and at least two.
func NewHistogram(dividers []float64) (*Histogram, error) {
	if len(dividers) < 2 {
		return nil, fmt.Errorf("gotracks/pathstat: a histogram needs at least 2 dividers, got %d", len(dividers))
	}
	if !sort.Float64sAreSorted(dividers) {
		return nil, fmt.Errorf("gotracks/pathstat: histogram dividers not sorted")
	}
	h := new(Histogram)
	h.dividers = make([]float64, len(dividers))
	copy(h.dividers, dividers)
	h.counts = make([]float64, len(dividers)-1)
	return h, nil
}

//SpeedHistogram bins the speed samples of a trajectory set into nbins
//equal-width bins spanning the sample range.
func SpeedHistogram(samples []float64, nbins int) (*Histogram, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("gotracks/pathstat: no samples to bin")
	}
	min := floats.Min(samples)
	max := floats.Max(samples)
	if min == max {
		max = min + 1 //all mass in the first bin, but a usable histogram
	}
	dividers := make([]float64, nbins+1)
	floats.Span(dividers, min, max)
	//the top divider is exclusive in gonum's convention; nudge it so the
	//maximum sample lands in the last bin.
	dividers[nbins] = math.Nextafter(max, max+1)
	h, err := NewHistogram(dividers)
	if err != nil {
		return nil, err
	}
	h.Add(samples...)
	return h, nil
}

//Add bins the given samples into the histogram. Samples outside the
//divider range are ignored.
func (H *Histogram) Add(samples ...float64) {
	s := make([]float64, 0, len(samples))
	for _, v := range samples {
		if v < H.dividers[0] || v >= H.dividers[len(H.dividers)-1] {
			continue
		}
		s = append(s, v)
	}
	sort.Float64s(s)
	add := make([]float64, len(H.counts))
	stat.Histogram(add, H.dividers, s, nil)
	floats.Add(H.counts, add)
}

//Counts returns a copy of the per-bin counts.
func (H *Histogram) Counts() []float64 {
	ret := make([]float64, len(H.counts))
	copy(ret, H.counts)
	return ret
}

//Dividers returns a copy of the bin dividers.
func (H *Histogram) Dividers() []float64 {
	ret := make([]float64, len(H.dividers))
	copy(ret, H.dividers)
	return ret
}

func (H *Histogram) String() string {
	t := make([]string, 0, len(H.counts))
	for i, c := range H.counts {
		t = append(t, fmt.Sprintf("[%g,%g): %g", H.dividers[i], H.dividers[i+1], c))
	}
	return strings.Join(t, " ")
}

func (H *Histogram) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Dividers []float64 `json:"dividers"`
		Counts   []float64 `json:"counts"`
	}{
		Dividers: H.dividers,
		Counts:   H.counts,
	})
}

func (H *Histogram) UnmarshalJSON(b []byte) error {
	var a struct {
		Dividers []float64 `json:"dividers"`
		Counts   []float64 `json:"counts"`
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	H.dividers = a.Dividers
	H.counts = a.Counts
	return nil
}
