package tracks

import (
	"testing"

	v3 "github.com/yosefm/gotracks/v3"
)

func posTraj(Te *testing.T, id int, times []float64, pos [][3]float64) *Trajectory {
	data := make([]float64, 0, 3*len(pos))
	for _, p := range pos {
		data = append(data, p[0], p[1], p[2])
	}
	m, err := v3.NewMatrix(data)
	if err != nil {
		Te.Fatal(err)
	}
	t, err := NewTrajectory(m, nil, times, id)
	if err != nil {
		Te.Fatal(err)
	}
	return t
}

func TestCollectParticles(Te *testing.T) {
	trjs := []*Trajectory{
		posTraj(Te, 0, []float64{1, 2, 3}, [][3]float64{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}}),
		posTraj(Te, 1, []float64{2, 3}, [][3]float64{{5, 5, 5}, {6, 5, 5}}),
		posTraj(Te, 2, []float64{3, 4}, [][3]float64{{9, 9, 9}, {9, 9, 8}}),
	}
	got := CollectParticles(trjs, 2, 1.0)
	if len(got) != 2 {
		Te.Fatalf("Expected 2 particles in frame 2, got %d", len(got))
	}
	if got[0].TrajID != 0 || got[1].TrajID != 1 {
		Te.Errorf("Wrong trajectories collected: %d %d", got[0].TrajID, got[1].TrajID)
	}
	if got[0].Pos != [3]float64{1, 0, 0} {
		Te.Errorf("Wrong position for the first particle: %v", got[0].Pos)
	}
	if got[0].Vel != [3]float64{1, 0, 0} {
		Te.Errorf("Wrong velocity for the first particle: %v", got[0].Vel)
	}
	if got[0].Time != 2 {
		Te.Errorf("Wrong time: %v", got[0].Time)
	}
}

//Two trajectories occupying the same position in a frame represent one
//physical particle; only the first encountered is kept.
func TestCollectParticlesUnique(Te *testing.T) {
	trjs := []*Trajectory{
		posTraj(Te, 0, []float64{1, 2}, [][3]float64{{0, 0, 0}, {1, 0, 0}}),
		posTraj(Te, 1, []float64{1, 2}, [][3]float64{{0, 0, 0}, {2, 0, 0}}),
	}
	got := CollectParticles(trjs, 1, 1.0)
	if len(got) != 1 {
		Te.Fatalf("Duplicate positions should collapse, got %d particles", len(got))
	}
	if got[0].TrajID != 0 {
		Te.Error("The first trajectory encountered should win")
	}
}

func TestCollectSegments(Te *testing.T) {
	trjs := []*Trajectory{
		posTraj(Te, 0, []float64{1, 2, 3}, [][3]float64{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}}),
		//seen in the frame but not in the next: discarded
		posTraj(Te, 1, []float64{1, 4}, [][3]float64{{5, 5, 5}, {6, 5, 5}}),
		//not seen in the frame at all
		posTraj(Te, 2, []float64{7, 8}, [][3]float64{{9, 9, 9}, {9, 9, 8}}),
	}
	got := CollectSegments(trjs, 1, 1.0)
	if len(got) != 1 {
		Te.Fatalf("Expected 1 segment, got %d", len(got))
	}
	s := got[0]
	if s.First.Time != 1 || s.Last.Time != 2 {
		Te.Errorf("Wrong segment times: %v %v", s.First.Time, s.Last.Time)
	}
	if s.First.Pos != [3]float64{0, 0, 0} || s.Last.Pos != [3]float64{1, 0, 0} {
		Te.Errorf("Wrong segment positions: %v %v", s.First.Pos, s.Last.Pos)
	}
}

func TestParticleMass(Te *testing.T) {
	p := Particle{Diameter: 2, Density: 3}
	vol := p.Volume()
	if vol < 4.18 || vol > 4.19 {
		Te.Errorf("Wrong volume for a unit-radius sphere: %v", vol)
	}
	if p.Mass() != 3*vol {
		Te.Errorf("Mass should be density times volume, got %v", p.Mass())
	}
}
