/*
 * frames.go, part of gotracks.
 *
 * Copyright 2016 Yosef Meller
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

//frames.go holds the per-frame scene queries: given a set of assembled
//trajectories, pull out the particles observed in one frame, alone or
//paired with their match in the following frame.

package tracks

//FrameParticle is the state of one particle in one frame, pulled out of
//its trajectory for scene-level queries.
type FrameParticle struct {
	Pos    [3]float64
	Vel    [3]float64
	Time   float64
	TrajID int
}

//Segment is a pair of consecutive observations of the same particle,
//from which accelerations and other path properties can be derived.
type Segment struct {
	First FrameParticle
	Last  FrameParticle
}

//CollectParticles returns the particles of trjs observed in the given
//frame. Particles occupying an already-seen position are dropped, so
//each position appears only once; the first trajectory encountered wins.
//frate is needed for formats that do not store velocities.
func CollectParticles(trjs []*Trajectory, frame float64, frate float64) []FrameParticle {
	ret := make([]FrameParticle, 0, len(trjs))
	seen := make(map[[3]float64]bool)
	for _, traj := range trjs {
		i, ok := frameIndex(traj, frame)
		if !ok {
			continue
		}
		p := particleAt(traj, i, frate)
		if seen[p.Pos] {
			continue
		}
		seen[p.Pos] = true
		ret = append(ret, p)
	}
	return ret
}

//CollectSegments returns, for each particle of trjs observed both in the
//given frame and in the one following it, the pair of observations.
//Unmatched particles are discarded. Duplicate positions are dropped the
//same way as in CollectParticles, comparing the first observation.
func CollectSegments(trjs []*Trajectory, frame float64, frate float64) []Segment {
	ret := make([]Segment, 0, len(trjs))
	seen := make(map[[3]float64]bool)
	for _, traj := range trjs {
		i, ok := frameIndex(traj, frame)
		if !ok || i+1 >= traj.Len() {
			continue
		}
		if traj.Time()[i+1] != frame+1 {
			continue
		}
		first := particleAt(traj, i, frate)
		if seen[first.Pos] {
			continue
		}
		seen[first.Pos] = true
		ret = append(ret, Segment{First: first, Last: particleAt(traj, i+1, frate)})
	}
	return ret
}

func frameIndex(traj *Trajectory, frame float64) (int, bool) {
	for i, t := range traj.Time() {
		if t == frame {
			return i, true
		}
	}
	return 0, false
}

func particleAt(traj *Trajectory, i int, frate float64) FrameParticle {
	var p FrameParticle
	vel := traj.Velocity(frate)
	for j := 0; j < 3; j++ {
		p.Pos[j] = traj.Pos().At(i, j)
		p.Vel[j] = vel.At(i, j)
	}
	p.Time = traj.Time()[i]
	p.TrajID = traj.TrajID()
	return p
}
