/*
 * tracks.go, part of gotracks.
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

package tracks

import (
	"fmt"
	"math"

	v3 "github.com/yosefm/gotracks/v3"
)

//NoLink marks an absent frame link in a Record.
const NoLink = -1

//Particle holds the physical properties of the tracked particles, as
//opposed to their observed positions, which live in trajectories.
type Particle struct {
	Diameter float64
	Density  float64
}

//Volume returns the volume of the particle, assuming it spherical.
func (P *Particle) Volume() float64 {
	r := P.Diameter / 2
	return 4.0 / 3.0 * math.Pi * r * r * r
}

//Mass returns the mass of the particle, assuming it spherical and
//homogeneous.
func (P *Particle) Mass() float64 {
	return P.Density * P.Volume()
}

//Record is one particle observation in one frame, as read from a frame
//file. Prev and Next are row indexes into the tables of the adjacent
//frames, or NoLink. Vel is only meaningful when the source format stores
//velocities, in which case HasVel is true. A Record is not modified
//after parsing.
type Record struct {
	Prev   int
	Next   int
	Pos    [3]float64
	Vel    [3]float64
	HasVel bool
	Frame  int
}

//Trajectory is the path of one physical particle across consecutive
//frames. It owns its matrices exclusively and is never mutated after
//assembly. Velocities may be stored (when the file format carries them)
//or derived on demand from the positions.
type Trajectory struct {
	pos  *v3.Matrix
	vel  *v3.Matrix //nil unless the source format stored velocities
	time []float64
	id   int
}

//NewTrajectory assembles a trajectory from a position matrix, an
//optional velocity matrix (nil for formats that do not store one), the
//frame times and a trajectory id. The time slice must be strictly
//increasing and have one element per position vector.
func NewTrajectory(pos, vel *v3.Matrix, time []float64, id int) (*Trajectory, error) {
	if pos == nil {
		return nil, CError{"nil position matrix", []string{"NewTrajectory"}}
	}
	if pos.NVecs() != len(time) {
		return nil, CError{fmt.Sprintf("%d positions but %d times", pos.NVecs(), len(time)), []string{"NewTrajectory"}}
	}
	if len(time) == 0 {
		return nil, CError{"a trajectory needs at least one sample", []string{"NewTrajectory"}}
	}
	if vel != nil && vel.NVecs() != pos.NVecs() {
		return nil, CError{fmt.Sprintf("%d positions but %d velocities", pos.NVecs(), vel.NVecs()), []string{"NewTrajectory"}}
	}
	for i := 1; i < len(time); i++ {
		if time[i] <= time[i-1] {
			return nil, CError{fmt.Sprintf("frame times not strictly increasing: %v after %v", time[i], time[i-1]), []string{"NewTrajectory"}}
		}
	}
	return &Trajectory{pos: pos, vel: vel, time: time, id: id}, nil
}

//Len returns the number of frames in which the particle was observed.
func (T *Trajectory) Len() int {
	return len(T.time)
}

//TrajID returns the number identifying the trajectory within its set.
func (T *Trajectory) TrajID() int {
	return T.id
}

//Pos returns the raw positions of the trajectory, shaped (Len,3).
//The returned matrix is the trajectory's own; callers must not modify it.
func (T *Trajectory) Pos() *v3.Matrix {
	return T.pos
}

//Time returns the frame time of each sample. The returned slice is the
//trajectory's own; callers must not modify it.
func (T *Trajectory) Time() []float64 {
	return T.time
}

//HasVelocity returns whether the source format stored velocities for
//this trajectory, as opposed to them being derived from the positions.
func (T *Trajectory) HasVelocity() bool {
	return T.vel != nil
}

//Velocity returns the velocity of the particle at each sample, shaped
//(Len,3). If the source format stored velocities, those are returned;
//otherwise the forward difference of the positions scaled by the frame
//rate frate. The last sample has no forward neighbor, so its row is
//zero. The matrix is computed anew on every call; trajectories are
//normally read once, so nothing is cached.
func (T *Trajectory) Velocity(frate float64) *v3.Matrix {
	ret := v3.Zeros(T.Len())
	if T.vel != nil {
		ret.Copy(T.vel)
		return ret
	}
	for i := 0; i < T.Len()-1; i++ {
		for j := 0; j < 3; j++ {
			ret.Set(i, j, (T.pos.At(i+1, j)-T.pos.At(i, j))*frate)
		}
	}
	return ret
}

//Accel returns the acceleration of the particle at each sample, shaped
//(Len,3), as the forward difference of Velocity. The last row is zero;
//when the velocities are derived the one before it is too, as the
//velocity of the last sample is itself a zero-filled placeholder.
//Computed anew on every call.
func (T *Trajectory) Accel(frate float64) *v3.Matrix {
	vel := T.Velocity(frate)
	ret := v3.Zeros(T.Len())
	n := T.Len() - 2
	if T.vel != nil {
		//stored velocities are real at every sample, including the last
		n = T.Len() - 1
	}
	for i := 0; i < n; i++ {
		for j := 0; j < 3; j++ {
			ret.Set(i, j, (vel.At(i+1, j)-vel.At(i, j))*frate)
		}
	}
	return ret
}

//SampleAt returns a view of the position at the given frame time, and
//whether the particle was observed in that frame at all.
func (T *Trajectory) SampleAt(frame float64) (*v3.Matrix, bool) {
	for i, t := range T.time {
		if t == frame {
			return T.pos.VecView(i), true
		}
	}
	return nil, false
}

//Filter returns the trajectories of trjs observed in at least minLen
//frames, in their original order. It is a pure function: the input is
//not modified, and filtering an already-filtered set with the same
//threshold returns an equal set.
func Filter(trjs []*Trajectory, minLen int) []*Trajectory {
	ret := make([]*Trajectory, 0, len(trjs))
	for _, t := range trjs {
		if t.Len() >= minLen {
			ret = append(ret, t)
		}
	}
	return ret
}

//Errors

//CError is the error type for the core package. It fulfills the
//tracks.Error interface.
type CError struct {
	message string
	deco    []string
}

func (err CError) Error() string { return err.message }

//Decorate adds new information to the error.
func (err CError) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}
