/*
 * interfaces.go, part of gotracks.
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

// FrameSource is the interface for anything that produces particle
// records one frame at a time, in frame order. The format readers under
// traj/ implement it.
type FrameSource interface {

	//Is the source ready to be read?
	Readable() bool

	//Next returns the records of the next frame in the sequence. An empty
	//slice is a valid frame (a capture gap, or a file that failed to
	//parse). When the sequence is over, the error is a LastFrameError.
	Next() ([]Record, error)

	//Frame returns the frame number of the last frame returned by Next.
	Frame() int
}

// TrajectorySource is the interface for anything that produces assembled
// trajectories one at a time, e.g. the tdf dump reader.
type TrajectorySource interface {

	//Is the source ready to be read?
	Readable() bool

	//Next returns the next trajectory. When the set is over, the error is
	//a LastFrameError.
	Next() (*Trajectory, error)
}

//Errors

//This error system predates the "wrapping" errors of Go (the "%w"
//directive and the errors package). The Decorate method plays the same
//role: it adds caller information when an error is passed up, without
//changing the error's type.

// Error is the interface for errors that all packages in this library
// implement. Decorate adds and retrieves info from the error; each call
// returns the resulting "decoration" slice of strings. If passed an
// empty string, it just returns the current value.
type Error interface {
	Error() string
	Decorate(string) []string
}

// TrajError is the interface for errors in particle data files.
type TrajError interface {
	Error
	Critical() bool
	FileName() string
	Format() string
}

// LastFrameError has a do-nothing method to distinguish the harmless
// end-of-data condition from other TrajErrors, so it can be filtered in
// a type switch that looks for this interface.
type LastFrameError interface {
	TrajError
	NormalLastFrameTermination() //does nothing, just to separate this interface from other TrajError's
}
