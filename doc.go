/*
 * doc.go, part of gotracks.
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

/*Package tracks is the main package of the gotracks library. It provides
particle and trajectory structures for 3D particle tracking velocimetry
(PTV) data, and is the base for the format readers under traj/.


	**gotracks Capabilities**

    Reads per-frame particle files in the ptv_is and xuap formats, as
	generated by programs of the 3d-ptv/pyptv family, and links the
	observations across frames into Trajectory objects.

    Reads trajAcc files, where whole path histories are repeated per
	frame.

    Writes and re-reads assembled trajectory sets as a single compressed
	dump file, so a dataset does not need to be re-linked on every
	session.

    Computes velocity and acceleration per trajectory by finite
	differences.

    Filters trajectory sets by minimum length.

    Collects the particles present in a given frame from a trajectory
	set, with or without their matches in the following frame.

    Reads scene description files (INI format) pointing to particle and
	tracer data, and computes per-frame path segments for both.

    Velocity histograms and autocorrelation functions over trajectory
	sets (package pathstat).

Frame files compressed with gzip or zstd are read transparently.
*/
package tracks
