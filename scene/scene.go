/*
 * scene.go, part of gotracks.
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

//Package scene ties the format readers together: it guesses the format
//of a particle data location, reads trajectories from it through one
//entry point regardless of format, and reads scene description files
//that point at the particle and tracer data of one experiment.
package scene

import (
	"fmt"
	"path/filepath"
	"strings"

	tracks "github.com/yosefm/gotracks"
	"github.com/yosefm/gotracks/traj/acc"
	"github.com/yosefm/gotracks/traj/ptvis"
	"github.com/yosefm/gotracks/traj/tdf"
	"gopkg.in/ini.v1"
)

//The format names understood by Trajectories.
const (
	FmtPtvis = "ptvis"
	FmtXUAP  = "xuap"
	FmtAcc   = "acc"
	FmtTdf   = "tdf"
)

//InferFormat tries to guess the format of a particles data location by
//its name. Returns one of the Fmt* constants; names that match nothing
//in particular are assumed to be trajAcc, the oldest of the formats.
func InferFormat(fname string) string {
	base := filepath.Base(fname)
	switch {
	case strings.Contains(base, "ptv_is"):
		return FmtPtvis
	case strings.Contains(base, "xuap"):
		return FmtXUAP
	case strings.HasPrefix(filepath.Ext(base), ".td"):
		return FmtTdf
	}
	return FmtAcc
}

//minTrajLen is the historical default: trajectories seen in one frame
//only are just unmatched detections, and are filtered out.
const minTrajLen = 2

//Trajectories extracts all trajectories from a given target location.
//fname is a template file name for the per-frame formats (one %d for
//the frame number) or a plain file name for dump files; first and last
//bound the frames read, inclusive, zero meaning unbounded; frate is the
//frame rate under which the scene was filmed. An empty format is
//inferred from fname. Trajectories of one frame are filtered out.
func Trajectories(fname string, first, last int, frate float64, format string) ([]*tracks.Trajectory, error) {
	if format == "" {
		format = InferFormat(fname)
	}
	switch format {
	case FmtPtvis, FmtXUAP:
		variant := ptvis.Plain
		if format == FmtXUAP {
			variant = ptvis.XUAP
		}
		return ptvis.Read(ptvis.Options{
			Template:  fname,
			First:     first,
			Last:      last,
			FrameRate: frate,
			MinLength: minTrajLen,
			Variant:   variant,
		})
	case FmtAcc:
		trjs, err := acc.Read(fname, first, last)
		if err != nil {
			return nil, err
		}
		return tracks.Filter(trjs, minTrajLen), nil
	case FmtTdf:
		r, _, err := tdf.New(fname)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		trjs, err := r.ReadAll()
		if err != nil {
			return nil, err
		}
		return tracks.Filter(trjs, minTrajLen), nil
	}
	return nil, Error{fmt.Sprintf("unknown particle data format %q", format), []string{"Trajectories"}}
}

//FrameData is what a scene description file resolves to: the physical
//particle properties, the frame rate, and the path segments of both the
//inertial particles and the tracers around the frame of interest.
type FrameData struct {
	Particle   tracks.Particle
	FrameRate  float64
	PartSegs   []tracks.Segment
	TracerSegs []tracks.Segment
}

//ReadFrameData reads a scene configuration file in INI format, which
//specifies where particle and tracer data should be read from and
//directly stores some scalar values. The [Particle] section holds
//diameter and density; the [Scene] section holds frame, "frame rate",
//part_file and tracer_file.
func ReadFrameData(confFname string) (*FrameData, error) {
	cfg, err := ini.Load(confFname)
	if err != nil {
		return nil, Error{"can't read scene config: " + err.Error(), []string{"ReadFrameData"}}
	}
	ret := new(FrameData)
	psec := cfg.Section("Particle")
	if ret.Particle.Diameter, err = psec.Key("diameter").Float64(); err != nil {
		return nil, Error{"bad particle diameter: " + err.Error(), []string{"ReadFrameData"}}
	}
	if ret.Particle.Density, err = psec.Key("density").Float64(); err != nil {
		return nil, Error{"bad particle density: " + err.Error(), []string{"ReadFrameData"}}
	}
	ssec := cfg.Section("Scene")
	frame, err := ssec.Key("frame").Int()
	if err != nil {
		return nil, Error{"bad scene frame: " + err.Error(), []string{"ReadFrameData"}}
	}
	if ret.FrameRate, err = ssec.Key("frame rate").Float64(); err != nil {
		return nil, Error{"bad frame rate: " + err.Error(), []string{"ReadFrameData"}}
	}
	files := []string{ssec.Key("part_file").String(), ssec.Key("tracer_file").String()}
	segs := make([][]tracks.Segment, 2)
	for i, fname := range files {
		if fname == "" {
			return nil, Error{"scene config misses a data file entry", []string{"ReadFrameData"}}
		}
		trjs, err := Trajectories(fname, frame, frame+1, ret.FrameRate, "")
		if err != nil {
			return nil, err
		}
		segs[i] = tracks.CollectSegments(trjs, float64(frame), ret.FrameRate)
	}
	ret.PartSegs, ret.TracerSegs = segs[0], segs[1]
	return ret, nil
}

//Errors

//Error is the error type for this package. It fulfills tracks.Error.
type Error struct {
	message string
	deco    []string
}

func (err Error) Error() string { return err.message }

//Decorate adds new information to the error.
func (err Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}
