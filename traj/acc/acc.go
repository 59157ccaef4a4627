/*
 * acc.go, part of gotracks.
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

//Package acc reads directories of trajAcc files. Unlike ptv_is frames,
//a trajAcc file repeats the whole history of every path that reaches its
//frame, so trajectories are cut directly from each file and no linking
//across files is needed.
package acc

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	tracks "github.com/yosefm/gotracks"
	v3 "github.com/yosefm/gotracks/v3"
)

//the columns of a trajAcc row this reader cares about: 0-2 position,
//3-5 velocity, 33 path age.
const (
	ageCol  = 33
	minCols = 34
)

//Read extracts all trajectories from a directory of trajAcc files.
//template is a file name with exactly one %d for the frame number;
//first and last bound the frames read, inclusive, with zero or negative
//meaning unbounded. Rows with path age 0 start a trajectory, which runs
//to the next start. Sample times are the path age plus the file's frame
//number. Files that are missing or fail to parse are skipped with a log
//line.
func Read(template string, first, last int) ([]*tracks.Trajectory, error) {
	if strings.Count(template, "%d") != 1 {
		return nil, Error{fmt.Sprintf("template needs exactly one %%d: %q", template), template, []string{"Read"}, true}
	}
	dirname, basename := filepath.Split(template)
	if dirname == "" {
		dirname = "."
	}
	expr := "^" + strings.Replace(regexp.QuoteMeta(basename), "%d", `(\d+)`, 1) + `(\.gz|\.zst)?$`
	isDataFile, err := regexp.Compile(expr)
	if err != nil {
		return nil, Error{"bad template: " + err.Error(), template, []string{"Read"}, true}
	}
	entries, err := os.ReadDir(dirname)
	if err != nil {
		return nil, Error{UnableToOpen + ": " + err.Error(), dirname, []string{"Read"}, true}
	}
	files := make(map[int]string)
	nums := make([]int, 0, len(entries))
	for _, e := range entries {
		m := isDataFile.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		frame, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if first > 0 && frame < first {
			continue
		}
		if last > 0 && frame > last {
			continue
		}
		if _, dup := files[frame]; dup {
			continue
		}
		files[frame] = filepath.Join(dirname, e.Name())
		nums = append(nums, frame)
	}
	if len(nums) == 0 {
		return nil, Error{"no trajAcc files match the template", template, []string{"Read"}, true}
	}
	sort.Ints(nums)
	var trajects []*tracks.Trajectory
	for _, frame := range nums {
		trajects, err = readFile(files[frame], frame, trajects)
		if err != nil {
			if terr, ok := err.(tracks.TrajError); ok && !terr.Critical() {
				log.Printf("Skipping trajAcc file for frame %d: %v", frame, err)
				continue
			}
			return nil, errDecorate(err, "Read")
		}
	}
	return trajects, nil
}

//readFile appends the trajectories of one trajAcc file to dst. A file
//that fails partway contributes nothing: error returns hand back dst as
//it came in, so skipping the file really skips it.
func readFile(fname string, frame int, dst []*tracks.Trajectory) ([]*tracks.Trajectory, error) {
	start := len(dst)
	fh, err := openFile(fname)
	if err != nil {
		return dst[:start], Error{UnableToOpen + ": " + err.Error(), fname, []string{"readFile"}, true}
	}
	defer fh.Close()
	scanner := bufio.NewScanner(fh)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024) //trajAcc rows are wide
	var pos, vel, time []float64
	cut := func() error {
		if len(time) == 0 {
			return nil
		}
		p, err := v3.NewMatrix(pos)
		if err != nil {
			return err
		}
		v, err := v3.NewMatrix(vel)
		if err != nil {
			return err
		}
		t, err := tracks.NewTrajectory(p, v, time, len(dst))
		if err != nil {
			return err
		}
		dst = append(dst, t)
		return nil
	}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < minCols {
			return dst[:start], Error{fmt.Sprintf("too few columns (%d, want at least %d) in line: %.40s", len(fields), minCols, line), fname, []string{"readFile"}, false}
		}
		row := make([]float64, 7)
		for i := 0; i < 6; i++ {
			if row[i], err = strconv.ParseFloat(fields[i], 64); err != nil {
				return dst[:start], Error{fmt.Sprintf("can't parse column %d (%s): %s", i, fields[i], err.Error()), fname, []string{"readFile"}, false}
			}
		}
		if row[6], err = strconv.ParseFloat(fields[ageCol], 64); err != nil {
			return dst[:start], Error{fmt.Sprintf("can't parse path age (%s): %s", fields[ageCol], err.Error()), fname, []string{"readFile"}, false}
		}
		if row[6] == 0 {
			if err := cut(); err != nil {
				return dst[:start], Error{err.Error(), fname, []string{"readFile"}, false}
			}
			pos, vel, time = nil, nil, nil
		} else if len(time) == 0 {
			//A history fragment with no visible start; nothing to anchor
			//it to, so it is dropped.
			continue
		}
		pos = append(pos, row[0], row[1], row[2])
		vel = append(vel, row[3], row[4], row[5])
		time = append(time, row[6]+float64(frame))
	}
	if err := scanner.Err(); err != nil {
		return dst[:start], Error{ReadError + ": " + err.Error(), fname, []string{"readFile"}, true}
	}
	if err := cut(); err != nil {
		return dst[:start], Error{err.Error(), fname, []string{"readFile"}, false}
	}
	return dst, nil
}

func openFile(fname string) (io.ReadCloser, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasSuffix(fname, ".gz"):
		r, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return readCloser{r, f}, nil
	case strings.HasSuffix(fname, ".zst"):
		r, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return readCloser{r.IOReadCloser(), f}, nil
	}
	return f, nil
}

type readCloser struct {
	io.ReadCloser
	f *os.File
}

func (r readCloser) Close() error {
	err := r.ReadCloser.Close()
	if err2 := r.f.Close(); err == nil {
		err = err2
	}
	return err
}

//Errors

//errDecorate is a helper that decorates the error with the caller's
//name before returning it. Used with a non-tracks.Error error it will
//panic.
func errDecorate(err error, caller string) error {
	err2 := err.(tracks.Error)
	err2.Decorate(caller)
	return err2
}

//Error is the general structure for trajAcc reading errors. It fulfills
//tracks.Error and tracks.TrajError.
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("trajAcc file %s error: %s", err.filename, err.message)
}

//Decorate adds new information to the error.
func (err Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

//FileName returns the file to which the failing read was associated.
func (err Error) FileName() string { return err.filename }

//Format returns the format of the file associated to the error.
func (err Error) Format() string { return "trajAcc" }

//Critical returns true if the error is critical, false otherwise.
func (err Error) Critical() bool { return err.critical }

const (
	ReadError    = "Error reading file"
	UnableToOpen = "Unable to open file"
)
