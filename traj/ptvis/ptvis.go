/*
 * ptvis.go, part of gotracks.
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

//Package ptvis reads directories of per-frame particle files in the
//ptv_is format, as generated by programs of the 3d-ptv/pyptv family, and
//links the observations across frames into trajectories. The extended
//xuap variant, which carries velocity and acceleration columns, is also
//supported. Frame files compressed with gzip or zstd are read
//transparently.
package ptvis

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"compress/gzip"

	"github.com/klauspost/compress/zstd"
	tracks "github.com/yosefm/gotracks"
	v3 "github.com/yosefm/gotracks/v3"
)

//Variant selects between the members of the ptv_is format family.
type Variant int

const (
	//Plain is the classic ptv_is layout: a count line followed by
	//"prev next x y z" rows, positions in mm.
	Plain Variant = iota
	//XUAP is the extended layout: no count line, rows carrying guessed
	//positions, velocities and accelerations, links 1-based.
	XUAP
)

//Options configures a read of a ptv_is frame sequence. There is no
//package-level state; every knob is passed here explicitly.
type Options struct {
	//Template is the file name representing all frame files in the
	//directory, with exactly one %d for the frame number, e.g.
	//"/data/scene42/ptv_is.%d".
	Template string
	//First and Last bound the frame numbers read, inclusive. Zero or
	//negative values leave the corresponding end unbounded.
	First int
	Last  int
	//FrameRate is kept with the options for convenience of callers that
	//derive velocities; the linker itself does not use it.
	FrameRate float64
	//MinLength drops assembled trajectories observed in fewer frames.
	//Zero or negative keeps everything.
	MinLength int
	Variant   Variant
}

//FrameParser walks a directory of per-frame files in frame order,
//producing the particle records of one frame per call to Next. Frame
//numbers for which no file exists are returned as empty frames, so the
//caller's notion of "previous frame" stays aligned with the files' link
//indexes. It implements tracks.FrameSource.
type FrameParser struct {
	files    map[int]string //frame number -> file path
	frame    int            //next frame number to deliver
	last     int            //final frame number of the sequence
	variant  Variant
	readable bool
	current  int //last frame number delivered
}

//NewFrameParser scans the directory of o.Template for frame files and
//returns a parser over them. The frame numbers present, intersected with
//the First/Last bounds, define the sequence; it is an error if no file
//falls within it.
func NewFrameParser(o Options) (*FrameParser, error) {
	if strings.Count(o.Template, "%d") != 1 {
		return nil, Error{fmt.Sprintf("template needs exactly one %%d: %q", o.Template), o.Template, []string{"NewFrameParser"}, true}
	}
	dirname, basename := filepath.Split(o.Template)
	if dirname == "" {
		dirname = "."
	}
	//Compressed frame files keep their frame number before the
	//compression suffix.
	expr := "^" + strings.Replace(regexp.QuoteMeta(basename), "%d", `(\d+)`, 1) + `(\.gz|\.zst)?$`
	isDataFile, err := regexp.Compile(expr)
	if err != nil {
		return nil, Error{"bad template: " + err.Error(), o.Template, []string{"NewFrameParser"}, true}
	}
	entries, err := os.ReadDir(dirname)
	if err != nil {
		return nil, Error{UnableToOpen + ": " + err.Error(), dirname, []string{"NewFrameParser"}, true}
	}
	P := new(FrameParser)
	P.files = make(map[int]string)
	P.variant = o.Variant
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
		if o.First > 0 && frame < o.First {
			continue
		}
		if o.Last > 0 && frame > o.Last {
			continue
		}
		if prev, dup := P.files[frame]; dup {
			log.Printf("Frame %d appears both as %s and %s, keeping the first", frame, prev, e.Name())
			continue
		}
		P.files[frame] = filepath.Join(dirname, e.Name())
		nums = append(nums, frame)
	}
	if len(nums) == 0 {
		return nil, Error{"no frame files match the template", o.Template, []string{"NewFrameParser"}, true}
	}
	sort.Ints(nums)
	P.frame = nums[0]
	P.last = nums[len(nums)-1]
	P.readable = true
	return P, nil
}

//Readable returns true if the parser can still deliver frames.
func (P *FrameParser) Readable() bool {
	return P.readable
}

//Frame returns the frame number of the last frame delivered by Next.
func (P *FrameParser) Frame() int {
	return P.current
}

//Next returns the records of the next frame in the sequence. A missing
//frame file, or one that fails to parse, yields an empty frame and a log
//line; only I/O failures with no recovery produce errors. The end of the
//sequence is signaled with a tracks.LastFrameError.
func (P *FrameParser) Next() ([]tracks.Record, error) {
	if !P.readable {
		return nil, Error{TrajUnIni, "", []string{"Next"}, true}
	}
	if P.frame > P.last {
		P.readable = false
		return nil, newlastFrameError("", "Next")
	}
	frame := P.frame
	P.frame++
	P.current = frame
	fname, ok := P.files[frame]
	if !ok {
		log.Printf("No file for frame %d, treating it as an empty frame", frame)
		return []tracks.Record{}, nil
	}
	recs, err := parseFrame(fname, frame, P.variant)
	if err != nil {
		if terr, ok := err.(tracks.TrajError); ok && !terr.Critical() {
			log.Printf("Skipping frame %d: %v", frame, err)
			return []tracks.Record{}, nil
		}
		return nil, err
	}
	return recs, nil
}

//openFrame opens a frame file, transparently decompressing it when the
//name carries a compression suffix.
func openFrame(fname string) (io.ReadCloser, error) {
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
		return &wrappedCloser{r, f}, nil
	case strings.HasSuffix(fname, ".zst"):
		r, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &wrappedCloser{zstdql{r.Close, r}, f}, nil
	}
	return f, nil
}

//wrappedCloser closes both the decompressor and the underlying file.
type wrappedCloser struct {
	io.ReadCloser
	f *os.File
}

func (w *wrappedCloser) Close() error {
	err := w.ReadCloser.Close()
	if err2 := w.f.Close(); err == nil {
		err = err2
	}
	return err
}

//zstd.Decoder.Close returns nothing, so it does not implement
//io.ReadCloser by itself.
type zstdql struct {
	closeql func()
	*zstd.Decoder
}

func (z zstdql) Close() error {
	z.closeql()
	return nil
}

//parseFrame reads one frame file into records. Any malformed line makes
//the whole file fail with a non-critical format error; the caller is
//expected to treat the frame as empty and keep going.
func parseFrame(fname string, frame int, variant Variant) ([]tracks.Record, error) {
	fh, err := openFrame(fname)
	if err != nil {
		return nil, Error{UnableToOpen + ": " + err.Error(), fname, []string{"parseFrame"}, true}
	}
	defer fh.Close()
	scanner := bufio.NewScanner(fh)
	recs := make([]tracks.Record, 0, 32)
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if first && variant == Plain {
			//The first line holds the number of targets in the frame. We
			//count for ourselves instead of trusting it.
			first = false
			continue
		}
		first = false
		rec, err := parseLine(line, frame, variant)
		if err != nil {
			return nil, Error{err.Error(), fname, []string{"parseFrame"}, false}
		}
		recs = append(recs, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, Error{ReadError + ": " + err.Error(), fname, []string{"parseFrame"}, true}
	}
	return recs, nil
}

func parseLine(line string, frame int, variant Variant) (tracks.Record, error) {
	var rec tracks.Record
	rec.Frame = frame
	fields := strings.Fields(line)
	want := 5
	linkBase := 0
	if variant == XUAP {
		want = 14
		linkBase = 1
	}
	if len(fields) < want {
		return rec, fmt.Errorf("too few fields (%d, want %d) in line: %s", len(fields), want, line)
	}
	if len(fields) > want {
		return rec, fmt.Errorf("too many fields (%d, want %d) in line: %s", len(fields), want, line)
	}
	prev, err := strconv.Atoi(fields[0])
	if err != nil {
		return rec, fmt.Errorf("can't parse prev link (%s): %s", fields[0], err.Error())
	}
	next, err := strconv.Atoi(fields[1])
	if err != nil {
		return rec, fmt.Errorf("can't parse next link (%s): %s", fields[1], err.Error())
	}
	rec.Prev = normalizeLink(prev, linkBase)
	rec.Next = normalizeLink(next, linkBase)
	for i := 0; i < 3; i++ {
		rec.Pos[i], err = strconv.ParseFloat(fields[2+i], 64)
		if err != nil {
			return rec, fmt.Errorf("can't parse coordinate %d (%s): %s", i, fields[2+i], err.Error())
		}
	}
	if variant == Plain {
		//Plain files are in mm; the library speaks m.
		for i := range rec.Pos {
			rec.Pos[i] /= 1000.0
		}
		return rec, nil
	}
	//XUAP: skip the guessed-position block, keep the velocities, read
	//the acceleration columns only to validate them.
	for i := 0; i < 3; i++ {
		rec.Vel[i], err = strconv.ParseFloat(fields[8+i], 64)
		if err != nil {
			return rec, fmt.Errorf("can't parse velocity %d (%s): %s", i, fields[8+i], err.Error())
		}
	}
	rec.HasVel = true
	for i := 11; i < 14; i++ {
		if _, err := strconv.ParseFloat(fields[i], 64); err != nil {
			return rec, fmt.Errorf("can't parse acceleration column %d (%s): %s", i-11, fields[i], err.Error())
		}
	}
	return rec, nil
}

//normalizeLink turns an on-file link index into a 0-based table index,
//or tracks.NoLink.
func normalizeLink(link, base int) int {
	if link-base < 0 {
		return tracks.NoLink
	}
	return link - base
}

//trajBuilder accumulates the samples of one trajectory while the linker
//walks the frame sequence.
type trajBuilder struct {
	pos  []float64
	vel  []float64
	time []float64
	id   int
}

func (b *trajBuilder) add(r tracks.Record) {
	b.pos = append(b.pos, r.Pos[0], r.Pos[1], r.Pos[2])
	if r.HasVel {
		b.vel = append(b.vel, r.Vel[0], r.Vel[1], r.Vel[2])
	}
	b.time = append(b.time, float64(r.Frame))
}

func (b *trajBuilder) finish() (*tracks.Trajectory, error) {
	pos, err := v3.NewMatrix(b.pos)
	if err != nil {
		return nil, err
	}
	var vel *v3.Matrix
	if len(b.vel) > 0 {
		if vel, err = v3.NewMatrix(b.vel); err != nil {
			return nil, err
		}
	}
	return tracks.NewTrajectory(pos, vel, b.time, b.id)
}

//Read reads a whole directory of ptv_is frame files and assembles the
//observations into trajectories, in order of trajectory id. A record
//whose prev link resolves into the previous frame's table continues that
//record's trajectory; any other record starts a new one. When two
//records claim the same predecessor the one earlier in the file wins and
//the others are dropped with a logged warning, as such links can only
//come from corrupt data. Trajectories shorter than o.MinLength are
//discarded.
func Read(o Options) ([]*tracks.Trajectory, error) {
	parser, err := NewFrameParser(o)
	if err != nil {
		return nil, errDecorate(err, "Read")
	}
	var builders []*trajBuilder
	var prevTraj []int //trajectory of each record of the previous frame, -1 for dropped records
	for {
		recs, err := parser.Next()
		if err != nil {
			if _, ok := err.(tracks.LastFrameError); ok {
				break
			}
			return nil, errDecorate(err, "Read")
		}
		curTraj := make([]int, len(recs))
		claimed := make(map[int]int) //prev index -> index of the record that claimed it
		for i, r := range recs {
			ti := -1
			if r.Prev != tracks.NoLink {
				if r.Prev >= len(prevTraj) {
					log.Printf("Frame %d record %d links to nonexistent record %d of the previous frame, starting a new trajectory", parser.Frame(), i, r.Prev)
				} else if owner, taken := claimed[r.Prev]; taken {
					log.Printf("Frame %d record %d claims predecessor %d already taken by record %d, dropping it", parser.Frame(), i, r.Prev, owner)
					curTraj[i] = -1
					continue
				} else {
					claimed[r.Prev] = i
					//prevTraj can hold -1 if the predecessor itself was
					//dropped; the record then starts a new trajectory.
					ti = prevTraj[r.Prev]
				}
			}
			if ti < 0 {
				ti = len(builders)
				builders = append(builders, &trajBuilder{id: ti})
			}
			builders[ti].add(r)
			curTraj[i] = ti
		}
		prevTraj = curTraj
	}
	ret := make([]*tracks.Trajectory, 0, len(builders))
	for _, b := range builders {
		t, err := b.finish()
		if err != nil {
			return nil, errDecorate(err, "Read")
		}
		ret = append(ret, t)
	}
	if o.MinLength > 0 {
		ret = tracks.Filter(ret, o.MinLength)
	}
	return ret, nil
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

//Error is the general structure for ptv_is reading errors. It fulfills
//tracks.Error and tracks.TrajError.
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("ptv_is file %s error: %s", err.filename, err.message)
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
func (err Error) Format() string { return "ptv_is" }

//Critical returns true if the error is critical, false otherwise.
func (err Error) Critical() bool { return err.critical }

const (
	TrajUnIni    = "Frame parser uninitialized to read"
	ReadError    = "Error reading frame"
	UnableToOpen = "Unable to open file"
	WrongFormat  = "Wrong format in the frame file"
)

//lastFrameError implements tracks.LastFrameError
type lastFrameError struct {
	deco     []string
	fileName string
}

//lastFrameError does nothing
func (E lastFrameError) NormalLastFrameTermination() {}

func (E lastFrameError) FileName() string { return E.fileName }

func (E lastFrameError) Error() string { return "EOF" }

func (E lastFrameError) Critical() bool { return false }

func (E lastFrameError) Format() string { return "ptv_is" }

func (E lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newlastFrameError(filename string, caller string) *lastFrameError {
	e := new(lastFrameError)
	e.fileName = filename
	e.deco = []string{caller}
	return e
}
