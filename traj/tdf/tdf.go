/*
 * tdf.go, part of gotracks.
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

//Package tdf implements the trajectory dump format: a compressed,
//line-oriented single file holding a whole set of assembled
//trajectories, so a dataset can be stored after linking and re-opened
//without touching the frame files again. The compression is chosen by
//the last letter of the file name; zstd (.tdf) is the default, gzip
//(.tdz) and flate (.tdr) are also understood.
package tdf

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	tracks "github.com/yosefm/gotracks"
	v3 "github.com/yosefm/gotracks/v3"
)

//Write!

//TdfW writes trajectories to a dump file.
type TdfW struct {
	f         *os.File
	h         io.WriteCloser
	filename  string
	written   int
	writeable bool
}

//NewWriter creates a dump file and writes its header. Only string
//metadata is kept; nil is a valid header.
func NewWriter(name string, header map[string]string, compressionLevel ...int) (*TdfW, error) {
	level := 9
	if len(compressionLevel) > 0 {
		level = compressionLevel[0]
	}
	W := new(TdfW)
	var err error
	W.f, err = os.Create(name)
	if err != nil {
		return nil, Error{UnableToOpen + ": " + err.Error(), name, []string{"NewWriter"}, true}
	}
	zwriter := func(a io.Writer) (io.WriteCloser, error) { return flate.NewWriter(a, level) }
	gzipwriter := func(a io.Writer) (io.WriteCloser, error) { return gzip.NewWriterLevel(a, level) }
	zstdwriter := func(a io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(a, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	}
	var anyNewWriter func(io.Writer) (io.WriteCloser, error)
	switch strings.ToLower(name)[len(name)-1] {
	case 'z':
		anyNewWriter = gzipwriter
	case 'r':
		anyNewWriter = zwriter
	default:
		anyNewWriter = zstdwriter
	}
	W.h, err = anyNewWriter(W.f)
	if err != nil {
		W.f.Close()
		return nil, Error{"Can't write header: " + err.Error(), name, []string{"NewWriter"}, true}
	}
	for k, v := range header {
		fmt.Fprintf(W.h, "%s=%v\n", k, v)
	}
	W.h.Write([]byte("**\n"))
	W.filename = name
	W.writeable = true
	return W, nil
}

//WNext appends one trajectory to the dump. Stored velocities are kept;
//derived ones are not written, as they can always be derived again.
func (W *TdfW) WNext(t *tracks.Trajectory) error {
	if !W.writeable {
		return Error{TrajUnIniWrite, W.filename, []string{"WNext"}, true}
	}
	if t == nil {
		return Error{NilTrajectory, W.filename, []string{"WNext"}, true}
	}
	hasvel := 0
	var vel *v3.Matrix
	if t.HasVelocity() {
		hasvel = 1
		vel = t.Velocity(1) //stored, so the rate is irrelevant
	}
	fmt.Fprintf(W.h, "# %d %d %d\n", t.TrajID(), t.Len(), hasvel)
	pos := t.Pos()
	for i, tm := range t.Time() {
		if hasvel == 1 {
			fmt.Fprintf(W.h, "%g %g %g %g %g %g %g\n", tm, pos.At(i, 0), pos.At(i, 1), pos.At(i, 2), vel.At(i, 0), vel.At(i, 1), vel.At(i, 2))
		} else {
			fmt.Fprintf(W.h, "%g %g %g %g\n", tm, pos.At(i, 0), pos.At(i, 1), pos.At(i, 2))
		}
	}
	W.h.Write([]byte("*\n"))
	W.written++
	return nil
}

//Len returns the number of trajectories written so far.
func (W *TdfW) Len() int {
	return W.written
}

//Close flushes and closes the dump. The object cannot be used after
//this call.
func (W *TdfW) Close() {
	if W == nil || !W.writeable {
		return
	}
	W.h.Close()
	W.f.Close()
	W.writeable = false
}

//Read!

//TdfR reads trajectories back from a dump file. It implements
//tracks.TrajectorySource.
type TdfR struct {
	f        *os.File
	z        io.ReadCloser
	h        *bufio.Reader
	filename string
	readable bool
}

//Why couldn't *zstd.Decoder implement io.ReadCloser? :-(
type zstdql struct {
	closeql func()
	*zstd.Decoder
}

func (z zstdql) Close() error {
	z.closeql()
	return nil
}

//New opens a dump file for reading and returns a handle, the metadata
//map written with the file (empty if none) and error or nil.
func New(name string) (*TdfR, map[string]string, error) {
	R := new(TdfR)
	R.filename = name
	var err error
	R.f, err = os.Open(name)
	if err != nil {
		return nil, nil, Error{UnableToOpen + ": " + err.Error(), name, []string{"New"}, true}
	}
	zreader := func(a io.Reader) (io.ReadCloser, error) { return flate.NewReader(a), nil }
	gzreader := func(a io.Reader) (io.ReadCloser, error) { return gzip.NewReader(a) }
	zstdreader := func(a io.Reader) (io.ReadCloser, error) {
		r, err := zstd.NewReader(a)
		if err != nil {
			return nil, err
		}
		return zstdql{r.Close, r}, nil
	}
	var anyNewReader func(io.Reader) (io.ReadCloser, error)
	switch strings.ToLower(name)[len(name)-1] {
	case 'z':
		anyNewReader = gzreader
	case 'r':
		anyNewReader = zreader
	default:
		anyNewReader = zstdreader
	}
	R.z, err = anyNewReader(bufio.NewReader(R.f))
	if err != nil {
		R.f.Close()
		return nil, nil, Error{"Can't read header: " + err.Error(), name, []string{"New"}, true}
	}
	R.h = bufio.NewReader(R.z)
	m := make(map[string]string)
	for {
		str, err := R.h.ReadString('\n')
		if err != nil {
			R.Close()
			return nil, nil, Error{"Can't read header: " + err.Error(), name, []string{"New"}, true}
		}
		str = strings.TrimSuffix(str, "\n")
		if strings.HasPrefix(str, "**") {
			break
		}
		kv := strings.SplitN(str, "=", 2)
		if len(kv) != 2 {
			R.Close()
			return nil, nil, Error{"Malformed header line: " + str, name, []string{"New"}, true}
		}
		m[kv[0]] = kv[1]
	}
	R.readable = true
	return R, m, nil
}

//Readable returns true if the handle is readable (if it is possible to
//call Next on it).
func (R *TdfR) Readable() bool {
	return R.readable
}

//Next returns the next trajectory of the dump. If the error is a
//tracks.LastFrameError, the end of the set has been reached, not an
//actual failure.
func (R *TdfR) Next() (*tracks.Trajectory, error) {
	if !R.readable {
		return nil, Error{TrajUnIniRead, R.filename, []string{"Next"}, true}
	}
	head, err := R.h.ReadString('\n')
	if err != nil {
		R.Close()
		//EOF at a block boundary is the normal end of the set. EOF in
		//the middle of a header line is not.
		if err == io.EOF && head == "" {
			return nil, newlastFrameError(R.filename, "Next")
		}
		return nil, Error{ReadError + ": " + err.Error(), R.filename, []string{"Next"}, true}
	}
	fields := strings.Fields(head)
	if len(fields) != 4 || fields[0] != "#" {
		return nil, Error{"Malformed trajectory block header: " + strings.TrimSpace(head), R.filename, []string{"Next"}, true}
	}
	id, err1 := strconv.Atoi(fields[1])
	n, err2 := strconv.Atoi(fields[2])
	hasvel, err3 := strconv.Atoi(fields[3])
	if err1 != nil || err2 != nil || err3 != nil || n < 1 {
		return nil, Error{"Malformed trajectory block header: " + strings.TrimSpace(head), R.filename, []string{"Next"}, true}
	}
	want := 4
	if hasvel == 1 {
		want = 7
	}
	time := make([]float64, n)
	posd := make([]float64, 0, 3*n)
	veld := make([]float64, 0, 3*n)
	for i := 0; i < n; i++ {
		line, err := R.h.ReadString('\n')
		if err != nil {
			return nil, Error{ReadError + ": " + err.Error(), R.filename, []string{"Next"}, true}
		}
		fs := strings.Fields(line)
		if len(fs) != want {
			return nil, Error{fmt.Sprintf("Wrong number of fields (%d, want %d) in sample line", len(fs), want), R.filename, []string{"Next"}, true}
		}
		vals := make([]float64, want)
		for j, v := range fs {
			if vals[j], err = strconv.ParseFloat(v, 64); err != nil {
				return nil, Error{"Can't parse sample value " + v + ": " + err.Error(), R.filename, []string{"Next"}, true}
			}
		}
		time[i] = vals[0]
		posd = append(posd, vals[1], vals[2], vals[3])
		if hasvel == 1 {
			veld = append(veld, vals[4], vals[5], vals[6])
		}
	}
	term, err := R.h.ReadString('\n')
	if err != nil || term[0] != '*' {
		return nil, Error{"Can't read the trajectory termination mark", R.filename, []string{"Next"}, true}
	}
	pos, err := v3.NewMatrix(posd)
	if err != nil {
		return nil, errDecorate(err, "Next")
	}
	var vel *v3.Matrix
	if hasvel == 1 {
		if vel, err = v3.NewMatrix(veld); err != nil {
			return nil, errDecorate(err, "Next")
		}
	}
	t, err := tracks.NewTrajectory(pos, vel, time, id)
	if err != nil {
		return nil, errDecorate(err, "Next")
	}
	return t, nil
}

//ReadAll drains the handle into a slice, closing it at the end.
func (R *TdfR) ReadAll() ([]*tracks.Trajectory, error) {
	var ret []*tracks.Trajectory
	for {
		t, err := R.Next()
		if err != nil {
			if _, ok := err.(tracks.LastFrameError); ok {
				return ret, nil
			}
			return ret, errDecorate(err, "ReadAll")
		}
		ret = append(ret, t)
	}
}

//Close closes the object and marks it as unreadable.
func (R *TdfR) Close() {
	if R == nil || R.z == nil {
		return
	}
	R.z.Close()
	R.f.Close()
	R.z = nil
	R.readable = false
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

//Error is the general structure for dump file errors. It fulfills
//tracks.Error and tracks.TrajError.
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("tdf file %s error: %s", err.filename, err.message)
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
func (err Error) Format() string { return "tdf" }

//Critical returns true if the error is critical, false otherwise.
func (err Error) Critical() bool { return err.critical }

const (
	TrajUnIniRead  = "Dump object uninitialized to read"
	TrajUnIniWrite = "Dump object uninitialized to write"
	ReadError      = "Error reading trajectory block"
	UnableToOpen   = "Unable to open file"
	NilTrajectory  = "Given nil trajectory"
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

func (E lastFrameError) Format() string { return "tdf" }

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
