package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferFormat(t *testing.T) {
	assert.Equal(t, FmtPtvis, InferFormat("/data/scene42/ptv_is.%d"))
	assert.Equal(t, FmtXUAP, InferFormat("xuap.%d"))
	assert.Equal(t, FmtTdf, InferFormat("run7.tdf"))
	assert.Equal(t, FmtTdf, InferFormat("run7.tdz"))
	assert.Equal(t, FmtAcc, InferFormat("/data/trajAcc.%d"))
}

func writePtvFrames(t *testing.T, dir string) string {
	frames := map[int]string{
		10001: "2\n-1 0 0 0 0\n-1 -1 5000 5000 5000\n",
		10002: "1\n0 -1 1000 0 0\n",
	}
	for n, content := range frames {
		err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("ptv_is.%d", n)), []byte(content), 0644)
		require.NoError(t, err)
	}
	return filepath.Join(dir, "ptv_is.%d")
}

func TestTrajectories(t *testing.T) {
	template := writePtvFrames(t, t.TempDir())

	//the format is inferred from the name; single-frame detections are
	//filtered out
	trjs, err := Trajectories(template, 0, 0, 1.0, "")
	require.NoError(t, err)
	require.Len(t, trjs, 1)
	assert.Equal(t, 2, trjs[0].Len())
	assert.Equal(t, 1.0, trjs[0].Pos().At(1, 0))

	_, err = Trajectories(template, 0, 0, 1.0, "no-such-format")
	assert.Error(t, err)
}

func TestReadFrameData(t *testing.T) {
	dir := t.TempDir()
	template := writePtvFrames(t, dir)
	conf := filepath.Join(dir, "scene.cfg")
	content := fmt.Sprintf(`[Particle]
diameter = 0.0005
density = 1450

[Scene]
frame = 10001
frame rate = 500
part_file = %s
tracer_file = %s
`, template, template)
	require.NoError(t, os.WriteFile(conf, []byte(content), 0644))

	fd, err := ReadFrameData(conf)
	require.NoError(t, err)
	assert.Equal(t, 0.0005, fd.Particle.Diameter)
	assert.Equal(t, 1450.0, fd.Particle.Density)
	assert.Equal(t, 500.0, fd.FrameRate)

	require.Len(t, fd.PartSegs, 1)
	seg := fd.PartSegs[0]
	assert.Equal(t, 10001.0, seg.First.Time)
	assert.Equal(t, 10002.0, seg.Last.Time)
	//velocity by forward difference times the frame rate
	assert.InDelta(t, 500.0, seg.First.Vel[0], 1e-12)
	//both entries point at the same files here
	assert.Equal(t, fd.PartSegs, fd.TracerSegs)
}

func TestReadFrameDataErrors(t *testing.T) {
	dir := t.TempDir()
	conf := filepath.Join(dir, "scene.cfg")
	require.NoError(t, os.WriteFile(conf, []byte("[Particle]\ndiameter = oops\n"), 0644))
	_, err := ReadFrameData(conf)
	assert.Error(t, err)

	_, err = ReadFrameData(filepath.Join(dir, "nonexistent.cfg"))
	assert.Error(t, err)
}
