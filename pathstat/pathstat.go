//Package pathstat computes simple statistics over sets of assembled
//trajectories: speed samples, their distribution and their correlation
//in time.
package pathstat

import (
	"fmt"
	"math"
	"math/cmplx"

	tracks "github.com/yosefm/gotracks"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

//SpeedSeries returns the speed (velocity magnitude) of one trajectory
//at each sample where a velocity is defined. For derived velocities the
//last sample has none, so the series is one shorter than the
//trajectory.
func SpeedSeries(t *tracks.Trajectory, frate float64) []float64 {
	vel := t.Velocity(frate)
	n := t.Len()
	if !t.HasVelocity() {
		n--
	}
	ret := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		x, y, z := vel.At(i, 0), vel.At(i, 1), vel.At(i, 2)
		ret = append(ret, math.Sqrt(x*x+y*y+z*z))
	}
	return ret
}

//VelocityMagnitudes flattens the speed series of a whole trajectory set
//into one sample pool, in trajectory order.
func VelocityMagnitudes(trjs []*tracks.Trajectory, frate float64) []float64 {
	ret := make([]float64, 0, 32*len(trjs))
	for _, t := range trjs {
		ret = append(ret, SpeedSeries(t, frate)...)
	}
	return ret
}

func cmplxMulConj(dst, b []complex128) {
	if len(dst) != len(b) {
		panic(fmt.Sprintf("complex conjugate multiplication of slices: Both slices should have the same len %d, %d", len(dst), len(b)))
	}
	for i, v := range b {
		dst[i] *= cmplx.Conj(v)
	}
}

func cmplxRealScale(dst []complex128, sc float64) []complex128 {
	for i, v := range dst {
		dst[i] = v * complex(sc, sc)
	}
	return dst
}

//CrossCorr returns the normalized cross-correlation of c1 and c2 for
//all lags, computed through the FFT. The two series must have the same
//length. The pad slices are working space of twice that length; they
//are reallocated when they do not fit, so nil is acceptable.
func CrossCorr(c1, c2 []float64, c1pad, c2pad []complex128, dst ...[]float64) []float64 {
	var ret []float64
	if len(dst) == 0 || len(dst[0]) > 0 { //if you give a slice, you can set the cap, but len must be 0
		ret = make([]float64, 0, 2*len(c1))
	} else {
		ret = dst[0]
	}
	c1mean := stat.Mean(c1, nil)
	c2mean := stat.Mean(c2, nil)
	c1std := stat.StdDev(c1, nil)
	c2std := stat.StdDev(c2, nil)
	if c1std == 0 || c2std == 0 {
		//a constant series correlates with nothing; all zeros beats a
		//slice full of NaN
		return append(ret, make([]float64, 2*len(c1))...)
	}
	if len(c1pad) != 2*len(c1) {
		c1pad = make([]complex128, 2*len(c1))
	}
	if len(c2pad) != 2*len(c2) {
		c2pad = make([]complex128, 2*len(c2))
	}
	for i, v := range c1 {
		c1pad[i] = complex(v-c1mean, 0)
		c2pad[i] = complex(c2[i]-c2mean, 0)
	}
	f := fourier.NewCmplxFFT(len(c1pad))
	f.Coefficients(c1pad, c1pad)
	f.Coefficients(c2pad, c2pad)
	cmplxMulConj(c1pad, c2pad)
	f.Sequence(c1pad, c1pad)
	cmplxRealScale(c1pad, 1.0/float64(len(c1pad))) //normalization of the FFT
	for _, v := range c1pad {
		ret = append(ret, real(v))
	}
	for i, v := range ret {
		ret[i] = v / (c1std * c2std) / float64(len(c1))
	}
	return ret
}

//AutoCorr returns the normalized autocorrelation of a series for all
//lags. The zero-lag value of a non-constant series is 1; a constant
//series has no variance to correlate and returns all zeros.
func AutoCorr(c []float64) []float64 {
	return CrossCorr(c, c, nil, nil)
}

//SpeedAutoCorr returns the autocorrelation of the speed of one
//trajectory. Trajectories too short to have two speed samples return
//nil.
func SpeedAutoCorr(t *tracks.Trajectory, frate float64) []float64 {
	s := SpeedSeries(t, frate)
	if len(s) < 2 {
		return nil
	}
	return AutoCorr(s)
}
