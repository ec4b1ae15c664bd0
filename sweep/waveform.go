/*Package sweep implements fast time-series z-stack (TZYX) acquisition.

A triangle waveform of focus positions is loaded into the stage
controller's wave memory, the controller is armed so the camera's
frame-sync output advances the stage one position per frame, and an
ordered plan of (time point, z slice) events is captured with no host
round-trip between frames.  The stage marching up then down means the
wrap from the end of one volume to the start of the next is a single
step, never a full-travel jump.
*/
package sweep

import "github.com/lightsheet-lab/zsweep/util"

// Triangle returns the triangle waveform of positions from startEnd up to
// mid in increments of step, then back down to startEnd.  mid appears
// exactly once, at the turning point.  When step does not evenly divide
// mid-startEnd, the last ascending value may exceed mid by less than one
// step; callers must tolerate the overshoot.
func Triangle(startEnd, mid, step float64) []float64 {
	up := util.Arange(startEnd, mid+step, step)
	down := util.Arange(mid-step, startEnd-step, -step)
	return append(up, down...)
}

// Ascend returns only the ascending half of the triangle, one entry per z
// slice; entry i is the focus position of z index i
func Ascend(startEnd, mid, step float64) []float64 {
	return util.Arange(startEnd, mid+step, step)
}

// Offset returns seq shifted by off, leaving seq untouched.  Used to
// convert a waveform of relative focus offsets to absolute positions
// about the stage's current position.
func Offset(seq []float64, off float64) []float64 {
	out := make([]float64, len(seq))
	for i, v := range seq {
		out[i] = v + off
	}
	return out
}

// ZIndices returns the indices 0..n-1 addressing the ascending half of
// the waveform
func ZIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
