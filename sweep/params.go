package sweep

import (
	"fmt"
	"math"

	"github.com/lightsheet-lab/zsweep/generichttp/motion"
	"github.com/lightsheet-lab/zsweep/mathx"
)

// Params describes one acquisition run
type Params struct {
	// StartEndPos is the focus position the waveform starts and ends at
	StartEndPos float64 `json:"startEndPos" yaml:"StartEndPos"`

	// MidPos is the turning point of the waveform
	MidPos float64 `json:"midPos" yaml:"MidPos"`

	// StepSize is the focus increment between z slices
	StepSize float64 `json:"stepSize" yaml:"StepSize"`

	// Relative, if true, treats the waveform as offsets about the stage's
	// position at setup time instead of absolute positions
	Relative bool `json:"relative" yaml:"Relative"`

	// NumTimePoints is the number of volumes to acquire
	NumTimePoints int `json:"numTimePoints" yaml:"NumTimePoints"`

	// HardwareSync, if true, steps the stage from the camera's frame-sync
	// line via the controller's wave generator; if false the host moves
	// the stage between frames
	HardwareSync bool `json:"hardwareSync" yaml:"HardwareSync"`

	// FPS paces software-stepped acquisition; ignored when HardwareSync
	// is true or when zero
	FPS float64 `json:"fps" yaml:"FPS"`

	// Dir is the output directory
	Dir string `json:"dir" yaml:"Dir"`

	// Name is the run name, used as the output filename prefix
	Name string `json:"name" yaml:"Name"`
}

// Validate returns an error describing the first unusable parameter
func (p Params) Validate() error {
	if p.StepSize == 0 {
		return fmt.Errorf("step size may not be zero")
	}
	if (p.MidPos-p.StartEndPos)*p.StepSize < 0 {
		return fmt.Errorf("step size %f walks away from mid position", p.StepSize)
	}
	if p.NumTimePoints < 1 {
		return fmt.Errorf("number of time points must be >= 1, got %d", p.NumTimePoints)
	}
	if p.Name == "" {
		return fmt.Errorf("run name may not be empty")
	}
	return nil
}

// NumZ returns the number of z slices per volume.  The quotient is
// rounded to absorb float error, e.g. 1/0.1 = 9.9999... is 10 slices
func (p Params) NumZ() int {
	steps := math.Abs(p.MidPos-p.StartEndPos) / math.Abs(p.StepSize)
	return int(mathx.Round(steps, 1)) + 1
}

// Setup computes the stage waveform, the per-z-index focus positions, and
// the event plan for p.  When p.Relative, the stage is queried for its
// current position and the waveform is shifted about it.
func Setup(p Params, stage motion.Mover, axis string) (table, positions []float64, events []Event, err error) {
	err = p.Validate()
	if err != nil {
		return nil, nil, nil, err
	}
	table = Triangle(p.StartEndPos, p.MidPos, p.StepSize)
	positions = Ascend(p.StartEndPos, p.MidPos, p.StepSize)
	if p.Relative {
		var cur float64
		cur, err = stage.GetPos(axis)
		if err != nil {
			return nil, nil, nil, err
		}
		table = Offset(table, cur)
		positions = Offset(positions, cur)
	}
	// the plan addresses NumZ slices, not len(positions): with an uneven
	// step Ascend carries one overshoot entry past mid which is loaded to
	// the controller but never an acquisition target, and the preview and
	// the run must agree on the event count
	events = Plan(p.NumTimePoints, ZIndices(p.NumZ()))
	return table, positions, events, nil
}
