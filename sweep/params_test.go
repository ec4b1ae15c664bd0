package sweep_test

import (
	"testing"

	"github.com/lightsheet-lab/zsweep/pi"
	"github.com/lightsheet-lab/zsweep/sweep"
)

func TestNumZEvenStep(t *testing.T) {
	p := sweep.Params{StartEndPos: -2.5, MidPos: 2.5, StepSize: 0.25}
	if nz := p.NumZ(); nz != 21 {
		t.Errorf("expected 21 slices, got %d", nz)
	}
}

func TestNumZAbsorbsFloatError(t *testing.T) {
	// 1/0.1 is 9.9999... in floating point; truncation would lose a slice
	p := sweep.Params{StartEndPos: 0, MidPos: 1, StepSize: 0.1}
	if nz := p.NumZ(); nz != 11 {
		t.Errorf("expected 11 slices, got %d", nz)
	}
}

func TestSetupUnevenStepPlanMatchesPreview(t *testing.T) {
	stage := pi.NewControllerMock()
	if err := stage.Enable("Z"); err != nil {
		t.Fatal(err)
	}
	// 0.3 does not divide 1.0; the waveform overshoots but the event plan
	// must agree with the NumZ-based preview
	p := sweep.Params{
		StartEndPos:   0,
		MidPos:        1,
		StepSize:      0.3,
		NumTimePoints: 3,
		Name:          "run"}
	_, positions, events, err := sweep.Setup(p, stage, "Z")
	if err != nil {
		t.Fatal(err)
	}
	preview := sweep.Plan(p.NumTimePoints, sweep.ZIndices(p.NumZ()))
	if len(events) != len(preview) {
		t.Fatalf("expected run plan of %d events to match preview, got %d", len(preview), len(events))
	}
	if len(events) != p.NumTimePoints*p.NumZ() {
		t.Errorf("expected %d events, got %d", p.NumTimePoints*p.NumZ(), len(events))
	}
	// every planned slice must be addressable in the waveform, overshoot
	// entries included
	for _, ev := range events {
		if ev.Z < 0 || ev.Z >= len(positions) {
			t.Fatalf("event z=%d outside %d positions", ev.Z, len(positions))
		}
	}
}
