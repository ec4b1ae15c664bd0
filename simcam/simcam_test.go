package simcam_test

import (
	"testing"
	"time"

	"github.com/lightsheet-lab/zsweep/generichttp/camera"
	"github.com/lightsheet-lab/zsweep/simcam"
)

func TestFramesMatchAOI(t *testing.T) {
	cam := simcam.New(64, 48)
	frame, err := cam.GetFrame()
	if err != nil {
		t.Fatal(err)
	}
	if len(frame) != 64*48 {
		t.Fatalf("expected %d px, got %d", 64*48, len(frame))
	}
	err = cam.SetAOI(camera.AOI{Left: 1, Top: 1, Width: 32, Height: 16})
	if err != nil {
		t.Fatal(err)
	}
	frame, err = cam.GetFrame()
	if err != nil {
		t.Fatal(err)
	}
	if len(frame) != 32*16 {
		t.Fatalf("expected %d px after AOI change, got %d", 32*16, len(frame))
	}
}

func TestAOIMustFitSensor(t *testing.T) {
	cam := simcam.New(64, 48)
	err := cam.SetAOI(camera.AOI{Left: 33, Top: 1, Width: 64, Height: 48})
	if err == nil {
		t.Error("expected oversized AOI to be rejected")
	}
}

func TestFramesEncodeCaptureOrder(t *testing.T) {
	cam := simcam.New(8, 8)
	first, _ := cam.GetFrame()
	second, _ := cam.GetFrame()
	if second[0] != first[0]+1 {
		t.Errorf("expected frame counter offset of 1, got %d and %d", first[0], second[0])
	}
}

func TestTriggerOutputFiresOnExpose(t *testing.T) {
	cam := simcam.New(8, 8)
	fired := 0
	cam.OnExpose = func() { fired++ }
	cam.GetFrame()
	if fired != 0 {
		t.Error("expected no pulse with frame-sync output off")
	}
	cam.SetTriggerOutput(true)
	cam.GetFrame()
	cam.GetFrame()
	if fired != 2 {
		t.Errorf("expected one pulse per frame, got %d", fired)
	}
}

func TestBadSettingsRejected(t *testing.T) {
	cam := simcam.New(8, 8)
	if err := cam.SetExposureTime(-time.Millisecond); err == nil {
		t.Error("expected negative exposure to be rejected")
	}
	if err := cam.SetFramerate(0); err == nil {
		t.Error("expected zero framerate to be rejected")
	}
}
