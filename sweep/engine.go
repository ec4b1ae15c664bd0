package sweep

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/astrogo/fitsio"
	"github.com/lightsheet-lab/zsweep/generichttp/camera"
	"github.com/lightsheet-lab/zsweep/generichttp/motion"
	"github.com/lightsheet-lab/zsweep/imgrec"

	"golang.org/x/time/rate"
)

// Camera is the subset of a camera the engine drives
type Camera interface {
	// GetFrame triggers capture of a frame and returns the strided pixels
	GetFrame() ([]uint16, error)

	// GetAOI retrieves the current AOI, used for the stack dimensions
	GetAOI() (camera.AOI, error)

	// GetExposureTime gets the exposure time, recorded in the stack header
	GetExposureTime() (time.Duration, error)
}

// Stage is the subset of a motion controller the engine drives
type Stage interface {
	motion.Mover
	motion.Sequencer
}

// Engine captures an event plan against a camera and a focus stage and
// persists the resulting stack.  One Engine may be reused for many runs;
// it is not concurrent safe.
type Engine struct {
	// Cam is the camera frames are drawn from
	Cam Camera

	// Stage is the focus stage
	Stage Stage

	// Axis is the stage axis the waveform plays on
	Axis string

	// Table is the waveform uploaded to the controller for
	// hardware-synced runs
	Table []float64

	// Positions maps z index to focus position for software-stepped runs
	Positions []float64

	// HardwareSync selects hardware-triggered sequencing.  When false the
	// engine moves the stage itself between frames, paced to FPS.
	HardwareSync bool

	// FPS paces software-stepped runs; zero disables pacing
	FPS float64
}

// Run captures one frame per event, in order, and writes the stack to
// dir as a FITS cube named after the run.  On exit, the wave generator is
// disarmed and the stage is returned to the position it held at entry.
// The path of the written file is returned.
func (e *Engine) Run(ctx context.Context, dir, name string, events []Event) (string, error) {
	if len(events) == 0 {
		return "", fmt.Errorf("empty event plan")
	}
	for _, ev := range events {
		if ev.Z < 0 || ev.Z >= len(e.Positions) {
			return "", fmt.Errorf("event z index %d outside waveform of %d slices", ev.Z, len(e.Positions))
		}
	}

	startPos, err := e.Stage.GetPos(e.Axis)
	if err != nil {
		return "", err
	}

	if e.HardwareSync {
		if len(e.Table) == 0 {
			return "", fmt.Errorf("hardware sync requested with no waveform table")
		}
		err = e.Stage.LoadStageSequence(e.Axis, e.Table)
		if err != nil {
			return "", err
		}
		err = e.Stage.StartStageSequence(e.Axis)
		if err != nil {
			return "", err
		}
	}
	defer func() {
		// best effort restore; the run's data is already safe
		if e.HardwareSync {
			if err := e.Stage.StopStageSequence(e.Axis); err != nil {
				log.Println("disarming wave generator:", err)
			}
		}
		if err := e.Stage.MoveAbs(e.Axis, startPos); err != nil {
			log.Println("returning stage to start:", err)
		}
	}()

	var limiter *rate.Limiter
	if !e.HardwareSync && e.FPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(e.FPS), 1)
	}

	frames := make([][]uint16, 0, len(events))
	for _, ev := range events {
		if limiter != nil {
			err = limiter.Wait(ctx)
			if err != nil {
				return "", err
			}
		} else if err = ctx.Err(); err != nil {
			return "", err
		}
		if !e.HardwareSync {
			err = e.Stage.MoveAbs(e.Axis, e.Positions[ev.Z])
			if err != nil {
				return "", err
			}
		}
		frame, err := e.Cam.GetFrame()
		if err != nil {
			return "", fmt.Errorf("t=%d z=%d: %w", ev.T, ev.Z, err)
		}
		frames = append(frames, frame)
	}

	aoi, err := e.Cam.GetAOI()
	if err != nil {
		return "", err
	}
	cards, err := e.headerCards(events)
	if err != nil {
		return "", err
	}

	rec := imgrec.New(dir, name)
	rec.Incr()
	path := rec.Path()
	err = camera.WriteFits(rec, cards, frames, aoi.Width, aoi.Height)
	if err != nil {
		return "", err
	}
	return path, nil
}

func (e *Engine) headerCards(events []Event) ([]fitsio.Card, error) {
	numT := events[len(events)-1].T + 1
	numZ := len(events) / numT
	cards := []fitsio.Card{
		{Name: "NTIME", Value: numT, Comment: "number of time points"},
		{Name: "NZ", Value: numZ, Comment: "z slices per volume"},
		{Name: "ZSTART", Value: e.Positions[0], Comment: "first z position"},
		{Name: "ZEND", Value: e.Positions[numZ-1], Comment: "last z position"},
		{Name: "HWSYNC", Value: e.HardwareSync, Comment: "stage stepped by camera frame-sync"},
		{Name: "DATE-OBS", Value: time.Now().UTC().Format(time.RFC3339), Comment: "acquisition time, UTC"},
	}
	if carder, ok := e.Cam.(camera.MetadataMaker); ok {
		cards = append(cards, carder.CollectHeaderMetadata()...)
	} else {
		texp, err := e.Cam.GetExposureTime()
		if err != nil {
			return nil, err
		}
		cards = append(cards, fitsio.Card{Name: "EXPTIME", Value: texp.Seconds(), Comment: "exposure time, seconds"})
	}
	return cards, nil
}
