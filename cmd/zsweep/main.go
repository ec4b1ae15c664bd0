package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/theckman/yacspin"
	yml "gopkg.in/yaml.v2"

	"github.com/lightsheet-lab/zsweep/generichttp/camera"
	"github.com/lightsheet-lab/zsweep/pi"
	"github.com/lightsheet-lab/zsweep/simcam"
	"github.com/lightsheet-lab/zsweep/sweep"
)

var (
	// Version is the version number.  Typically injected via ldflags with git build
	Version = "1"

	// ConfigFileName is what it sounds like
	ConfigFileName = "zsweep.yml"
	k              = koanf.New(".")
)

// StageConfig holds the connection parameters for the focus stage
type StageConfig struct {
	// Addr is the network or filesystem address of the controller,
	// e.g. 192.168.100.123:50000 or /dev/ttyS4
	Addr string `koanf:"Addr" yaml:"Addr"`

	// Serial is true if the connection is RS232, false for TCP
	Serial bool `koanf:"Serial" yaml:"Serial"`

	// Axis is the axis the waveform plays on
	Axis string `koanf:"Axis" yaml:"Axis"`
}

// CameraConfig holds the camera parameters for a run
type CameraConfig struct {
	// Width and Height are the simulated sensor size
	Width  int `koanf:"Width" yaml:"Width"`
	Height int `koanf:"Height" yaml:"Height"`

	// ExposureTime is parsed with time.ParseDuration, e.g. 10ms
	ExposureTime string `koanf:"ExposureTime" yaml:"ExposureTime"`

	// Framerate is the frame rate in fps
	Framerate float64 `koanf:"Framerate" yaml:"Framerate"`

	// AOI restricts readout to a sub-rectangle of the sensor when
	// Width and Height are nonzero
	AOI camera.AOI `koanf:"AOI" yaml:"AOI"`
}

// Config is the full CLI configuration
type Config struct {
	// Mock replaces the stage with an in-memory simulation
	Mock bool `koanf:"Mock" yaml:"Mock"`

	Stage  StageConfig  `koanf:"Stage" yaml:"Stage"`
	Camera CameraConfig `koanf:"Camera" yaml:"Camera"`
	Sweep  sweep.Params `koanf:"Sweep" yaml:"Sweep"`
}

func defaults() Config {
	return Config{
		Mock: true,
		Stage: StageConfig{
			Addr: "192.168.100.10:50000",
			Axis: "Z"},
		Camera: CameraConfig{
			Width:        512,
			Height:       512,
			ExposureTime: "10ms",
			Framerate:    100},
		Sweep: sweep.Params{
			StartEndPos:   -2.5,
			MidPos:        2.5,
			StepSize:      0.25,
			Relative:      true,
			NumTimePoints: 10,
			HardwareSync:  true,
			FPS:           100,
			Dir:           ".",
			Name:          "zstack"}}
}

func setupconfig() {
	k.Load(structs.Provider(defaults(), "koanf"), nil)
	if err := k.Load(file.Provider(ConfigFileName), yaml.Parser()); err != nil {
		errtxt := err.Error()
		if !strings.Contains(errtxt, "no such") { // file missing, who cares
			log.Fatalf("error loading config: %v", err)
		}
	}
}

func root() {
	str := `zsweep acquires fast time-series z-stacks (TZYX) from a camera and a
piezo focus stage.  The triangle waveform of focus positions is loaded
into the stage controller and advanced by the camera's frame-sync line,
so no host round-trip happens between frames.

Usage:
	zsweep <command>

Commands:
	run
	plan
	help
	mkconf
	conf
	version`
	fmt.Println(str)
}

func help() {
	str := `zsweep is configured via its .yml file; run zsweep mkconf to write one
with the defaults.  For a primer on YAML, see https://yaml.org/start.html

The Sweep section mirrors one acquisition run:
  StartEndPos   focus position the waveform starts and ends at
  MidPos        turning point of the waveform
  StepSize      focus increment between z slices
  Relative      treat positions as offsets about the current focus
  NumTimePoints number of volumes
  HardwareSync  step the stage from the camera frame-sync line
  FPS           frame pacing for software-stepped runs
  Dir, Name     output directory and run name

With Mock: true no hardware is touched; the stage and camera are
simulated in memory and a real stack is still written to Dir.`
	fmt.Println(str)
}

func mkconf() {
	c := Config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	f, err := os.Create(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	err = yml.NewEncoder(f).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func printconf() {
	c := Config{}
	k.Unmarshal("", &c)
	err := yml.NewEncoder(os.Stdout).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func pversion() {
	fmt.Printf("zsweep version %v\n", Version)
}

func plan() {
	c := Config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	if err := c.Sweep.Validate(); err != nil {
		log.Fatal(err)
	}
	events := sweep.Plan(c.Sweep.NumTimePoints, sweep.ZIndices(c.Sweep.NumZ()))
	for _, ev := range events {
		fmt.Printf("t=%d\tz=%d\n", ev.T, ev.Z)
	}
}

func run() {
	c := Config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}

	cam := simcam.New(c.Camera.Width, c.Camera.Height)
	if c.Camera.ExposureTime != "" {
		texp, err := time.ParseDuration(c.Camera.ExposureTime)
		if err != nil {
			log.Fatal("parsing exposure time: ", err)
		}
		if err := cam.SetExposureTime(texp); err != nil {
			log.Fatal(err)
		}
	}
	if c.Camera.Framerate > 0 {
		if err := cam.SetFramerate(c.Camera.Framerate); err != nil {
			log.Fatal(err)
		}
	}
	if c.Camera.AOI.Width > 0 && c.Camera.AOI.Height > 0 {
		if err := cam.SetAOI(c.Camera.AOI); err != nil {
			log.Fatal(err)
		}
	}
	if err := cam.SetTriggerOutput(c.Sweep.HardwareSync); err != nil {
		log.Fatal(err)
	}

	var stage sweep.Stage
	if c.Mock {
		mock := pi.NewControllerMock()
		if err := mock.Enable(c.Stage.Axis); err != nil {
			log.Fatal(err)
		}
		// close the trigger loop in simulation; on the bench this is the
		// cable from the camera's frame-sync output to TRIG IN
		cam.OnExpose = func() { mock.TriggerStep(c.Stage.Axis) }
		stage = mock
	} else {
		stage = pi.NewController(c.Stage.Addr, c.Stage.Serial)
	}

	table, positions, events, err := sweep.Setup(c.Sweep, stage, c.Stage.Axis)
	if err != nil {
		log.Fatal(err)
	}
	eng := &sweep.Engine{
		Cam:          cam,
		Stage:        stage,
		Axis:         c.Stage.Axis,
		Table:        table,
		Positions:    positions,
		HardwareSync: c.Sweep.HardwareSync,
		FPS:          c.Sweep.FPS}

	spinner, err := yacspin.New(yacspin.Config{
		Frequency:       100 * time.Millisecond,
		CharSet:         yacspin.CharSets[59],
		Suffix:          " acquiring",
		Message:         fmt.Sprintf("%d frames (%d t x %d z)", len(events), c.Sweep.NumTimePoints, len(positions)),
		StopMessage:     "done",
		StopFailMessage: "failed"})
	if err != nil {
		log.Fatal(err)
	}
	spinner.Start()
	path, err := eng.Run(context.Background(), c.Sweep.Dir, c.Sweep.Name, events)
	if err != nil {
		spinner.StopFail()
		log.Fatal(err)
	}
	spinner.Stop()
	log.Println("wrote", path)
}

func main() {
	args := os.Args
	if len(args) == 1 {
		root()
		return
	}
	setupconfig()
	cmd := strings.ToLower(args[1])
	switch cmd {
	case "run":
		run()
	case "plan":
		plan()
	case "help":
		help()
	case "mkconf":
		mkconf()
	case "conf":
		printconf()
	case "version":
		pversion()
	default:
		root()
	}
}
