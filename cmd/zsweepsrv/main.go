// zsweepsrv exposes the bench hardware over HTTP, one URL prefix per
// device plus /sweep for acquisition runs.
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"goji.io"
	"goji.io/pat"
	yml "gopkg.in/yaml.v2"

	"github.com/lightsheet-lab/zsweep/generichttp"
	"github.com/lightsheet-lab/zsweep/generichttp/camera"
	"github.com/lightsheet-lab/zsweep/generichttp/motion"
	"github.com/lightsheet-lab/zsweep/imgrec"
	"github.com/lightsheet-lab/zsweep/pi"
	"github.com/lightsheet-lab/zsweep/server/middleware/locker"
	"github.com/lightsheet-lab/zsweep/simcam"
	"github.com/lightsheet-lab/zsweep/sweep"
	"github.com/lightsheet-lab/zsweep/util"
)

var (
	// Version is the version number.  Typically injected via ldflags with git build
	Version = "1"

	// ConfigFileName is what it sounds like
	ConfigFileName = "zsweepsrv.yml"
	k              = koanf.New(".")
)

// StageConfig holds the connection parameters for the focus stage
type StageConfig struct {
	// Addr is the network or filesystem address of the controller
	Addr string `koanf:"Addr" yaml:"Addr"`

	// Serial is true if the connection is RS232, false for TCP
	Serial bool `koanf:"Serial" yaml:"Serial"`

	// Axis is the axis acquisition runs play their waveform on
	Axis string `koanf:"Axis" yaml:"Axis"`

	// Limits are software travel limits imposed per axis
	Limits map[string]util.Limiter `koanf:"Limits" yaml:"Limits"`
}

// CameraConfig holds the simulated sensor geometry
type CameraConfig struct {
	Width  int `koanf:"Width" yaml:"Width"`
	Height int `koanf:"Height" yaml:"Height"`
}

// Config is the top-level daemon configuration
type Config struct {
	// Addr is the address:port to listen on
	Addr string `koanf:"Addr" yaml:"Addr"`

	// Root is the directory stacks and archived frames land in
	Root string `koanf:"Root" yaml:"Root"`

	// Prefix is the filename prefix for archived camera frames
	Prefix string `koanf:"Prefix" yaml:"Prefix"`

	// Mock replaces the stage with an in-memory simulation
	Mock bool `koanf:"Mock" yaml:"Mock"`

	Stage  StageConfig  `koanf:"Stage" yaml:"Stage"`
	Camera CameraConfig `koanf:"Camera" yaml:"Camera"`
}

func defaults() Config {
	return Config{
		Addr:   ":8000",
		Root:   "data",
		Prefix: "frame",
		Mock:   true,
		Stage: StageConfig{
			Addr: "192.168.100.10:50000",
			Axis: "Z",
			Limits: map[string]util.Limiter{
				"Z": {Min: -50, Max: 50}}},
		Camera: CameraConfig{
			Width:  512,
			Height: 512}}
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

// buildMux assembles the daemon's routes:
//
//	/stage/...  motion control, software limits, wave tables
//	/camera/... exposure, AOI, framerate, frame capture
//	/sweep/...  acquisition runs and the hardware lock
func buildMux(c Config) http.Handler {
	cam := simcam.New(c.Camera.Width, c.Camera.Height)

	var stage sweep.Stage
	if c.Mock {
		mock := pi.NewControllerMock()
		if err := mock.Enable(c.Stage.Axis); err != nil {
			log.Fatal(err)
		}
		// in simulation the camera's frame-sync line is a function call
		cam.OnExpose = func() { mock.TriggerStep(c.Stage.Axis) }
		stage = mock
	} else {
		stage = pi.NewController(c.Stage.Addr, c.Stage.Serial)
	}

	lock := locker.New()
	rec := imgrec.New(c.Root, c.Prefix)

	httpStage := motion.NewHTTPMotionController(stage)
	limits := motion.LimitMiddleware{Limits: c.Stage.Limits, Mov: stage}
	limits.Inject(httpStage)

	httpCam := camera.NewHTTPCamera(cam, rec)
	imgrec.Inject(httpCam, rec)

	sweeper := sweep.NewHTTPSweeper(cam, stage, c.Stage.Axis, c.Root, lock)
	locker.Inject(sweeper, lock)

	root := goji.NewMux()

	stageMux := goji.SubMux()
	stageMux.Use(lock.Check)
	stageMux.Use(limits.Check)
	httpStage.RT().Bind(stageMux)
	root.Handle(pat.New(generichttp.SubMuxSanitize("stage")), stageMux)

	camMux := goji.SubMux()
	camMux.Use(lock.Check)
	httpCam.RT().Bind(camMux)
	root.Handle(pat.New(generichttp.SubMuxSanitize("camera")), camMux)

	sweepMux := goji.SubMux()
	sweeper.RT().Bind(sweepMux)
	root.Handle(pat.New(generichttp.SubMuxSanitize("sweep")), sweepMux)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Handle("/*", root)
	return r
}

func roothelp() {
	str := `zsweepsrv serves the z-sweep bench over HTTP.

Usage:
	zsweepsrv <command>

Commands:
	run
	help
	mkconf
	conf
	version`
	fmt.Println(str)
}

func help() {
	str := `zsweepsrv is configured via its .yml file; run zsweepsrv mkconf to
write one with the defaults.

Routes are grouped by device:
  /stage/axis/:axis/...   position, enable, home, sequence tables
  /camera/...             exposure-time, aoi, framerate, image
  /sweep/run              POST acquisition parameters, get back the stack path
  /sweep/plan             POST parameters, get back the (time, z) event list
  /sweep/lock             GET/POST the hardware reservation

While a run is in flight the stage and camera routes answer 423.`
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
	fmt.Printf("zsweepsrv version %v\n", Version)
}

func run() {
	c := Config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	mux := buildMux(c)
	log.Println("listening on", c.Addr)
	log.Fatal(http.ListenAndServe(c.Addr, mux))
}

func main() {
	args := os.Args
	if len(args) == 1 {
		roothelp()
		return
	}
	setupconfig()
	cmd := strings.ToLower(args[1])
	switch cmd {
	case "run":
		run()
	case "help":
		help()
	case "mkconf":
		mkconf()
	case "conf":
		printconf()
	case "version":
		pversion()
	default:
		roothelp()
	}
}
