package sweep

import (
	"encoding/json"
	"go/types"
	"net/http"

	"github.com/lightsheet-lab/zsweep/server"
	"github.com/lightsheet-lab/zsweep/server/middleware/locker"

	"goji.io/pat"
)

// HTTPSweeper exposes acquisition runs over HTTP.  The camera and stage
// are shared with the rest of the daemon; Lock, if set, reserves them for
// the duration of a run so concurrent requests see 423 instead of
// interleaved hardware commands.
type HTTPSweeper struct {
	// Cam is the camera runs capture from
	Cam Camera

	// Stage is the focus stage
	Stage Stage

	// Axis is the stage axis the waveform plays on
	Axis string

	// Dir is the default output directory for runs that do not name one
	Dir string

	// Lock reserves the hardware during a run
	Lock *locker.Locker

	RouteTable server.RouteTable
}

// NewHTTPSweeper returns an HTTP wrapper with the route table pre-configured
func NewHTTPSweeper(cam Camera, stage Stage, axis, dir string, lock *locker.Locker) *HTTPSweeper {
	h := &HTTPSweeper{Cam: cam, Stage: stage, Axis: axis, Dir: dir, Lock: lock}
	h.RouteTable = server.RouteTable{
		pat.Post("/run"):  h.Run,
		pat.Post("/plan"): h.Plan,
	}
	return h
}

// RT satisfies server.HTTPer
func (h *HTTPSweeper) RT() server.RouteTable {
	return h.RouteTable
}

// Plan returns the event list for the posted parameters without touching
// hardware, for dry-run inspection
func (h *HTTPSweeper) Plan(w http.ResponseWriter, r *http.Request) {
	p := Params{}
	err := json.NewDecoder(r.Body).Decode(&p)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	err = p.Validate()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	events := Plan(p.NumTimePoints, ZIndices(p.NumZ()))
	w.Header().Set("Content-Type", "application/json")
	err = json.NewEncoder(w).Encode(events)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Run performs an acquisition from the posted parameters and returns the
// path of the written stack as json {"str": path}
func (h *HTTPSweeper) Run(w http.ResponseWriter, r *http.Request) {
	p := Params{}
	err := json.NewDecoder(r.Body).Decode(&p)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if p.Dir == "" {
		p.Dir = h.Dir
	}
	// reserve the hardware before Setup; relative mode queries the stage
	// and must not race an in-flight run
	if h.Lock != nil {
		if !h.Lock.TryLock() {
			w.WriteHeader(http.StatusLocked)
			return
		}
		defer h.Lock.Unlock()
	}
	table, positions, events, err := Setup(p, h.Stage, h.Axis)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	eng := &Engine{
		Cam:          h.Cam,
		Stage:        h.Stage,
		Axis:         h.Axis,
		Table:        table,
		Positions:    positions,
		HardwareSync: p.HardwareSync,
		FPS:          p.FPS}
	path, err := eng.Run(r.Context(), p.Dir, p.Name, events)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	hp := server.HumanPayload{T: types.String, String: path}
	hp.EncodeAndRespond(w, r)
}
