package sweep_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"goji.io"

	"github.com/lightsheet-lab/zsweep/pi"
	"github.com/lightsheet-lab/zsweep/server"
	"github.com/lightsheet-lab/zsweep/server/middleware/locker"
	"github.com/lightsheet-lab/zsweep/simcam"
	"github.com/lightsheet-lab/zsweep/sweep"
)

func newSweepServer(t *testing.T) (*httptest.Server, *locker.Locker) {
	t.Helper()
	stage := pi.NewControllerMock()
	if err := stage.Enable("Z"); err != nil {
		t.Fatal(err)
	}
	cam := simcam.New(8, 8)
	lock := locker.New()
	h := sweep.NewHTTPSweeper(cam, stage, "Z", t.TempDir(), lock)
	mux := goji.NewMux()
	h.RT().Bind(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, lock
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(body); err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", buf)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestHTTPPlanReturnsEventList(t *testing.T) {
	srv, _ := newSweepServer(t)
	p := sweep.Params{
		StartEndPos:   -1,
		MidPos:        1,
		StepSize:      1,
		NumTimePoints: 2,
		Name:          "run"}
	resp := postJSON(t, srv.URL+"/plan", p)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var events []sweep.Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		t.Fatal(err)
	}
	if len(events) != 6 {
		t.Fatalf("expected 6 events, got %d", len(events))
	}
	// second volume starts where the first ended
	if events[3].T != 1 || events[3].Z != 2 {
		t.Errorf("expected t=1 z=2 at event 3, got t=%d z=%d", events[3].T, events[3].Z)
	}
}

func TestHTTPPlanRejectsBadParams(t *testing.T) {
	srv, _ := newSweepServer(t)
	resp := postJSON(t, srv.URL+"/plan", sweep.Params{Name: "run"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for zero step size, got %d", resp.StatusCode)
	}
}

func TestHTTPRunWritesStackAndReportsPath(t *testing.T) {
	srv, _ := newSweepServer(t)
	p := sweep.Params{
		StartEndPos:   -1,
		MidPos:        1,
		StepSize:      0.5,
		NumTimePoints: 2,
		Name:          "run"}
	resp := postJSON(t, srv.URL+"/run", p)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	s := server.StrT{}
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(s.Str); err != nil {
		t.Errorf("expected stack at reported path %s, got %v", s.Str, err)
	}
}

// countingStage notes position queries, to observe hardware access
type countingStage struct {
	*pi.MockController
	posQueries int
}

func (c *countingStage) GetPos(axis string) (float64, error) {
	c.posQueries++
	return c.MockController.GetPos(axis)
}

func TestHTTPRunWhileLockedDoesNotTouchStage(t *testing.T) {
	stage := &countingStage{MockController: pi.NewControllerMock()}
	if err := stage.Enable("Z"); err != nil {
		t.Fatal(err)
	}
	lock := locker.New()
	h := sweep.NewHTTPSweeper(simcam.New(8, 8), stage, "Z", t.TempDir(), lock)
	mux := goji.NewMux()
	h.RT().Bind(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	lock.Lock()
	defer lock.Unlock()
	// relative mode queries the stage during setup; that must not happen
	// while another run holds the hardware
	p := sweep.Params{
		StartEndPos:   -1,
		MidPos:        1,
		StepSize:      1,
		Relative:      true,
		NumTimePoints: 1,
		Name:          "run"}
	resp := postJSON(t, srv.URL+"/run", p)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusLocked {
		t.Fatalf("expected 423 while hardware reserved, got %d", resp.StatusCode)
	}
	if stage.posQueries != 0 {
		t.Errorf("expected no stage queries while locked, got %d", stage.posQueries)
	}
}

func TestHTTPRunWhileLockedReturns423(t *testing.T) {
	srv, lock := newSweepServer(t)
	lock.Lock()
	defer lock.Unlock()
	p := sweep.Params{
		StartEndPos:   -1,
		MidPos:        1,
		StepSize:      1,
		NumTimePoints: 1,
		Name:          "run"}
	resp := postJSON(t, srv.URL+"/run", p)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusLocked {
		t.Errorf("expected 423 while hardware reserved, got %d", resp.StatusCode)
	}
}
