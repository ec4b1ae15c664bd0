package motion_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"goji.io"
	"goji.io/pat"

	"github.com/lightsheet-lab/zsweep/generichttp/motion"
	"github.com/lightsheet-lab/zsweep/pi"
	"github.com/lightsheet-lab/zsweep/server"
	"github.com/lightsheet-lab/zsweep/util"
)

// newLimitedServer builds the mux the way the daemon does: the limit
// middleware applied mux-wide over every motion route
func newLimitedServer(t *testing.T) (*httptest.Server, *pi.MockController) {
	t.Helper()
	ctl := pi.NewControllerMock()
	if err := ctl.Enable("Z"); err != nil {
		t.Fatal(err)
	}
	httper := motion.NewHTTPMotionController(ctl)
	limits := motion.LimitMiddleware{Limits: map[string]util.Limiter{"Z": {Min: -50, Max: 50}}, Mov: ctl}
	limits.Inject(httper)
	mux := goji.SubMux()
	mux.Use(limits.Check)
	httper.RT().Bind(mux)
	root := goji.NewMux()
	root.Handle(pat.New("/*"), mux)
	srv := httptest.NewServer(root)
	t.Cleanup(srv.Close)
	return srv, ctl
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

func TestLimitMiddlewarePassesNonMoveRoutes(t *testing.T) {
	srv, _ := newLimitedServer(t)
	resp, err := http.Get(srv.URL + "/axis/Z/pos")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected position query on a limited axis to pass, got %d", resp.StatusCode)
	}
	f := server.FloatT{}
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		t.Errorf("expected a float payload, got %v", err)
	}

	resp, err = http.Get(srv.URL + "/axis/Z/enabled")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected enabled query on a limited axis to pass, got %d", resp.StatusCode)
	}
}

func TestLimitMiddlewarePassesSequenceRoutes(t *testing.T) {
	srv, ctl := newLimitedServer(t)
	resp := postJSON(t, srv.URL+"/axis/Z/sequence", []float64{0, 1, 2})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected sequence upload on a limited axis to pass, got %d", resp.StatusCode)
	}
	if len(ctl.Sequence("Z")) != 3 {
		t.Errorf("expected 3-entry table on controller, got %d", len(ctl.Sequence("Z")))
	}
	resp = postJSON(t, srv.URL+"/axis/Z/sequence/start", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected arm on a limited axis to pass, got %d", resp.StatusCode)
	}
	resp = postJSON(t, srv.URL+"/axis/Z/sequence/stop", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected disarm on a limited axis to pass, got %d", resp.StatusCode)
	}
}

func TestLimitMiddlewareVetsMoves(t *testing.T) {
	srv, ctl := newLimitedServer(t)
	resp := postJSON(t, srv.URL+"/axis/Z/pos", server.FloatT{F64: 25})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected in-limit move to pass, got %d", resp.StatusCode)
	}
	pos, _ := ctl.GetPos("Z")
	if pos != 25 {
		t.Errorf("expected axis at 25, got %f", pos)
	}

	resp = postJSON(t, srv.URL+"/axis/Z/pos", server.FloatT{F64: 100})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected out-of-limit move rejected with 400, got %d", resp.StatusCode)
	}
	pos, _ = ctl.GetPos("Z")
	if pos != 25 {
		t.Errorf("expected axis unmoved at 25, got %f", pos)
	}
}

func TestLimitMiddlewareVetsRelativeMoves(t *testing.T) {
	srv, ctl := newLimitedServer(t)
	if err := ctl.MoveAbs("Z", 40); err != nil {
		t.Fatal(err)
	}
	resp := postJSON(t, srv.URL+"/axis/Z/pos?relative=true", server.FloatT{F64: 20})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected relative move past the limit rejected with 400, got %d", resp.StatusCode)
	}
	pos, _ := ctl.GetPos("Z")
	if pos != 40 {
		t.Errorf("expected axis unmoved at 40, got %f", pos)
	}
}
