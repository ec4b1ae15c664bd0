// Package camera provides a generic HTTP interface to a scientific camera
package camera

import (
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"time"

	"github.com/astrogo/fitsio"
	"github.com/lightsheet-lab/zsweep/generichttp"
	"github.com/lightsheet-lab/zsweep/imgrec"
	"github.com/lightsheet-lab/zsweep/server"
	"github.com/lightsheet-lab/zsweep/util"

	"goji.io/pat"
)

// AOI describes an area of interest on the camera
type AOI struct {
	// Left is the left pixel index.  1-based
	Left int `json:"left"`

	// Top is the top pixel index.  1-based
	Top int `json:"top"`

	// Width is the width in pixels
	Width int `json:"width"`

	// Height is the height in pixels
	Height int `json:"height"`
}

// Binning encapsulates information about pixel addition on camera
type Binning struct {
	// H is the horizontal binning factor
	H int `json:"h"`

	// V is the vertical binning factor
	V int `json:"v"`
}

// PictureTaker describes an interface to a camera which can capture images
type PictureTaker interface {
	// GetFrame triggers capture of a frame and returns the strided image
	// data as 16-bit integers
	GetFrame() ([]uint16, error)

	// SetExposureTime sets the exposure time
	SetExposureTime(time.Duration) error

	// GetExposureTime gets the exposure time
	GetExposureTime() (time.Duration, error)

	// SetAOI allows the AOI to be set
	SetAOI(AOI) error

	// GetAOI retrieves the current AOI
	GetAOI() (AOI, error)
}

// FramerateManager describes a camera which can have its framerate managed
type FramerateManager interface {
	// SetFramerate sets the framerate of the camera in frames per second
	SetFramerate(float64) error

	// GetFramerate gets the framerate of the camera in frames per second
	GetFramerate() (float64, error)
}

// Triggerer describes a camera which can select its trigger source
type Triggerer interface {
	// SetTriggerOutput turns the camera's frame-sync output on or off.
	// When on, the camera emits one pulse per exposure on its trigger
	// output line, which downstream hardware (e.g. a sequenced focus
	// stage) consumes.
	SetTriggerOutput(bool) error

	// GetTriggerOutput returns true if the frame-sync output is on
	GetTriggerOutput() (bool, error)
}

// MetadataMaker can produce an array of FITS cards
type MetadataMaker interface {
	// CollectHeaderMetadata produces an array of FITS cards
	CollectHeaderMetadata() []fitsio.Card
}

// HTTPCamera wraps a PictureTaker in an HTTP route table, binding routes
// for any of the optional interfaces the concrete type satisfies
type HTTPCamera struct {
	PictureTaker

	// Rec, if non-nil, archives a copy of every FITS frame served
	Rec *imgrec.Recorder

	RouteTable server.RouteTable
}

// NewHTTPCamera returns a new HTTP wrapper with the route table pre-configured
func NewHTTPCamera(p PictureTaker, rec *imgrec.Recorder) HTTPCamera {
	w := HTTPCamera{PictureTaker: p, Rec: rec}
	rt := server.RouteTable{
		pat.Get("/image"): w.GetFrame,
		pat.Get("/exposure-time"): generichttp.GetFloat(func() (float64, error) {
			t, err := p.GetExposureTime()
			return t.Seconds(), err
		}),
		pat.Post("/exposure-time"): w.SetExposureTime,
		pat.Get("/aoi"):            w.GetAOI,
		pat.Post("/aoi"):           w.SetAOI,
	}
	if fm, ok := interface{}(p).(FramerateManager); ok {
		rt[pat.Get("/framerate")] = generichttp.GetFloat(fm.GetFramerate)
		rt[pat.Post("/framerate")] = generichttp.SetFloat(fm.SetFramerate)
	}
	if tr, ok := interface{}(p).(Triggerer); ok {
		rt[pat.Get("/trigger-output")] = generichttp.GetBool(tr.GetTriggerOutput)
		rt[pat.Post("/trigger-output")] = generichttp.SetBool(tr.SetTriggerOutput)
	}
	w.RouteTable = rt
	return w
}

// RT satisfies server.HTTPer
func (h HTTPCamera) RT() server.RouteTable {
	return h.RouteTable
}

// SetExposureTime sets the exposure time on a POST request.
// it can be provided either as a query parameter exposureTime, formatted in
// a way that is parseable by time.ParseDuration, or a json payload with key
// f64, holding the exposure time in seconds.
func (h HTTPCamera) SetExposureTime(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	texp := q.Get("exposureTime")
	var d time.Duration
	var err error
	if texp == "" {
		f := server.FloatT{}
		err = json.NewDecoder(r.Body).Decode(&f)
		defer r.Body.Close()
		d = util.SecsToDuration(f.F64)
	} else {
		if util.AllElementsNumbers(texp) {
			texp = texp + "s"
		}
		d, err = time.ParseDuration(texp)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	err = h.PictureTaker.SetExposureTime(d)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// GetAOI returns the AOI as JSON on a GET request
func (h HTTPCamera) GetAOI(w http.ResponseWriter, r *http.Request) {
	aoi, err := h.PictureTaker.GetAOI()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	err = json.NewEncoder(w).Encode(aoi)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// SetAOI sets the AOI from a JSON body on a POST request
func (h HTTPCamera) SetAOI(w http.ResponseWriter, r *http.Request) {
	aoi := AOI{}
	err := json.NewDecoder(r.Body).Decode(&aoi)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	err = h.PictureTaker.SetAOI(aoi)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// GetFrame takes a picture and returns it on a GET request.
//
// the image format may be specified in a query parameter; default to jpg
//
// the exposure time may be specified as a query parameter in any
// time-looking format, such as "25ms" or "10us".  Strictly speaking, it
// must be a valid input to time.ParseDuration.
//
// if no unit is appended, an s (seconds) is added.
//
// if no exposure time is provided, it is not updated and the existing
// value is used.
func (h HTTPCamera) GetFrame(w http.ResponseWriter, r *http.Request) {
	p := h.PictureTaker
	q := r.URL.Query()
	texp := q.Get("exposureTime")
	if texp != "" {
		if util.AllElementsNumbers(texp) {
			texp = texp + "s"
		}
		T, err := time.ParseDuration(texp)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		err = p.SetExposureTime(T)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	img, err := p.GetFrame()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	aoi, err := p.GetAOI()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	format := q.Get("fmt")
	if format == "" {
		format = "jpg"
	}
	switch format {
	case "jpg", "png":
		buf := make([]byte, len(img))
		for idx := 0; idx < len(img); idx++ {
			buf[idx] = byte(img[idx] / 256) // scale 16 to 8 bits
		}
		im := &image.Gray{Pix: buf, Stride: aoi.Width, Rect: image.Rect(0, 0, aoi.Width, aoi.Height)}
		if format == "jpg" {
			w.Header().Set("Content-Type", "image/jpeg")
			w.WriteHeader(http.StatusOK)
			jpeg.Encode(w, im, nil)
		} else {
			w.Header().Set("Content-Type", "image/png")
			w.WriteHeader(http.StatusOK)
			png.Encode(w, im)
		}
	case "fits":
		cards := []fitsio.Card{}
		if carder, ok := interface{}(p).(MetadataMaker); ok {
			cards = carder.CollectHeaderMetadata()
		}
		hdr := w.Header()
		hdr.Set("Content-Type", "image/fits")
		hdr.Set("Content-Disposition", "attachment; filename=image.fits")
		var dst io.Writer = w
		if h.Rec != nil {
			h.Rec.Incr()
			dst = io.MultiWriter(w, h.Rec)
		}
		err = WriteFits(dst, cards, [][]uint16{img}, aoi.Width, aoi.Height)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	default:
		http.Error(w, fmt.Sprintf("unknown image format %q", format), http.StatusBadRequest)
	}
}
