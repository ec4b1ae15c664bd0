/*Package simcam contains a simulated scientific camera.

It implements the same capability interfaces as a real camera driver, so
the acquisition engine and HTTP layer run unmodified without hardware.
Frames are deterministic: a horizontal ramp offset by the frame counter,
so a TZYX stack acquired from the simulator encodes its own capture order.
*/
package simcam

import (
	"fmt"
	"sync"
	"time"

	"github.com/astrogo/fitsio"
	"github.com/lightsheet-lab/zsweep/generichttp/camera"
)

// Camera is a simulated camera.  The zero value is not usable; create
// with New.
type Camera struct {
	mu sync.Mutex

	sensorW, sensorH int
	aoi              camera.AOI
	exposure         time.Duration
	framerate        float64
	triggerOut       bool
	frameCount       int

	// OnExpose, if set, is called once per captured frame while the
	// frame-sync output is on.  It stands in for the pulse a real camera
	// emits on its trigger output line.
	OnExpose func()
}

// New returns a simulated camera with the given sensor size, full-sensor
// AOI, 10 ms exposure and 100 fps
func New(width, height int) *Camera {
	return &Camera{
		sensorW:   width,
		sensorH:   height,
		aoi:       camera.AOI{Left: 1, Top: 1, Width: width, Height: height},
		exposure:  10 * time.Millisecond,
		framerate: 100}
}

// GetFrame captures one frame
func (c *Camera) GetFrame() ([]uint16, error) {
	c.mu.Lock()
	aoi := c.aoi
	count := c.frameCount
	c.frameCount++
	fire := c.triggerOut && c.OnExpose != nil
	cb := c.OnExpose
	c.mu.Unlock()

	buf := make([]uint16, aoi.Width*aoi.Height)
	for y := 0; y < aoi.Height; y++ {
		for x := 0; x < aoi.Width; x++ {
			buf[y*aoi.Width+x] = uint16((x + count) % 65536)
		}
	}
	if fire {
		cb()
	}
	return buf, nil
}

// SetExposureTime sets the exposure time
func (c *Camera) SetExposureTime(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("exposure time must be positive, got %v", d)
	}
	c.mu.Lock()
	c.exposure = d
	c.mu.Unlock()
	return nil
}

// GetExposureTime gets the exposure time
func (c *Camera) GetExposureTime() (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exposure, nil
}

// SetAOI sets the area of interest.  The AOI must fit on the sensor.
func (c *Camera) SetAOI(aoi camera.AOI) error {
	if aoi.Left < 1 || aoi.Top < 1 ||
		aoi.Left-1+aoi.Width > c.sensorW ||
		aoi.Top-1+aoi.Height > c.sensorH {
		return fmt.Errorf("AOI %+v does not fit on %dx%d sensor", aoi, c.sensorW, c.sensorH)
	}
	c.mu.Lock()
	c.aoi = aoi
	c.mu.Unlock()
	return nil
}

// GetAOI retrieves the current area of interest
func (c *Camera) GetAOI() (camera.AOI, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aoi, nil
}

// SetFramerate sets the framerate in fps
func (c *Camera) SetFramerate(fps float64) error {
	if fps <= 0 {
		return fmt.Errorf("framerate must be positive, got %f", fps)
	}
	c.mu.Lock()
	c.framerate = fps
	c.mu.Unlock()
	return nil
}

// GetFramerate gets the framerate in fps
func (c *Camera) GetFramerate() (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.framerate, nil
}

// SetTriggerOutput turns the simulated frame-sync output on or off
func (c *Camera) SetTriggerOutput(on bool) error {
	c.mu.Lock()
	c.triggerOut = on
	c.mu.Unlock()
	return nil
}

// GetTriggerOutput returns true if the frame-sync output is on
func (c *Camera) GetTriggerOutput() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.triggerOut, nil
}

// Frames returns the number of frames captured so far
func (c *Camera) Frames() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frameCount
}

// CollectHeaderMetadata produces FITS cards describing the camera state
func (c *Camera) CollectHeaderMetadata() []fitsio.Card {
	c.mu.Lock()
	defer c.mu.Unlock()
	return []fitsio.Card{
		{Name: "CAMMODEL", Value: "simcam", Comment: "camera model"},
		{Name: "EXPTIME", Value: c.exposure.Seconds(), Comment: "exposure time, seconds"},
		{Name: "FPS", Value: c.framerate, Comment: "frame rate"},
		{Name: "AOIW", Value: c.aoi.Width, Comment: "AOI width, px"},
		{Name: "AOIH", Value: c.aoi.Height, Comment: "AOI height, px"},
	}
}
