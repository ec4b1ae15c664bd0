package pi

import (
	"sync"
)

// MockController simulates a GCS2 controller in memory.  Moves complete
// instantly and the wave generator is advanced manually with TriggerStep,
// standing in for edges on the TRIG IN line.
type MockController struct {
	sync.Mutex
	enabled map[string]bool
	homed   map[string]bool
	pos     map[string]float64

	seq    map[string][]float64
	seqIdx map[string]int
	armed  map[string]bool
}

// NewControllerMock returns a mock controller with no axes enabled
func NewControllerMock() *MockController {
	return &MockController{
		enabled: make(map[string]bool),
		homed:   make(map[string]bool),
		pos:     make(map[string]float64),
		seq:     make(map[string][]float64),
		seqIdx:  make(map[string]int),
		armed:   make(map[string]bool)}
}

// Enable enables an axis
func (c *MockController) Enable(axis string) error {
	c.Lock()
	defer c.Unlock()
	c.enabled[axis] = true
	return nil
}

// Disable disables an axis
func (c *MockController) Disable(axis string) error {
	c.Lock()
	defer c.Unlock()
	c.enabled[axis] = false
	return nil
}

// GetEnabled returns true if the axis is enabled
func (c *MockController) GetEnabled(axis string) (bool, error) {
	c.Lock()
	defer c.Unlock()
	return c.enabled[axis], nil
}

// Home homes an axis
func (c *MockController) Home(axis string) error {
	c.Lock()
	defer c.Unlock()
	if !c.enabled[axis] {
		return GCS2Err(5)
	}
	c.homed[axis] = true
	c.pos[axis] = 0
	return nil
}

// GetPos returns the position of an axis
func (c *MockController) GetPos(axis string) (float64, error) {
	c.Lock()
	defer c.Unlock()
	return c.pos[axis], nil
}

// MoveAbs moves an axis to an absolute position
func (c *MockController) MoveAbs(axis string, pos float64) error {
	c.Lock()
	defer c.Unlock()
	if !c.enabled[axis] {
		return GCS2Err(5)
	}
	if c.armed[axis] {
		return GCS2Err(73)
	}
	c.pos[axis] = pos
	return nil
}

// MoveRel moves an axis by a delta
func (c *MockController) MoveRel(axis string, delta float64) error {
	c.Lock()
	defer c.Unlock()
	if !c.enabled[axis] {
		return GCS2Err(5)
	}
	if c.armed[axis] {
		return GCS2Err(73)
	}
	c.pos[axis] += delta
	return nil
}

// LoadStageSequence stores a copy of positions as the axis' wave table
func (c *MockController) LoadStageSequence(axis string, positions []float64) error {
	c.Lock()
	defer c.Unlock()
	if len(positions) == 0 {
		return GCS2Err(26)
	}
	seq := make([]float64, len(positions))
	copy(seq, positions)
	c.seq[axis] = seq
	c.seqIdx[axis] = 0
	return nil
}

// StartStageSequence arms the wave generator and snaps the axis to the
// first table entry
func (c *MockController) StartStageSequence(axis string) error {
	c.Lock()
	defer c.Unlock()
	seq := c.seq[axis]
	if len(seq) == 0 {
		return GCS2Err(67)
	}
	c.armed[axis] = true
	c.seqIdx[axis] = 0
	c.pos[axis] = seq[0]
	return nil
}

// StopStageSequence disarms the wave generator
func (c *MockController) StopStageSequence(axis string) error {
	c.Lock()
	defer c.Unlock()
	c.armed[axis] = false
	return nil
}

// TriggerStep simulates one edge on the TRIG IN line, advancing the axis
// to the next table entry with wrap-around
func (c *MockController) TriggerStep(axis string) error {
	c.Lock()
	defer c.Unlock()
	if !c.armed[axis] {
		return GCS2Err(71)
	}
	seq := c.seq[axis]
	idx := (c.seqIdx[axis] + 1) % len(seq)
	c.seqIdx[axis] = idx
	c.pos[axis] = seq[idx]
	return nil
}

// Sequence returns the loaded table for the axis, or nil
func (c *MockController) Sequence(axis string) []float64 {
	c.Lock()
	defer c.Unlock()
	return c.seq[axis]
}

// Armed returns true if the wave generator is armed for the axis
func (c *MockController) Armed(axis string) bool {
	c.Lock()
	defer c.Unlock()
	return c.armed[axis]
}
