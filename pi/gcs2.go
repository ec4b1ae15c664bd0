// Package pi provides a Go interface to PI motion control systems speaking
// GCS2, including the wave generator used for hardware-triggered focus
// sequences.
package pi

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/lightsheet-lab/zsweep/comm"
	"github.com/lightsheet-lab/zsweep/util"

	"github.com/tarm/serial"
)

// Terminator is the line terminator used by GCS2 in both directions
const Terminator = '\n'

// wave generator plumbing; one table driving one generator is all a single
// focus stage needs
const (
	wavTable = 1
	wavGen   = 1

	// wgoTriggerStep arms the generator so the firmware advances one table
	// point per edge on the TRIG IN line, wrapping at the table end
	wgoTriggerStep = 0x4

	// wavChunk is the number of points sent per WAV command, keeping each
	// line well under the controller's command length limit
	wavChunk = 32
)

// makeSerConf makes a new serial.Config with correct parity, baud, etc, set.
func makeSerConf(addr string) *serial.Config {
	return &serial.Config{
		Name:        addr,
		Baud:        115200,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: 1 * time.Minute}
}

// Controller maps to any PI controller, e.g. E-509, E-727, C-884
type Controller struct {
	pool *comm.Pool

	timeout time.Duration

	// Handshaking, if true, queries the error state after commands which
	// do not generate a response, converting controller faults to errors
	Handshaking bool

	// DV is the maximum allowed voltage delta between commands
	DV *float64
}

// NewController returns a fully configured new controller
func NewController(addr string, connectSerial bool) *Controller {
	var maker comm.CreationFunc
	if connectSerial {
		maker = comm.SerialConnMaker(makeSerConf(addr))
	} else {
		maker = comm.BackingOffTCPConnMaker(addr, 3*time.Second)
	}
	return &Controller{
		pool:        comm.NewPool(1, 30*time.Second, maker),
		timeout:     10 * time.Second,
		Handshaking: true}
}

func (c *Controller) writeOnly(msg string, more ...string) error {
	str := strings.Join(append([]string{msg}, more...), " ")
	conn, err := c.pool.Get()
	if err != nil {
		return err
	}
	wrap := comm.NewTerminator(comm.NewTimeout(conn, c.timeout), Terminator, Terminator)
	_, err = io.WriteString(wrap, str)
	if err != nil {
		c.pool.Destroy(conn)
		return err
	}
	if c.Handshaking {
		err = popError(wrap)
		if err != nil {
			if _, ok := err.(GCS2Status); !ok {
				// comm fault, not a controller fault
				c.pool.Destroy(conn)
				return err
			}
			c.pool.Put(conn)
			return err
		}
	}
	c.pool.Put(conn)
	return nil
}

func (c *Controller) writeRead(msg string) (string, error) {
	conn, err := c.pool.Get()
	if err != nil {
		return "", err
	}
	wrap := comm.NewTerminator(comm.NewTimeout(conn, c.timeout), Terminator, Terminator)
	_, err = io.WriteString(wrap, msg)
	if err != nil {
		c.pool.Destroy(conn)
		return "", err
	}
	resp, err := wrap.ReadMsg()
	if err != nil {
		c.pool.Destroy(conn)
		return "", err
	}
	c.pool.Put(conn)
	return string(resp), nil
}

// popError sends ERR? on an established connection and converts the code
func popError(wrap *comm.Terminator) error {
	_, err := io.WriteString(wrap, "ERR?")
	if err != nil {
		return err
	}
	resp, err := wrap.ReadMsg()
	if err != nil {
		return err
	}
	code, err := strconv.Atoi(strings.TrimSpace(string(resp)))
	if err != nil {
		return fmt.Errorf("could not parse ERR? response %q", resp)
	}
	return GCS2Err(code)
}

func (c *Controller) readFloat(cmd, axis string) (float64, error) {
	// "POS? A" -> "A=+0080.4106"
	resp, err := c.writeRead(strings.Join([]string{cmd, axis}, " "))
	if err != nil {
		return 0, err
	}
	if len(resp) == 0 {
		return 0, fmt.Errorf("the response from the controller was blank, is the axis enabled (online, as PI says)")
	}
	parts := strings.SplitN(resp, "=", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed response from controller %q", resp)
	}
	return strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
}

func (c *Controller) readBool(cmd, axis string) (bool, error) {
	resp, err := c.writeRead(strings.Join([]string{cmd, axis}, " "))
	if err != nil {
		return false, err
	}
	if len(resp) == 0 {
		return false, fmt.Errorf("the response from the controller was blank, is the axis label correct")
	}
	parts := strings.SplitN(resp, "=", 2)
	if len(parts) != 2 {
		return false, fmt.Errorf("malformed response from controller %q", resp)
	}
	return strconv.ParseBool(strings.TrimSpace(parts[1]))
}

// MoveAbs commands the controller to move an axis to an absolute position
func (c *Controller) MoveAbs(axis string, pos float64) error {
	return c.writeOnly("MOV", axis, strconv.FormatFloat(pos, 'G', -1, 64))
}

// MoveRel commands the controller to move an axis by a delta
func (c *Controller) MoveRel(axis string, delta float64) error {
	return c.writeOnly("MVR", axis, strconv.FormatFloat(delta, 'G', -1, 64))
}

// GetPos returns the current position of an axis
func (c *Controller) GetPos(axis string) (float64, error) {
	return c.readFloat("POS?", axis)
}

// Enable causes the controller to enable motion on a given axis
func (c *Controller) Enable(axis string) error {
	return c.writeOnly("ONL", axis, "1")
}

// Disable causes the controller to disable motion on a given axis
func (c *Controller) Disable(axis string) error {
	return c.writeOnly("ONL", axis, "0")
}

// GetEnabled returns True if the given axis is enabled
func (c *Controller) GetEnabled(axis string) (bool, error) {
	return c.readBool("ONL?", axis)
}

// Home causes the controller to move an axis to its home position
func (c *Controller) Home(axis string) error {
	return c.writeOnly("GOH", axis)
}

// SetVoltage sets the voltage on an axis
func (c *Controller) SetVoltage(axis string, volts float64) error {
	return c.writeOnly("SVA", axis, strconv.FormatFloat(volts, 'G', -1, 64))
}

// GetVoltage returns the voltage on an axis
func (c *Controller) GetVoltage(axis string) (float64, error) {
	return c.readFloat("SVA?", axis)
}

// SetVoltageSafe sets the voltage, but first does a query and enforces that
// |c.DV| is not exceeded.  If it is, the output is clamped and no error generated
func (c *Controller) SetVoltageSafe(axis string, voltage float64) error {
	v, err := c.GetVoltage(axis)
	if err != nil {
		return err
	}
	if c.DV != nil {
		dV := *c.DV
		voltage = util.Clamp(voltage, v-dV, v+dV)
	}
	return c.SetVoltage(axis, voltage)
}

// PopError returns the last error from the controller
func (c *Controller) PopError() error {
	resp, err := c.writeRead("ERR?")
	if err != nil {
		return err
	}
	code, err := strconv.Atoi(strings.TrimSpace(resp))
	if err != nil {
		return fmt.Errorf("could not parse ERR? response %q", resp)
	}
	return GCS2Err(code)
}

// LoadStageSequence uploads a table of positions to the controller's wave
// memory and connects it to the wave generator for the axis.  The table
// replaces any previously loaded sequence.  Positions are consumed in order
// by StartStageSequence; the firmware wraps to the first entry after the
// last.
func (c *Controller) LoadStageSequence(axis string, positions []float64) error {
	err := c.writeOnly("WCL", strconv.Itoa(wavTable))
	if err != nil {
		return err
	}
	mode := "X" // first segment overwrites; later segments append
	for start := 0; start < len(positions); start += wavChunk {
		end := start + wavChunk
		if end > len(positions) {
			end = len(positions)
		}
		chunk := positions[start:end]
		err = c.writeOnly("WAV",
			strconv.Itoa(wavTable),
			mode,
			"PNT",
			strconv.Itoa(start+1),
			strconv.Itoa(len(chunk)),
			util.FloatSliceToCSV(chunk, 'G', -1))
		if err != nil {
			return err
		}
		mode = "&"
	}
	return c.writeOnly("WSL", strconv.Itoa(wavGen), strconv.Itoa(wavTable))
}

// StartStageSequence arms the wave generator in trigger-stepped mode; each
// edge on the controller's TRIG IN line advances the axis to the next
// loaded position without host involvement
func (c *Controller) StartStageSequence(axis string) error {
	return c.writeOnly("WGO", strconv.Itoa(wavGen), strconv.Itoa(wgoTriggerStep))
}

// StopStageSequence disarms the wave generator, returning the axis to
// direct position control
func (c *Controller) StopStageSequence(axis string) error {
	return c.writeOnly("WGO", strconv.Itoa(wavGen), "0")
}

// Raw sends a raw command to the controller and returns the response if
// the command ends in ?, else sends write-only
func (c *Controller) Raw(s string) (string, error) {
	if strings.Contains(s, "?") {
		return c.writeRead(s)
	}
	return "", c.writeOnly(s)
}
