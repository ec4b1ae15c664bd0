package comm

import (
	"bytes"
	"errors"
	"io"
	"time"
)

// ErrTerminatorNotFound is generated when the termination byte is not found in a response
var ErrTerminatorNotFound = errors.New("termination byte not found")

type deadliner interface {
	SetReadDeadline(time.Time) error
	SetWriteDeadline(time.Time) error
}

type timeoutRW struct {
	rw      io.ReadWriter
	d       deadliner
	timeout time.Duration
}

// NewTimeout wraps rw so that every Read and Write carries a fresh deadline.
// net.Conn supports this; serial ports configure their timeout at open and
// pass through unchanged.
func NewTimeout(rw io.ReadWriter, timeout time.Duration) io.ReadWriter {
	if d, ok := rw.(deadliner); ok {
		return &timeoutRW{rw: rw, d: d, timeout: timeout}
	}
	return rw
}

func (t *timeoutRW) Read(p []byte) (int, error) {
	t.d.SetReadDeadline(time.Now().Add(t.timeout))
	return t.rw.Read(p)
}

func (t *timeoutRW) Write(p []byte) (int, error) {
	t.d.SetWriteDeadline(time.Now().Add(t.timeout))
	return t.rw.Write(p)
}

// Terminator frames messages on a stream: writes get the Tx terminator
// appended, and ReadMsg scans for the Rx terminator and strips it.
type Terminator struct {
	rw     io.ReadWriter
	rx, tx byte
}

// NewTerminator returns a Terminator wrapping rw with the given Rx and Tx
// termination bytes
func NewTerminator(rw io.ReadWriter, rx, tx byte) *Terminator {
	return &Terminator{rw: rw, rx: rx, tx: tx}
}

// Write sends p with the Tx terminator appended
func (t *Terminator) Write(p []byte) (int, error) {
	buf := make([]byte, len(p)+1)
	copy(buf, p)
	buf[len(p)] = t.tx
	n, err := t.rw.Write(buf)
	if n == len(buf) {
		n--
	}
	return n, err
}

// Read reads raw bytes from the underlying stream without framing
func (t *Terminator) Read(p []byte) (int, error) {
	return t.rw.Read(p)
}

// ReadMsg reads one message, scanning byte-wise for the Rx terminator and
// stripping it
func (t *Terminator) ReadMsg() ([]byte, error) {
	var out bytes.Buffer
	one := make([]byte, 1)
	for {
		n, err := t.rw.Read(one)
		if n == 1 {
			if one[0] == t.rx {
				return out.Bytes(), nil
			}
			out.WriteByte(one[0])
		}
		if err != nil {
			if err == io.EOF {
				err = ErrTerminatorNotFound
			}
			return out.Bytes(), err
		}
	}
}
