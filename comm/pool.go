package comm

import (
	"io"
	"sync"
	"time"
)

// Pool is a communication pool which holds one or more connections to a
// device.  Connections are created on demand, reused when returned, and
// closed in the background once every connection has been idle for the
// pool's timeout.  It is concurrent safe.  Pools must be created with
// NewPool.
type Pool struct {
	mu      sync.Mutex
	maxSize int                     // cap(conns)
	onLease int                     // connections given out, <= maxSize
	timeout time.Duration           // idle time before the pool frees its connections
	conns   chan io.ReadWriteCloser // idle connections
	timer   *time.Timer             // fires the idle reclaim
	maker   CreationFunc
}

// NewPool creates a new pool of up to maxSize connections made by maker,
// freed after they have all been idle for timeout
func NewPool(maxSize int, timeout time.Duration, maker CreationFunc) *Pool {
	p := &Pool{
		maxSize: maxSize,
		timeout: timeout,
		conns:   make(chan io.ReadWriteCloser, maxSize),
		timer:   time.NewTimer(timeout),
		maker:   maker,
	}
	p.timer.Stop() // nothing to reclaim yet
	go p.reclaimLoop()
	return p
}

// Get retrieves a connection from the pool, dialing a new one if none are
// idle and the pool is not exhausted, or blocking until one is returned if
// it is.  The caller has exclusive use of the connection until it is handed
// back with Put, or discarded with Destroy if it has gone bad (e.g., all
// calls error).
//
// If the error from Get is not nil, the connection must not be returned to
// the pool.
func (p *Pool) Get() (io.ReadWriter, error) {
	p.timer.Stop()

	p.mu.Lock()
	// idle connection available, hand it out
	select {
	case c := <-p.conns:
		p.onLease++
		p.mu.Unlock()
		return c, nil
	default:
	}
	// none idle; if there is headroom, dial a fresh one
	if p.onLease < p.maxSize {
		c, err := p.maker()
		if err == nil {
			p.onLease++
		}
		p.mu.Unlock()
		return c, err
	}
	p.mu.Unlock()
	// all connections are out; wait for a return
	c := <-p.conns
	p.mu.Lock()
	p.onLease++
	p.mu.Unlock()
	return c, nil
}

// Put restores a connection to the pool.  It may be reused, or will be
// freed after all connections are idle for the pool's timeout.  Junk
// connections should be Destroy()'d, not Put back.
func (p *Pool) Put(rw io.ReadWriter) {
	rwc := rw.(io.ReadWriteCloser)
	p.mu.Lock()
	p.conns <- rwc
	p.onLease--
	if p.onLease == 0 {
		p.timer.Reset(p.timeout)
	}
	p.mu.Unlock()
}

// Destroy immediately closes a connection and removes it from the pool's
// accounting.  Use instead of Put when the connection has gone bad.
func (p *Pool) Destroy(rw io.ReadWriter) {
	rwc := rw.(io.ReadWriteCloser)
	rwc.Close()
	p.mu.Lock()
	p.onLease--
	p.mu.Unlock()
}

// Size returns the number of connections owned by the pool, idle or leased
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns) + p.onLease
}

// Active returns the number of connections currently leased out
func (p *Pool) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.onLease
}

// reclaimLoop closes idle connections each time the idle timer fires
func (p *Pool) reclaimLoop() {
	for range p.timer.C {
		p.mu.Lock()
		for {
			select {
			case c := <-p.conns:
				c.Close()
				continue
			default:
			}
			break
		}
		p.mu.Unlock()
	}
}
