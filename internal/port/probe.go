package port

import (
	"net"
	"time"
)

// DefaultTimeout bounds a single connection attempt.
const DefaultTimeout = 300 * time.Millisecond

// Prober checks whether TCP addresses accept connections.
//
// It asks the operating system directly by dialing, rather than parsing
// /proc/net/* or shelling out to lsof or ss, which may require elevated
// permissions.
type Prober struct {
	// Timeout bounds each dial. Zero means DefaultTimeout.
	Timeout time.Duration
}

// NewProber creates a Prober with the default timeout.
func NewProber() *Prober {
	return &Prober{Timeout: DefaultTimeout}
}

// IsListening reports whether something accepts TCP connections at addr
// ("host:port"). The connection is closed immediately.
func (p *Prober) IsListening(addr string) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// ListeningSet probes every address and returns the ones that accepted a
// connection. Probes run concurrently so a handful of closed ports cost
// one timeout, not one per address.
func (p *Prober) ListeningSet(addrs []string) map[string]bool {
	type probe struct {
		addr string
		up   bool
	}

	results := make(chan probe, len(addrs))
	for _, addr := range addrs {
		go func() {
			results <- probe{addr: addr, up: p.IsListening(addr)}
		}()
	}

	up := make(map[string]bool, len(addrs))
	for range addrs {
		r := <-results
		if r.up {
			up[r.addr] = true
		}
	}
	return up
}
