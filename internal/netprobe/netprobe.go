// Package netprobe answers one question for the runner: is a named node
// reachable? Local identifiers short-circuit to true; remote hosts are
// probed by name resolution with a TCP fallback.
package netprobe

import (
	"context"
	"log/slog"
	"net"
	"os"
	"time"
)

// LocalNode is the distinguished identifier for "this system".
const LocalNode = "."

// Prober reports node reachability.
type Prober interface {
	Reachable(ctx context.Context, node string) bool
}

// Probe is the default Prober.
type Probe struct {
	logger  *slog.Logger
	timeout time.Duration
}

// New creates a Probe with the given per-node timeout.
func New(logger *slog.Logger, timeout time.Duration) *Probe {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Probe{logger: logger.With("component", "netprobe"), timeout: timeout}
}

// IsLocal reports whether node names the system the runner is on.
func IsLocal(node string) bool {
	if node == "" || node == LocalNode || node == "localhost" {
		return true
	}
	host, err := os.Hostname()
	return err == nil && node == host
}

// Reachable probes the node. Local identifiers are always reachable; remote
// hosts must resolve, or accept a TCP connection on the SSH port when the
// resolver is unavailable.
func (p *Probe) Reachable(ctx context.Context, node string) bool {
	if IsLocal(node) {
		return true
	}

	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var resolver net.Resolver
	if addrs, err := resolver.LookupHost(probeCtx, node); err == nil && len(addrs) > 0 {
		return true
	}

	dialer := net.Dialer{Timeout: p.timeout}
	conn, err := dialer.DialContext(probeCtx, "tcp", net.JoinHostPort(node, "22"))
	if err != nil {
		p.logger.Warn("node unreachable", "node", node, "error", err)
		return false
	}
	conn.Close()
	return true
}
