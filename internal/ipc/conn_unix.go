// conn_unix.go implements the control endpoint for Unix-like systems as a
// unix domain socket inside the data directory.

//go:build !windows

package ipc

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"time"

	"tools.zach/dev/codetime/internal/paths"
)

// DefaultAddress returns the socket path for the data directory.
func DefaultAddress(d paths.DataDir) string { return d.Socket() }

// listen binds the socket, replacing a stale one left by a crashed daemon.
func listen(addr string) (net.Listener, error) {
	if _, err := os.Stat(addr); err == nil {
		if conn, err := net.DialTimeout("unix", addr, 200*time.Millisecond); err == nil {
			conn.Close()
			return nil, fmt.Errorf("socket %s is in use", addr)
		}
		if err := os.Remove(addr); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("removing stale socket: %w", err)
		}
	}

	ln, err := net.Listen("unix", addr)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(addr, 0o600); err != nil {
		ln.Close()
		return nil, fmt.Errorf("restricting socket permissions: %w", err)
	}
	return ln, nil
}

func dial(addr string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("unix", addr, timeout)
}
