// conn_windows.go implements the control endpoint for Windows as a named
// pipe using the go-winio library.

//go:build windows

package ipc

import (
	"net"
	"time"

	"github.com/Microsoft/go-winio"

	"tools.zach/dev/codetime/internal/paths"
)

// DefaultAddress returns the daemon's named pipe. Named pipes live in a
// global namespace, so the data directory does not affect it.
func DefaultAddress(paths.DataDir) string { return paths.PipeName }

func listen(addr string) (net.Listener, error) {
	return winio.ListenPipe(addr, nil)
}

func dial(addr string, timeout time.Duration) (net.Conn, error) {
	return winio.DialPipe(addr, &timeout)
}
