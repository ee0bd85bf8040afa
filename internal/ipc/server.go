// Package ipc carries host events to the daemon over a local socket (a unix
// domain socket, or a named pipe on Windows).
//
// Each connection sends one or more [OpEvent] frames and receives one
// [OpReply] per event. The [Server] does not act on events itself: it hands
// each one to the daemon's main loop as a [Request] and writes back whatever
// reply the loop sends.
package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"
)

// replyTimeout bounds how long a connection waits on the main loop.
const replyTimeout = 5 * time.Second

// errNoReply is sent to the client when the main loop never answered.
var errNoReply = errors.New("daemon did not reply")

// ///////////////////////////////////////////////
// Request
// ///////////////////////////////////////////////

// Request is an event awaiting a reply from the main loop.
type Request struct {
	Event Event
	reply chan Reply
}

// NewRequest returns a request for ev and the channel its reply arrives on.
func NewRequest(ev Event) (Request, <-chan Reply) {
	ch := make(chan Reply, 1)
	return Request{Event: ev, reply: ch}, ch
}

// Respond delivers the reply. It never blocks and only the first call counts.
func (r Request) Respond(rep Reply) {
	select {
	case r.reply <- rep:
	default:
	}
}

// ///////////////////////////////////////////////
// Server
// ///////////////////////////////////////////////

// Server accepts control connections and forwards their events.
type Server struct {
	ln       net.Listener
	requests chan Request
	done     chan struct{}
	wg       sync.WaitGroup

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	once  sync.Once
}

// Listen opens the control endpoint at addr and starts accepting.
func Listen(addr string) (*Server, error) {
	ln, err := listen(addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}
	return Serve(ln), nil
}

// Serve starts accepting connections on ln.
func Serve(ln net.Listener) *Server {
	s := &Server{
		ln:       ln,
		requests: make(chan Request),
		done:     make(chan struct{}),
		conns:    make(map[net.Conn]struct{}),
	}
	s.wg.Add(1)
	go s.acceptLoop()
	return s
}

// Requests returns the channel on which validated events arrive. The
// receiver must call [Request.Respond] for each one.
func (s *Server) Requests() <-chan Request { return s.requests }

// Addr returns the listener's address.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// Close stops accepting, drops open connections and waits for their
// goroutines to exit. Safe to call more than once.
func (s *Server) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		close(s.done)
		s.mu.Unlock()
		err = s.ln.Close()
		s.mu.Lock()
		for c := range s.conns {
			c.Close()
		}
		s.mu.Unlock()
		s.wg.Wait()
	})
	return err
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			slog.Warn("ipc accept failed", "error", err)
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		if !s.track(conn) {
			conn.Close()
			return
		}
		s.wg.Add(1)
		go s.handle(conn)
	}
}

// track registers conn so Close can drop it. It reports false once the
// server is closing.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		return false
	default:
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

// handle serves one connection until the client sends OpClose or hangs up.
func (s *Server) handle(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)
	defer conn.Close()

	for {
		opcode, payload, err := DecodeFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				slog.Debug("ipc read failed", "error", err)
			}
			return
		}

		switch opcode {
		case OpClose:
			return
		case OpEvent:
		default:
			slog.Debug("ipc unexpected opcode", "opcode", uint32(opcode))
			return
		}

		rep := s.dispatch(payload)
		if err := writeMessage(conn, OpReply, rep); err != nil {
			slog.Debug("ipc reply failed", "error", err)
			return
		}
	}
}

// dispatch decodes one event and waits for the main loop to answer it.
func (s *Server) dispatch(payload []byte) Reply {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Fail(fmt.Errorf("parsing event: %w", err))
	}
	if err := ev.Validate(); err != nil {
		return Fail(err)
	}

	req, reply := NewRequest(ev)
	select {
	case s.requests <- req:
	case <-s.done:
		return Fail(ErrNotRunning)
	}

	timer := time.NewTimer(replyTimeout)
	defer timer.Stop()
	select {
	case rep := <-reply:
		return rep
	case <-timer.C:
		return Fail(errNoReply)
	case <-s.done:
		return Fail(ErrNotRunning)
	}
}
