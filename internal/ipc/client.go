package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// dialTimeout bounds how long [Send] waits for the daemon to accept.
const dialTimeout = 2 * time.Second

// Send delivers ev to the daemon at addr and returns its reply. An error
// reply from the daemon is returned as an error alongside the reply.
func Send(addr string, ev Event) (Reply, error) {
	if err := ev.Validate(); err != nil {
		return Reply{}, err
	}

	conn, err := dial(addr, dialTimeout)
	if err != nil {
		return Reply{}, fmt.Errorf("%w: %v", ErrNotRunning, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(replyTimeout + dialTimeout))

	if err := writeMessage(conn, OpEvent, ev); err != nil {
		return Reply{}, err
	}

	opcode, payload, err := DecodeFrame(conn)
	if err != nil {
		return Reply{}, fmt.Errorf("reading reply: %w", err)
	}
	if opcode != OpReply {
		return Reply{}, fmt.Errorf("unexpected reply opcode: %d", opcode)
	}

	var rep Reply
	if err := json.Unmarshal(payload, &rep); err != nil {
		return Reply{}, fmt.Errorf("parsing reply: %w", err)
	}

	// Best-effort goodbye.
	_ = writeMessage(conn, OpClose, nil)

	if !rep.OK {
		if rep.Error == "" {
			return rep, errors.New("daemon rejected event")
		}
		return rep, errors.New(rep.Error)
	}
	return rep, nil
}
