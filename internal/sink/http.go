package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"tools.zach/dev/codetime/internal/stats"
)

// ErrClosed is returned when a call is made on a closed [HTTPSink].
var ErrClosed = errors.New("sink closed")

// queueSize bounds the envelopes waiting to be posted. When the endpoint is
// slow, refreshes beyond this are dropped; the next one carries newer data.
const queueSize = 8

// HTTPOptions configures [NewHTTP].
type HTTPOptions struct {
	URL      string
	Timeout  time.Duration
	RetryMax int
}

// HTTPSink POSTs envelopes as JSON to a dashboard endpoint. Requests are sent
// from a background goroutine so a slow endpoint never stalls the caller.
type HTTPSink struct {
	url    string
	client *retryablehttp.Client
	now    func() time.Time

	queue chan Envelope
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewHTTP starts an HTTPSink posting to opts.URL.
func NewHTTP(opts HTTPOptions) *HTTPSink {
	client := retryablehttp.NewClient()
	client.RetryMax = opts.RetryMax
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = opts.Timeout
	client.Logger = nil // suppress retryablehttp's default logging

	h := &HTTPSink{
		url:    opts.URL,
		client: client,
		now:    time.Now,
		queue:  make(chan Envelope, queueSize),
		done:   make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *HTTPSink) Open(snap stats.Snapshot) error {
	return h.enqueue(Envelope{Kind: KindOpen, Snapshot: &snap})
}

func (h *HTTPSink) Refresh(snap stats.Snapshot) error {
	return h.enqueue(Envelope{Kind: KindRefresh, Snapshot: &snap})
}

func (h *HTTPSink) Notify(n Notice) error {
	return h.enqueue(Envelope{Kind: KindNotice, Notice: &n})
}

// Close stops accepting envelopes and waits for queued ones to be sent.
func (h *HTTPSink) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	close(h.queue)
	h.mu.Unlock()

	<-h.done
	return nil
}

func (h *HTTPSink) enqueue(env Envelope) error {
	env.Time = h.now().UTC()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	select {
	case h.queue <- env:
	default:
		slog.Debug("http sink busy, dropping envelope", "kind", string(env.Kind))
	}
	return nil
}

func (h *HTTPSink) run() {
	defer close(h.done)
	for env := range h.queue {
		if err := h.post(context.Background(), env); err != nil {
			slog.Warn("http sink post failed", "url", h.url, "kind", string(env.Kind), "error", err)
		}
	}
}

// post sends one envelope, retrying per the client's policy.
func (h *HTTPSink) post(ctx context.Context, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encoding envelope: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to %s: %w", h.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("posting to %s: HTTP %d", h.url, resp.StatusCode)
	}
	return nil
}
