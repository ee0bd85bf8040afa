package sink

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tools.zach/dev/codetime/internal/stats"
)

func testSnapshot() stats.Snapshot {
	return stats.Snapshot{
		Project:        "demo",
		State:          stats.Running,
		StatusLabel:    "LTT 5s running",
		HasData:        true,
		CurrentSession: "5s",
	}
}

// ///////////////////////////////////////////////
// FileSink
// ///////////////////////////////////////////////

func TestFileSinkWritesEnvelope(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	f := NewFile(path)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f.now = func() time.Time { return fixed }

	if err := f.Open(testSnapshot()); err != nil {
		t.Fatalf("Open: %v", err)
	}

	var env Envelope
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if env.Kind != KindOpen || !env.Time.Equal(fixed) {
		t.Errorf("env = %+v", env)
	}
	if env.Snapshot == nil || env.Snapshot.StatusLabel != "LTT 5s running" {
		t.Errorf("snapshot = %+v", env.Snapshot)
	}

	if err := f.Refresh(testSnapshot()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	data, _ = os.ReadFile(path)
	if !strings.Contains(string(data), `"kind": "refresh"`) {
		t.Errorf("file after refresh = %s", data)
	}
}

func TestFileSinkWriteError(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "missing", "stats.json"))
	err := f.Refresh(testSnapshot())
	if err == nil || !strings.Contains(err.Error(), "writing stats file") {
		t.Errorf("err = %v, want wrapped write error", err)
	}
}

func TestFileSinkNotifyIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	f := NewFile(path)
	if err := f.Notify(Notice{Level: LevelInfo, Message: "Timer started!"}); err != nil {
		t.Errorf("Notify: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Notify should not write the stats file")
	}
}

// ///////////////////////////////////////////////
// HTTPSink
// ///////////////////////////////////////////////

type recorder struct {
	mu   sync.Mutex
	envs []Envelope
}

func (r *recorder) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", req.Method)
		}
		if ct := req.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		body, _ := io.ReadAll(req.Body)
		var env Envelope
		if err := json.Unmarshal(body, &env); err != nil {
			t.Errorf("bad body %s: %v", body, err)
		}
		r.mu.Lock()
		r.envs = append(r.envs, env)
		r.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}
}

func TestHTTPSinkPostsInOrder(t *testing.T) {
	rec := &recorder{}
	srv := httptest.NewServer(rec.handler(t))
	defer srv.Close()

	h := NewHTTP(HTTPOptions{URL: srv.URL, Timeout: time.Second, RetryMax: 0})
	h.Open(testSnapshot())
	h.Refresh(testSnapshot())
	h.Notify(Notice{Level: LevelWarn, Message: "Failed to save time data"})
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.envs) != 3 {
		t.Fatalf("got %d envelopes, want 3", len(rec.envs))
	}
	kinds := []Kind{rec.envs[0].Kind, rec.envs[1].Kind, rec.envs[2].Kind}
	if kinds[0] != KindOpen || kinds[1] != KindRefresh || kinds[2] != KindNotice {
		t.Errorf("kinds = %v", kinds)
	}
	if n := rec.envs[2].Notice; n == nil || n.Message != "Failed to save time data" || n.Level != LevelWarn {
		t.Errorf("notice = %+v", n)
	}
	if rec.envs[2].Snapshot != nil {
		t.Error("notice envelope should not carry a snapshot")
	}
}

func TestHTTPSinkRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := NewHTTP(HTTPOptions{URL: srv.URL, Timeout: time.Second, RetryMax: 3})
	h.client.RetryWaitMin = time.Millisecond
	h.client.RetryWaitMax = time.Millisecond

	env := Envelope{Kind: KindRefresh, Snapshot: &stats.Snapshot{}}
	if err := h.post(context.Background(), env); err != nil {
		t.Fatalf("post: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
	h.Close()
}

func TestHTTPSinkClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	h := NewHTTP(HTTPOptions{URL: srv.URL, Timeout: time.Second})
	defer h.Close()

	err := h.post(context.Background(), Envelope{Kind: KindOpen})
	if err == nil || !strings.Contains(err.Error(), "HTTP 400") {
		t.Errorf("err = %v, want HTTP 400", err)
	}
}

func TestHTTPSinkClosed(t *testing.T) {
	h := NewHTTP(HTTPOptions{URL: "http://127.0.0.1:1", Timeout: time.Second})
	h.Close()

	if err := h.Refresh(testSnapshot()); !errors.Is(err, ErrClosed) {
		t.Errorf("Refresh after Close = %v, want ErrClosed", err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestHTTPSinkDropsWhenQueueFull(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
	}))
	defer srv.Close()

	h := NewHTTP(HTTPOptions{URL: srv.URL, Timeout: 5 * time.Second})
	for i := 0; i < queueSize*3; i++ {
		if err := h.Refresh(testSnapshot()); err != nil {
			t.Fatalf("Refresh %d: %v", i, err)
		}
	}
	close(release)
	h.Close()

	// One in flight plus at most a full queue.
	if got := calls.Load(); got > queueSize+1 {
		t.Errorf("calls = %d, want at most %d", got, queueSize+1)
	}
}

// ///////////////////////////////////////////////
// Multi
// ///////////////////////////////////////////////

type stubSink struct {
	err                            error
	opens, refreshes, notes, close int
}

func (s *stubSink) Open(stats.Snapshot) error    { s.opens++; return s.err }
func (s *stubSink) Refresh(stats.Snapshot) error { s.refreshes++; return s.err }
func (s *stubSink) Notify(Notice) error          { s.notes++; return s.err }
func (s *stubSink) Close() error                 { s.close++; return s.err }

func TestMultiCallsEverySink(t *testing.T) {
	boom := errors.New("boom")
	a, b := &stubSink{err: boom}, &stubSink{}
	m := Multi{a, b}

	if err := m.Refresh(testSnapshot()); !errors.Is(err, boom) {
		t.Errorf("Refresh err = %v, want boom", err)
	}
	m.Open(testSnapshot())
	m.Notify(Notice{})
	m.Close()

	for name, s := range map[string]*stubSink{"a": a, "b": b} {
		if s.opens != 1 || s.refreshes != 1 || s.notes != 1 || s.close != 1 {
			t.Errorf("%s calls = %+v", name, s)
		}
	}
}

func TestMultiNoErrors(t *testing.T) {
	if err := (Multi{&stubSink{}, &stubSink{}}).Refresh(testSnapshot()); err != nil {
		t.Errorf("err = %v, want nil", err)
	}
	if err := (Multi{}).Notify(Notice{}); err != nil {
		t.Errorf("empty Multi err = %v", err)
	}
}
