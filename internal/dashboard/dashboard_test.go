package dashboard

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tools.zach/dev/codetime/internal/sink"
	"tools.zach/dev/codetime/internal/stats"
)

func sampleSnapshot() stats.Snapshot {
	return stats.Snapshot{
		Project:         "demo",
		State:           stats.Running,
		StatusLabel:     "LTT 1m 5s running",
		HasData:         true,
		CurrentSession:  "1m 5s",
		PrevSession:     "10s",
		TotalTime:       "2m 0s",
		TotalCodingTime: "5m 0s",
		LanguageData: stats.Chart{
			Values: []int{90, 30},
			Labels: []string{"go: 1m 30s", "md: 30s"},
			Colors: []string{"rgba(255,0,0,0.5)", "bogus"},
		},
		ProjectData: stats.Chart{
			Values: []int{120},
			Labels: []string{"demo: 2m 0s"},
			Colors: []string{"rgba(0,128,255,1.0)"},
		},
		SummaryData: stats.Series{Labels: []string{"demo"}, Values: []float64{0.5}},
		Projects: []stats.ProjectSection{{
			Name:      "demo",
			Languages: []stats.LanguageLine{{Language: "go", Ticks: 90, Label: "go: 1m 30s"}},
		}},
	}
}

// ///////////////////////////////////////////////
// View
// ///////////////////////////////////////////////

func TestRenderShowsSessionAndCharts(t *testing.T) {
	out := Render(sampleSnapshot(), 80)

	for _, want := range []string{
		"LTT 1m 5s running",
		"project:",
		"demo",
		"current session:",
		"1m 5s",
		"previous session:",
		"project total:",
		"all projects:",
		"5m 0s",
		"Languages",
		"go: 1m 30s",
		"md: 30s",
		"Projects",
		"demo: 2m 0s",
		"Hours per project",
		"demo: 0.50h",
		"Breakdown",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, stats.NoDataPlaceholder) {
		t.Error("placeholder shown for a project with data")
	}
}

func TestRenderPlaceholder(t *testing.T) {
	snap := stats.Snapshot{
		Project:         "fresh",
		State:           stats.Paused,
		StatusLabel:     "LTT 0s paused",
		Placeholder:     stats.NoDataPlaceholder,
		TotalCodingTime: "0s",
	}
	out := Render(snap, 0)

	if !strings.Contains(out, stats.NoDataPlaceholder) {
		t.Errorf("placeholder missing:\n%s", out)
	}
	for _, absent := range []string{"current session:", "Languages", "Projects", "Breakdown"} {
		if strings.Contains(out, absent) {
			t.Errorf("output should not contain %q:\n%s", absent, out)
		}
	}
}

func TestBarRowProportions(t *testing.T) {
	s := newStyles()
	full := barRow(10, 10, "x", s.defaultBar, 10, s)
	if got := strings.Count(full, "█"); got != 10 {
		t.Errorf("full bar has %d filled cells, want 10", got)
	}
	half := barRow(5, 10, "x", s.defaultBar, 10, s)
	if got := strings.Count(half, "█"); got != 5 {
		t.Errorf("half bar has %d filled cells, want 5", got)
	}
	tiny := barRow(1, 1000, "x", s.defaultBar, 10, s)
	if got := strings.Count(tiny, "█"); got != 1 {
		t.Errorf("tiny nonzero value has %d filled cells, want 1", got)
	}
	zero := barRow(0, 0, "x", s.defaultBar, 10, s)
	if got := strings.Count(zero, "░"); got != 10 {
		t.Errorf("zero bar has %d empty cells, want 10", got)
	}
}

func TestBarWidth(t *testing.T) {
	tests := []struct{ term, want int }{
		{0, defaultBarWidth},
		{4, minBarWidth},
		{60, 30},
		{400, maxBarWidth},
	}
	for _, tt := range tests {
		if got := barWidth(tt.term); got != tt.want {
			t.Errorf("barWidth(%d) = %d, want %d", tt.term, got, tt.want)
		}
	}
}

func TestChartColor(t *testing.T) {
	def := lipgloss.Color("159")
	tests := []struct {
		in   string
		want lipgloss.Color
	}{
		{"rgba(255,0,0,0.5)", "#ff0000"},
		{"rgba(143,9,9,0.56)", "#8f0909"},
		{"rgb(1, 2, 3)", "#010203"},
		{"rgba(300,0,0,1)", def},
		{"red", def},
		{"", def},
	}
	for _, tt := range tests {
		if got := chartColor(tt.in, def); got != tt.want {
			t.Errorf("chartColor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// ///////////////////////////////////////////////
// Model
// ///////////////////////////////////////////////

func TestModelLoadsSnapshot(t *testing.T) {
	m := newModel(func() (stats.Snapshot, error) { return sampleSnapshot(), nil }, time.Second)
	if !strings.Contains(m.View(), "Loading") {
		t.Errorf("initial view = %q", m.View())
	}

	msg := m.fetch()()
	next, _ := m.Update(msg)
	m = next.(model)
	if !m.loaded || !strings.Contains(m.View(), "LTT 1m 5s running") {
		t.Errorf("view after load = %q", m.View())
	}
}

func TestModelKeepsLastSnapshotOnError(t *testing.T) {
	m := newModel(nil, time.Second)
	next, _ := m.Update(snapshotMsg{snap: sampleSnapshot()})
	next, _ = next.Update(snapshotMsg{err: errors.New("daemon not running")})
	m = next.(model)

	view := m.View()
	if !strings.Contains(view, "LTT 1m 5s running") || !strings.Contains(view, "daemon not running") {
		t.Errorf("view = %q", view)
	}
}

func TestModelKeys(t *testing.T) {
	m := newModel(func() (stats.Snapshot, error) { return stats.Snapshot{}, nil }, time.Second)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd == nil {
		t.Fatal("r should return a command")
	}
	if _, ok := cmd().(snapshotMsg); !ok {
		t.Error("r should fetch a snapshot")
	}
}

func TestModelWindowSize(t *testing.T) {
	m := newModel(nil, time.Second)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	if next.(model).width != 120 {
		t.Errorf("width = %d", next.(model).width)
	}
}

// ///////////////////////////////////////////////
// Sources
// ///////////////////////////////////////////////

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	f := sink.NewFile(path)
	if err := f.Refresh(sampleSnapshot()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	snap, err := FileSource(path)()
	if err != nil {
		t.Fatalf("FileSource: %v", err)
	}
	if snap.Project != "demo" || snap.LanguageData.Len() != 2 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestFileSourceErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := FileSource(filepath.Join(dir, "missing.json"))(); err == nil {
		t.Error("missing file should fail")
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("{"), 0o644)
	if _, err := FileSource(bad)(); err == nil || !strings.Contains(err.Error(), "parsing") {
		t.Errorf("malformed file err = %v", err)
	}

	empty := filepath.Join(dir, "empty.json")
	os.WriteFile(empty, []byte(`{"kind":"notice"}`), 0o644)
	if _, err := FileSource(empty)(); err == nil {
		t.Error("envelope without snapshot should fail")
	}
}

func TestFallback(t *testing.T) {
	first := errors.New("first")
	failing := func() (stats.Snapshot, error) { return stats.Snapshot{}, first }
	working := func() (stats.Snapshot, error) { return stats.Snapshot{Project: "ok"}, nil }

	snap, err := Fallback(failing, working)()
	if err != nil || snap.Project != "ok" {
		t.Errorf("Fallback = %+v, %v", snap, err)
	}

	if _, err := Fallback(failing, failing)(); !errors.Is(err, first) {
		t.Errorf("all failing err = %v, want first", err)
	}
	if _, err := Fallback()(); err == nil {
		t.Error("empty Fallback should fail")
	}
}
