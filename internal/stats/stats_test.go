package stats

import (
	"reflect"
	"strings"
	"testing"

	"tools.zach/dev/codetime/internal/ledger"
)

// fakeColors hands out "c:<key>" and records every lookup.
type fakeColors struct {
	keys []string
}

func (f *fakeColors) Color(key string) string {
	f.keys = append(f.keys, key)
	return "c:" + key
}

func project(name string, langs ...ledger.LanguageCount) ledger.Project {
	lt := ledger.LanguageTime{}
	for _, e := range langs {
		lt.Add(e.Language, e.Ticks)
	}
	return ledger.Project{ProjectName: name, LanguageTime: lt}
}

func lc(lang string, n int) ledger.LanguageCount {
	return ledger.LanguageCount{Language: lang, Ticks: n}
}

// ///////////////////////////////////////////////
// FormatTime
// ///////////////////////////////////////////////

func TestFormatTime(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0s"},
		{1, "1s"},
		{59, "59s"},
		{60, "1m 0s"},
		{65, "1m 5s"},
		{3599, "59m 59s"},
		{3600, "1h 0m 0s"},
		{3601, "1h 0m 1s"},
		{3661, "1h 1m 1s"},
		{86400, "24h 0m 0s"},
		{-5, "0s"},
	}
	for _, tt := range tests {
		if got := FormatTime(tt.n); got != tt.want {
			t.Errorf("FormatTime(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

// ///////////////////////////////////////////////
// LanguageBreakdown
// ///////////////////////////////////////////////

func TestLanguageBreakdownInsertionOrder(t *testing.T) {
	p := project("demo", lc("typescript", 3), lc("python", 2))
	colors := &fakeColors{}

	got := LanguageBreakdown(&p, colors)

	want := Chart{
		Values: []int{3, 2},
		Labels: []string{"typescript: 3s", "python: 2s"},
		Colors: []string{"c:typescript", "c:python"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LanguageBreakdown = %+v, want %+v", got, want)
	}
}

func TestLanguageBreakdownNilProject(t *testing.T) {
	got := LanguageBreakdown(nil, &fakeColors{})
	if got.Len() != 0 || got.Values == nil {
		t.Errorf("LanguageBreakdown(nil) = %+v, want empty non-nil chart", got)
	}
}

func TestLanguageBreakdownIncludesZeroCounts(t *testing.T) {
	p := project("demo", lc("go", 0), lc("rust", 4))
	got := LanguageBreakdown(&p, &fakeColors{})
	if got.Len() != 2 {
		t.Fatalf("Len = %d, want 2", got.Len())
	}
	if got.Labels[0] != "go: 0s" {
		t.Errorf("Labels[0] = %q, want %q", got.Labels[0], "go: 0s")
	}
}

// ///////////////////////////////////////////////
// ProjectTotals / SummarySeries
// ///////////////////////////////////////////////

func TestProjectTotalsFiltersIdleProjects(t *testing.T) {
	l := &ledger.Ledger{Projects: []ledger.Project{
		project("busy", lc("go", 60), lc("sql", 5)),
		project("idle", lc("go", 0)),
		project("empty"),
	}}
	colors := &fakeColors{}

	got := ProjectTotals(l, colors)

	want := Chart{
		Values: []int{65},
		Labels: []string{"busy: 1m 5s"},
		Colors: []string{"c:project_busy"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ProjectTotals = %+v, want %+v", got, want)
	}
	if !reflect.DeepEqual(colors.keys, []string{"project_busy"}) {
		t.Errorf("color keys = %v, want only project_busy", colors.keys)
	}
}

func TestSummarySeriesIncludesIdleProjects(t *testing.T) {
	l := &ledger.Ledger{Projects: []ledger.Project{
		project("busy", lc("go", 7200)),
		project("idle", lc("go", 0)),
		project("", lc("c", 1800)),
	}}

	got := SummarySeries(l)

	want := Series{
		Labels: []string{"busy", "idle", UnknownProject},
		Values: []float64{2, 0, 0.5},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SummarySeries = %+v, want %+v", got, want)
	}
}

func TestTotalAcrossAllProjects(t *testing.T) {
	l := &ledger.Ledger{Projects: []ledger.Project{
		project("a", lc("go", 3000)),
		project("b", lc("go", 600), lc("c", 61)),
	}}
	if got := TotalAcrossAllProjects(l); got != "1h 1m 1s" {
		t.Errorf("TotalAcrossAllProjects = %q, want %q", got, "1h 1m 1s")
	}
	if got := TotalAcrossAllProjects(ledger.Empty()); got != "0s" {
		t.Errorf("TotalAcrossAllProjects(empty) = %q, want 0s", got)
	}
}

// ///////////////////////////////////////////////
// End to end
// ///////////////////////////////////////////////

func TestTicksToBreakdownEndToEnd(t *testing.T) {
	store := ledger.NewStore(t.TempDir() + "/timeTracked.json")
	for i := 1; i <= 3; i++ {
		if err := store.RecordTick("demo", i, "typescript"); err != nil {
			t.Fatalf("RecordTick: %v", err)
		}
	}
	for i := 4; i <= 5; i++ {
		if err := store.RecordTick("demo", i, "python"); err != nil {
			t.Fatalf("RecordTick: %v", err)
		}
	}

	p := store.Load().Find("demo")
	if p == nil {
		t.Fatal("project demo missing")
	}
	if p.TotalTime != 5 {
		t.Errorf("TotalTime = %d, want 5", p.TotalTime)
	}

	got := LanguageBreakdown(p, &fakeColors{})
	want := []string{"typescript: 3s", "python: 2s"}
	if !reflect.DeepEqual(got.Labels, want) {
		t.Errorf("Labels = %v, want %v", got.Labels, want)
	}
}

// ///////////////////////////////////////////////
// Snapshot
// ///////////////////////////////////////////////

func TestBuildSnapshot(t *testing.T) {
	l := &ledger.Ledger{Projects: []ledger.Project{
		project("demo", lc("go", 65)),
		project("other", lc("rust", 10)),
	}}
	l.Projects[0].CurrentSession = 65
	l.Projects[0].PrevSession = 10
	l.Projects[0].TotalTime = 65

	snap := BuildSnapshot(l, Session{Project: "demo", Seconds: 65, State: Running}, &fakeColors{})

	if !snap.HasData || snap.Placeholder != "" {
		t.Errorf("HasData = %v, Placeholder = %q", snap.HasData, snap.Placeholder)
	}
	if snap.CurrentSession != "1m 5s" || snap.PrevSession != "10s" || snap.TotalTime != "1m 5s" {
		t.Errorf("sessions = %q/%q/%q", snap.CurrentSession, snap.PrevSession, snap.TotalTime)
	}
	if snap.TotalCodingTime != "1m 15s" {
		t.Errorf("TotalCodingTime = %q, want 1m 15s", snap.TotalCodingTime)
	}
	if snap.StatusLabel != "LTT 1m 5s running" {
		t.Errorf("StatusLabel = %q", snap.StatusLabel)
	}
	if snap.LanguageData.Len() != 1 || snap.ProjectData.Len() != 2 || len(snap.SummaryData.Labels) != 2 {
		t.Errorf("chart sizes = %d/%d/%d", snap.LanguageData.Len(), snap.ProjectData.Len(), len(snap.SummaryData.Labels))
	}
	if len(snap.Projects) != 2 {
		t.Errorf("Projects = %d sections, want 2", len(snap.Projects))
	}
	if !strings.Contains(snap.ProjectBreakdown, "demo\n  go: 1m 5s\n") {
		t.Errorf("ProjectBreakdown = %q", snap.ProjectBreakdown)
	}
}

func TestBuildSnapshotMissingProject(t *testing.T) {
	l := &ledger.Ledger{Projects: []ledger.Project{project("other", lc("go", 5))}}

	snap := BuildSnapshot(l, Session{Project: "demo", State: Paused}, &fakeColors{})

	if snap.HasData {
		t.Error("HasData = true for missing project")
	}
	if snap.Placeholder != NoDataPlaceholder {
		t.Errorf("Placeholder = %q", snap.Placeholder)
	}
	if snap.CurrentSession != "" || snap.LanguageData.Len() != 0 {
		t.Errorf("session fields should be empty: %+v", snap)
	}
	// Cross-project views still render.
	if snap.ProjectData.Len() != 1 || snap.TotalCodingTime != "5s" {
		t.Errorf("ProjectData = %+v, TotalCodingTime = %q", snap.ProjectData, snap.TotalCodingTime)
	}
}

func TestBreakdownSkipsIdleProjects(t *testing.T) {
	l := &ledger.Ledger{Projects: []ledger.Project{
		project("idle", lc("go", 0)),
		project("busy", lc("go", 1), lc("c", 2)),
	}}

	got := Breakdown(l, &fakeColors{})

	if len(got) != 1 || got[0].Name != "busy" {
		t.Fatalf("Breakdown = %+v, want only busy", got)
	}
	if got[0].Languages[1].Color != "c:c" || got[0].Languages[1].Label != "c: 2s" {
		t.Errorf("Languages[1] = %+v", got[0].Languages[1])
	}
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		seconds int
		state   RunState
		want    string
	}{
		{0, Paused, "LTT 0s paused"},
		{65, Running, "LTT 1m 5s running"},
		{3600, Stopped, "LTT 1h 0m 0s paused"},
	}
	for _, tt := range tests {
		if got := StatusLabel(tt.seconds, tt.state); got != tt.want {
			t.Errorf("StatusLabel(%d, %s) = %q, want %q", tt.seconds, tt.state, got, tt.want)
		}
	}
}
