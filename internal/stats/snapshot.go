package stats

import (
	"strings"

	"tools.zach/dev/codetime/internal/ledger"
)

// RunState is the session clock state as presented to sinks.
type RunState string

const (
	Stopped RunState = "stopped"
	Running RunState = "running"
	Paused  RunState = "paused"
)

// Session describes the live clock that a snapshot is rendered for.
type Session struct {
	// Project is the active project name.
	Project string
	// Seconds is the clock's in-memory elapsed counter.
	Seconds int
	State   RunState
}

// LanguageLine is one language row of a [ProjectSection].
type LanguageLine struct {
	Language string `json:"language"`
	Ticks    int    `json:"ticks"`
	Label    string `json:"label"`
	Color    string `json:"color"`
}

// ProjectSection is one project of the per-project breakdown.
type ProjectSection struct {
	Name      string         `json:"name"`
	Languages []LanguageLine `json:"languages"`
}

// Snapshot is everything a presentation sink needs for one render.
type Snapshot struct {
	Project string   `json:"project"`
	State   RunState `json:"state"`
	// StatusLabel is the compact status line, e.g. "LTT 1m 5s running".
	StatusLabel string `json:"statusLabel"`

	// HasData is false when the active project has no ledger entry yet. The
	// session fields and LanguageData are then empty and Placeholder is set.
	HasData     bool   `json:"hasData"`
	Placeholder string `json:"placeholder,omitempty"`

	CurrentSession  string `json:"currentSession"`
	PrevSession     string `json:"prevSession"`
	TotalTime       string `json:"totalTime"`
	TotalCodingTime string `json:"totalCodingTime"`

	Projects         []ProjectSection `json:"projects"`
	ProjectBreakdown string           `json:"projectBreakdown"`

	LanguageData Chart  `json:"languageData"`
	ProjectData  Chart  `json:"projectData"`
	SummaryData  Series `json:"summaryData"`
}

// NoDataPlaceholder is shown when the active project has not been recorded.
const NoDataPlaceholder = "No tracking data available. Start coding to begin tracking your time!"

// BuildSnapshot renders l for the given session.
func BuildSnapshot(l *ledger.Ledger, s Session, colors ColorLookup) Snapshot {
	snap := Snapshot{
		Project:         s.Project,
		State:           s.State,
		StatusLabel:     StatusLabel(s.Seconds, s.State),
		TotalCodingTime: TotalAcrossAllProjects(l),
		Projects:        Breakdown(l, colors),
		LanguageData:    newChart(),
		ProjectData:     ProjectTotals(l, colors),
		SummaryData:     SummarySeries(l),
	}
	snap.ProjectBreakdown = RenderBreakdown(snap.Projects)

	p := l.Find(s.Project)
	if p == nil {
		snap.Placeholder = NoDataPlaceholder
		return snap
	}

	snap.HasData = true
	snap.CurrentSession = FormatTime(p.CurrentSession)
	snap.PrevSession = FormatTime(p.PrevSession)
	snap.TotalTime = FormatTime(p.TotalTime)
	snap.LanguageData = LanguageBreakdown(p, colors)
	return snap
}

// Breakdown lists every active project with its languages. Idle projects are
// skipped, as in [ProjectTotals].
func Breakdown(l *ledger.Ledger, colors ColorLookup) []ProjectSection {
	sections := []ProjectSection{}
	for i := range l.Projects {
		p := &l.Projects[i]
		if !p.LanguageTime.HasActivity() {
			continue
		}
		sec := ProjectSection{Name: p.ProjectName, Languages: make([]LanguageLine, 0, len(p.LanguageTime))}
		for _, e := range p.LanguageTime {
			sec.Languages = append(sec.Languages, LanguageLine{
				Language: e.Language,
				Ticks:    e.Ticks,
				Label:    e.Language + ": " + FormatTime(e.Ticks),
				Color:    colors.Color(e.Language),
			})
		}
		sections = append(sections, sec)
	}
	return sections
}

// RenderBreakdown renders sections as an indented plain-text block.
func RenderBreakdown(sections []ProjectSection) string {
	var b strings.Builder
	for _, sec := range sections {
		b.WriteString(sec.Name)
		b.WriteByte('\n')
		for _, line := range sec.Languages {
			b.WriteString("  ")
			b.WriteString(line.Label)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// StatusLabel renders the compact status line for a clock at seconds.
func StatusLabel(seconds int, state RunState) string {
	indicator := Running
	if state != Running {
		indicator = Paused
	}
	return "LTT " + FormatTime(seconds) + " " + string(indicator)
}
