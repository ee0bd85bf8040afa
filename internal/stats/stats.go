// Package stats derives chart-ready summaries from a ledger snapshot.
//
// Every function here is pure apart from the [ColorLookup] it is handed, which
// may assign and persist a color the first time it sees a key. Counts in the
// ledger are ticks; they are formatted and divided as if each tick were one
// second, matching how the tracker has always reported them.
package stats

import (
	"fmt"

	"tools.zach/dev/codetime/internal/ledger"
)

// UnknownProject labels summary entries whose project name is empty.
const UnknownProject = "Unknown Project"

// ProjectKeyPrefix is prepended to project names to form their color key.
const ProjectKeyPrefix = "project_"

// ColorLookup returns the color assigned to key.
type ColorLookup interface {
	Color(key string) string
}

// ProjectKey returns the color key for a project.
func ProjectKey(name string) string {
	return ProjectKeyPrefix + name
}

// ///////////////////////////////////////////////
// Chart Payloads
// ///////////////////////////////////////////////

// Chart is a labelled distribution: Values, Labels and Colors are parallel.
type Chart struct {
	Values []int    `json:"values"`
	Labels []string `json:"labels"`
	Colors []string `json:"colors"`
}

// Len returns the number of entries.
func (c Chart) Len() int {
	return len(c.Values)
}

func (c *Chart) add(value int, label, color string) {
	c.Values = append(c.Values, value)
	c.Labels = append(c.Labels, label)
	c.Colors = append(c.Colors, color)
}

func newChart() Chart {
	return Chart{Values: []int{}, Labels: []string{}, Colors: []string{}}
}

// Series is a per-project time series in hours.
type Series struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// ///////////////////////////////////////////////
// Aggregations
// ///////////////////////////////////////////////

// LanguageBreakdown returns one entry per language of p in first-seen order.
func LanguageBreakdown(p *ledger.Project, colors ColorLookup) Chart {
	c := newChart()
	if p == nil {
		return c
	}
	for _, e := range p.LanguageTime {
		c.add(e.Ticks, e.Language+": "+FormatTime(e.Ticks), colors.Color(e.Language))
	}
	return c
}

// ProjectTotals returns one entry per project that has any positive language
// count. Projects with no activity are left out.
func ProjectTotals(l *ledger.Ledger, colors ColorLookup) Chart {
	c := newChart()
	for i := range l.Projects {
		p := &l.Projects[i]
		if !p.LanguageTime.HasActivity() {
			continue
		}
		sum := p.LanguageTime.Sum()
		c.add(sum, p.ProjectName+": "+FormatTime(sum), colors.Color(ProjectKey(p.ProjectName)))
	}
	return c
}

// SummarySeries returns every project, including idle ones, with its language
// total divided by 3600.
func SummarySeries(l *ledger.Ledger) Series {
	s := Series{Labels: []string{}, Values: []float64{}}
	for _, p := range l.Projects {
		name := p.ProjectName
		if name == "" {
			name = UnknownProject
		}
		s.Labels = append(s.Labels, name)
		s.Values = append(s.Values, float64(p.LanguageTime.Sum())/3600)
	}
	return s
}

// TotalAcrossAllProjects formats the sum of every language count in l.
func TotalAcrossAllProjects(l *ledger.Ledger) string {
	total := 0
	for _, p := range l.Projects {
		total += p.LanguageTime.Sum()
	}
	return FormatTime(total)
}

// ///////////////////////////////////////////////
// Formatting
// ///////////////////////////////////////////////

// FormatTime renders n as "[<h>h ][<m>m ]<s>s". Minutes are shown when
// non-zero or when hours are shown; hours only when non-zero.
//
//	0    -> "0s"
//	65   -> "1m 5s"
//	3600 -> "1h 0m 0s"
func FormatTime(n int) string {
	if n < 0 {
		n = 0
	}
	h := n / 3600
	m := (n % 3600) / 60
	s := n % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
