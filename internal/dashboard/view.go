package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"tools.zach/dev/codetime/internal/stats"
)

const (
	minBarWidth     = 10
	maxBarWidth     = 50
	defaultBarWidth = 30
)

// Render returns the dashboard for snap without a running program.
func Render(snap stats.Snapshot, width int) string {
	return renderView(snap, width, newStyles())
}

func renderView(snap stats.Snapshot, width int, s styles) string {
	statusStyle := s.status
	if snap.State != stats.Running {
		statusStyle = s.paused
	}

	lines := []string{
		lipgloss.JoinHorizontal(lipgloss.Top,
			s.title.Render("codetime"), "  ", statusStyle.Render(snap.StatusLabel)),
		field(s, "project", snap.Project),
	}

	if snap.HasData {
		lines = append(lines,
			field(s, "current session", snap.CurrentSession),
			field(s, "previous session", snap.PrevSession),
			field(s, "project total", snap.TotalTime),
		)
	} else {
		lines = append(lines, s.empty.Render(snap.Placeholder))
	}
	lines = append(lines, field(s, "all projects", snap.TotalCodingTime))

	bw := barWidth(width)
	if snap.LanguageData.Len() > 0 {
		lines = append(lines, s.section.Render(renderChart("Languages", snap.LanguageData, bw, s)))
	}
	if snap.ProjectData.Len() > 0 {
		lines = append(lines, s.section.Render(renderChart("Projects", snap.ProjectData, bw, s)))
	}
	if len(snap.SummaryData.Values) > 0 {
		lines = append(lines, s.section.Render(renderSeries("Hours per project", snap.SummaryData, bw, s)))
	}
	if len(snap.Projects) > 0 {
		lines = append(lines, s.section.Render(renderBreakdown(snap.Projects, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func field(s styles, key, value string) string {
	return s.key.Render(fmt.Sprintf("%-17s", key+":")) + " " + s.value.Render(value)
}

func barWidth(termWidth int) int {
	if termWidth <= 0 {
		return defaultBarWidth
	}
	return min(max(termWidth/2, minBarWidth), maxBarWidth)
}

// renderChart draws one bar per entry. Chart labels already carry the
// formatted time, e.g. "go: 1m 5s".
func renderChart(title string, c stats.Chart, width int, s styles) string {
	maxVal := 0
	for _, v := range c.Values {
		maxVal = max(maxVal, v)
	}

	rows := []string{s.heading.Render(title)}
	for i, v := range c.Values {
		color := s.defaultBar
		if i < len(c.Colors) {
			color = chartColor(c.Colors[i], s.defaultBar)
		}
		rows = append(rows, barRow(float64(v), float64(maxVal), c.Labels[i], color, width, s))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderSeries(title string, series stats.Series, width int, s styles) string {
	maxVal := 0.0
	for _, v := range series.Values {
		maxVal = max(maxVal, v)
	}

	rows := []string{s.heading.Render(title)}
	for i, v := range series.Values {
		label := fmt.Sprintf("%s: %.2fh", series.Labels[i], v)
		rows = append(rows, barRow(v, maxVal, label, s.defaultBar, width, s))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// barRow renders "██████░░░░ label" with the fill proportional to
// value/maxVal.
func barRow(value, maxVal float64, label string, color lipgloss.Color, width int, s styles) string {
	filled := 0
	if maxVal > 0 {
		filled = int(value / maxVal * float64(width))
	}
	if value > 0 && filled == 0 {
		filled = 1
	}
	filled = min(filled, width)

	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) +
		s.barEmpty.Render(strings.Repeat("░", width-filled))

	return bar + " " + s.barLabel.Render(label)
}

func renderBreakdown(sections []stats.ProjectSection, s styles) string {
	rows := []string{s.heading.Render("Breakdown")}
	for _, p := range sections {
		rows = append(rows, s.project.Render(p.Name))
		for _, l := range p.Languages {
			rows = append(rows, "  "+s.value.Render(l.Label))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
