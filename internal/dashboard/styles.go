package dashboard

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	title      lipgloss.Style
	status     lipgloss.Style
	paused     lipgloss.Style
	key        lipgloss.Style
	value      lipgloss.Style
	section    lipgloss.Style
	heading    lipgloss.Style
	project    lipgloss.Style
	empty      lipgloss.Style
	errorText  lipgloss.Style
	barEmpty   lipgloss.Style
	barLabel   lipgloss.Style
	footer     lipgloss.Style
	defaultBar lipgloss.Color
}

func newStyles() styles {
	return styles{
		title:      lipgloss.NewStyle().Bold(true),
		status:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		paused:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		key:        lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		value:      lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		section:    lipgloss.NewStyle().MarginTop(1),
		heading:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		project:    lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		empty:      lipgloss.NewStyle().Faint(true),
		errorText:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		barEmpty:   lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		barLabel:   lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		footer:     lipgloss.NewStyle().Faint(true).MarginTop(1),
		defaultBar: lipgloss.Color("159"),
	}
}

var rgbaPattern = regexp.MustCompile(`^rgba?\(\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})`)

// chartColor converts a persisted "rgba(r,g,b,a)" chart color to a terminal
// color. Alpha is dropped. Anything unparseable falls back to def.
func chartColor(css string, def lipgloss.Color) lipgloss.Color {
	m := rgbaPattern.FindStringSubmatch(css)
	if m == nil {
		return def
	}
	var rgb [3]int
	for i := range rgb {
		n, err := strconv.Atoi(m[i+1])
		if err != nil || n > 255 {
			return def
		}
		rgb[i] = n
	}
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2]))
}
