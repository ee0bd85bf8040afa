package dashboard

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"tools.zach/dev/codetime/internal/stats"
)

// ErrUnexpectedModel is returned when the program exits with a foreign model.
var ErrUnexpectedModel = errors.New("unexpected final bubbletea model type")

type tickMsg time.Time

type snapshotMsg struct {
	snap stats.Snapshot
	err  error
}

type model struct {
	source   Source
	interval time.Duration
	styles   styles

	snap   stats.Snapshot
	err    error
	loaded bool
	width  int
}

func newModel(src Source, interval time.Duration) model {
	return model{source: src, interval: interval, styles: newStyles()}
}

func (m model) fetch() tea.Cmd {
	src := m.source
	return func() tea.Msg {
		snap, err := src()
		return snapshotMsg{snap: snap, err: err}
	}
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.tick())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.fetch()
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tickMsg:
		return m, tea.Batch(m.fetch(), m.tick())
	case snapshotMsg:
		m.err = msg.err
		if msg.err == nil {
			m.snap = msg.snap
			m.loaded = true
		}
	}
	return m, nil
}

func (m model) View() string {
	var out string
	switch {
	case m.loaded:
		out = renderView(m.snap, m.width, m.styles)
	case m.err == nil:
		out = m.styles.empty.Render("Loading…")
	}
	if m.err != nil {
		if out != "" {
			out += "\n"
		}
		out += m.styles.errorText.Render(m.err.Error())
	}
	return out + "\n" + m.styles.footer.Render("r refresh • q quit")
}

// Run shows the live dashboard until the user quits or ctx is done.
func Run(ctx context.Context, src Source, interval time.Duration) error {
	p := tea.NewProgram(newModel(src, interval), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, ok := final.(model); !ok {
		return ErrUnexpectedModel
	}
	return nil
}
