package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/galaster/pkg/core/vec"
	"github.com/matzehuels/galaster/pkg/engine"
	"github.com/matzehuels/galaster/pkg/graph"
)

var (
	watchLabelStyle = lipgloss.NewStyle().Foreground(colorGray).Width(14)
	watchHelpStyle  = lipgloss.NewStyle().Foreground(colorDim)
)

// statsSource is the part of the engine the dashboard reads.
type statsSource interface {
	Stats() engine.Stats
}

// refreshMsg asks the dashboard to re-read the engine and graph.
type refreshMsg time.Time

// =============================================================================
// WatchModel - Live layout dashboard
// =============================================================================

// WatchModel is the bubbletea model of the watch command. It polls the engine
// counters and the layer statistics on a fixed interval.
type WatchModel struct {
	Scene    string
	Interval time.Duration

	g   *graph.Graph
	eng statsSource

	Stats   engine.Stats
	Layers  []graph.LayerStats
	Lo, Hi  vec.Vec3
	Resets  int
	Err     error
	Updated time.Time
}

func newWatchModel(sceneName string, g *graph.Graph, eng statsSource, interval time.Duration) WatchModel {
	m := WatchModel{Scene: sceneName, Interval: interval, g: g, eng: eng}
	return m.refresh(time.Now())
}

func (m WatchModel) Init() tea.Cmd {
	return m.tick()
}

func (m WatchModel) tick() tea.Cmd {
	return tea.Tick(m.Interval, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

func (m WatchModel) refresh(now time.Time) WatchModel {
	m.Stats = m.eng.Stats()
	m.Layers = m.g.Stats()
	m.Lo, m.Hi = m.g.BoundingBox()
	m.Updated = now
	return m
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			if err := m.g.Randomize(randomizeRadius); err != nil {
				m.Err = err
			} else {
				m.Resets++
			}
			return m.refresh(time.Now()), nil
		}
	case refreshMsg:
		return m.refresh(time.Time(msg)), m.tick()
	}
	return m, nil
}

func (m WatchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("galaster · " + m.Scene))
	b.WriteString("\n\n")

	state := StyleSuccess.Render("running")
	if !m.Stats.Running {
		state = StyleWarning.Render("stopped")
	}
	rows := [][2]string{
		{"engine", state},
		{"ticks", fmt.Sprintf("%d (%d frames)", m.Stats.Ticks, m.Stats.Frames)},
		{"rate", fmt.Sprintf("%.0f ticks/s", m.Stats.TicksPerSecond)},
		{"dt", fmt.Sprintf("%.3f", m.Stats.DT)},
		{"max accel", fmt.Sprintf("%.4g", m.Stats.MaxAccel)},
		{"bounds", formatBox(m.Lo, m.Hi)},
	}
	if m.Resets > 0 {
		rows = append(rows, [2]string{"resets", fmt.Sprint(m.Resets)})
	}
	for _, r := range rows {
		b.WriteString(watchLabelStyle.Render(r[0]) + " " + StyleValue.Render(r[1]) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(layerTable(m.Layers))
	b.WriteString("\n")

	if m.Err != nil {
		b.WriteString(styleBroken.Render(m.Err.Error()) + "\n")
	}
	b.WriteString(watchHelpStyle.Render("r randomize  q quit"))
	return b.String()
}
