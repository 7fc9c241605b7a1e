package cli

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/galaster/pkg/config"
	"github.com/matzehuels/galaster/pkg/engine"
	"github.com/matzehuels/galaster/pkg/scene"
)

type fakeStats struct{ stats engine.Stats }

func (f *fakeStats) Stats() engine.Stats { return f.stats }

func newTestWatch(t *testing.T) (WatchModel, *fakeStats) {
	t.Helper()
	cfg := config.Default()
	cfg.Layout.Layers = 3
	cfg.Scene = config.SceneConfig{Generator: "cube", Size: 2, Seed: 1}
	g, err := scene.Build(cfg, log.New(io.Discard))
	if err != nil {
		t.Fatalf("scene.Build() error = %v", err)
	}
	src := &fakeStats{}
	return newWatchModel("cube", g, src, 10*time.Millisecond), src
}

func TestWatchModelView(t *testing.T) {
	m, _ := newTestWatch(t)

	view := m.View()
	for _, want := range []string{"cube", "stopped", "Vertices"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
	if len(m.Layers) != 3 {
		t.Fatalf("len(Layers) = %d, want 3", len(m.Layers))
	}
	if m.Layers[0].Vertices != 8 {
		t.Errorf("Layers[0].Vertices = %d, want 8", m.Layers[0].Vertices)
	}
}

func TestWatchModelRefresh(t *testing.T) {
	m, src := newTestWatch(t)
	if m.Init() == nil {
		t.Fatal("Init() should schedule a refresh")
	}

	src.stats = engine.Stats{Running: true, Ticks: 42, TicksPerSecond: 1000}
	now := time.Now()
	next, cmd := m.Update(refreshMsg(now))
	if cmd == nil {
		t.Error("refresh should schedule the next tick")
	}

	wm := next.(WatchModel)
	if !wm.Updated.Equal(now) {
		t.Errorf("Updated = %v, want %v", wm.Updated, now)
	}
	if wm.Stats.Ticks != 42 {
		t.Errorf("Stats.Ticks = %d, want 42", wm.Stats.Ticks)
	}
	view := wm.View()
	for _, want := range []string{"running", "1000 ticks/s"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestWatchModelKeys(t *testing.T) {
	m, _ := newTestWatch(t)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd != nil {
		t.Error("reset should not return a command")
	}
	wm := next.(WatchModel)
	if wm.Resets != 1 {
		t.Errorf("Resets = %d, want 1", wm.Resets)
	}
	if !strings.Contains(wm.View(), "resets") {
		t.Error("View() should show the reset count")
	}

	_, cmd = wm.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestWatchModelShowsErrors(t *testing.T) {
	m, _ := newTestWatch(t)
	m.Err = errors.New("graph is closed")
	if !strings.Contains(m.View(), "graph is closed") {
		t.Error("View() should show the error")
	}
}
