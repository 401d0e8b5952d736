package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/songmatch/internal/models"
)

type fakeMatcher struct {
	mu    sync.Mutex
	calls []string
	plats []models.Platform
}

func (f *fakeMatcher) MatchTrack(ctx context.Context, input string, platform models.Platform) models.MatchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, input)
	f.plats = append(f.plats, platform)

	if strings.Contains(input, "missing") {
		return models.Failure(models.CacheKey{SourcePlatform: models.Spotify, SourceID: input, TargetPlatform: models.AppleMusic},
			models.NewMatchError(models.KindNoMatchFound, "best score 0.31 below threshold 0.60"))
	}
	return models.MatchResult{
		Success:        true,
		SourcePlatform: models.Spotify,
		SourceID:       "4u7EnebtmKWzUH433cf5Qv",
		TargetPlatform: models.AppleMusic,
		TargetID:       "1440650711",
		TargetURL:      "https://music.apple.com/us/song/1440650711",
		Method:         models.MethodISRC,
		Score:          1,
		Source:         &models.TrackMetadata{Title: "Bohemian Rhapsody", Artist: "Queen"},
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// submit types input, presses enter and runs the resulting match command.
func submit(t *testing.T, m *Model, input string) {
	t.Helper()

	m.Update(keyRunes(input))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.ViewState() != MatchingView {
		t.Fatalf("expected matching view after enter, got %d", m.ViewState())
	}
	if cmd == nil {
		t.Fatal("expected a command after enter")
	}

	batch, ok := cmd().(tea.BatchMsg)
	if !ok {
		t.Fatal("expected a batch of commands")
	}
	for _, c := range batch {
		if c == nil {
			continue
		}
		if msg, ok := c().(Msg); ok {
			m.Update(msg)
		}
	}
}

func TestModel_Match(t *testing.T) {
	t.Run("success shows the result", func(t *testing.T) {
		engine := &fakeMatcher{}
		m := NewModel(context.Background(), engine)

		submit(t, m, "https://open.spotify.com/track/4u7EnebtmKWzUH433cf5Qv")

		if m.ViewState() != ResultView {
			t.Fatalf("expected result view, got %d", m.ViewState())
		}
		if len(engine.calls) != 1 || engine.plats[0] != models.PlatformUnknown {
			t.Errorf("unexpected engine calls %v %v", engine.calls, engine.plats)
		}

		view := m.View()
		for _, want := range []string{"Bohemian Rhapsody", "ISRC_MATCH", "music.apple.com"} {
			if !strings.Contains(view, want) {
				t.Errorf("result view missing %q:\n%s", want, view)
			}
		}
	})

	t.Run("failure shows the error kind", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeMatcher{})

		submit(t, m, "missing-track")

		if !strings.Contains(m.View(), "NO_MATCH_FOUND") {
			t.Errorf("expected NO_MATCH_FOUND in view:\n%s", m.View())
		}
	})

	t.Run("blank input is ignored", func(t *testing.T) {
		engine := &fakeMatcher{}
		m := NewModel(context.Background(), engine)

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if cmd != nil || m.ViewState() != InputView {
			t.Error("expected blank enter to stay in the input view")
		}
	})

	t.Run("tab cycles the declared platform", func(t *testing.T) {
		engine := &fakeMatcher{}
		m := NewModel(context.Background(), engine)

		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		if m.Platform() != models.Spotify {
			t.Fatalf("expected spotify after one tab, got %s", m.Platform())
		}

		submit(t, m, "4u7EnebtmKWzUH433cf5Qv")
		if engine.plats[0] != models.Spotify {
			t.Errorf("expected declared spotify, got %s", engine.plats[0])
		}

		m.Update(keyRunes("n"))
		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		if m.Platform() != models.PlatformUnknown {
			t.Errorf("expected cycle back to detect, got %s", m.Platform())
		}
	})

	t.Run("WithPlatform preselects", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeMatcher{}, WithPlatform(models.AppleMusic))
		if m.Platform() != models.AppleMusic {
			t.Errorf("expected apple music, got %s", m.Platform())
		}
	})
}

func TestModel_Session(t *testing.T) {
	m := NewModel(context.Background(), &fakeMatcher{})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	submit(t, m, "https://open.spotify.com/track/4u7EnebtmKWzUH433cf5Qv")
	m.Update(keyRunes("n"))
	if m.ViewState() != InputView {
		t.Fatalf("expected input view after n, got %d", m.ViewState())
	}
	submit(t, m, "missing-track")

	results := m.Results()
	if len(results) != 2 {
		t.Fatalf("expected 2 session results, got %d", len(results))
	}
	if results[0].Success {
		t.Error("expected newest result first")
	}

	m.Update(keyRunes("h"))
	if m.ViewState() != SessionView {
		t.Fatalf("expected session view, got %d", m.ViewState())
	}
	if !strings.Contains(m.View(), "Queen - Bohemian Rhapsody") {
		t.Errorf("session list missing the first match:\n%s", m.View())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.ViewState() != ResultView {
		t.Errorf("expected details after enter, got %d", m.ViewState())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.ViewState() != InputView {
		t.Errorf("expected esc to return to input, got %d", m.ViewState())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.ViewState() != SessionView {
		t.Errorf("expected esc from input to show the session, got %d", m.ViewState())
	}
}

func TestModel_OpenLink(t *testing.T) {
	t.Run("opens the target URL", func(t *testing.T) {
		var opened string
		m := NewModel(context.Background(), &fakeMatcher{}, WithOpener(func(u string) error {
			opened = u
			return nil
		}))
		submit(t, m, "https://open.spotify.com/track/4u7EnebtmKWzUH433cf5Qv")

		_, cmd := m.Update(keyRunes("o"))
		if cmd == nil {
			t.Fatal("expected open command")
		}
		m.Update(cmd())

		if opened != "https://music.apple.com/us/song/1440650711" {
			t.Errorf("unexpected opened URL %q", opened)
		}
		if !strings.Contains(m.View(), "Opened in browser") {
			t.Errorf("expected confirmation in view:\n%s", m.View())
		}
	})

	t.Run("reports opener errors", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeMatcher{}, WithOpener(func(string) error {
			return errors.New("no browser")
		}))
		submit(t, m, "https://open.spotify.com/track/4u7EnebtmKWzUH433cf5Qv")

		_, cmd := m.Update(keyRunes("o"))
		m.Update(cmd())

		if !strings.Contains(m.View(), "no browser") {
			t.Errorf("expected error in view:\n%s", m.View())
		}
	})

	t.Run("failures have nothing to open", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeMatcher{}, WithOpener(func(string) error {
			t.Error("opener should not be called")
			return nil
		}))
		submit(t, m, "missing-track")

		if _, cmd := m.Update(keyRunes("o")); cmd != nil {
			t.Error("expected no command for a failed result")
		}
	})
}

func TestModel_Quit(t *testing.T) {
	m := NewModel(context.Background(), &fakeMatcher{})

	m.Update(keyRunes("q"))
	if m.input.Value() != "q" || m.ViewState() != InputView {
		t.Errorf("q should be typed into the input, got %q", m.input.Value())
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected ctrl+c to quit")
	}
}
