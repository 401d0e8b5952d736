package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/songmatch/internal/models"
	"github.com/desertthunder/songmatch/internal/shared"
	"github.com/desertthunder/songmatch/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	InputView ViewState = iota
	MatchingView
	ResultView
	SessionView
)

// platformCycle is the order tab steps through; unknown means "detect from the link".
var platformCycle = []models.Platform{models.PlatformUnknown, models.Spotify, models.AppleMusic}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	engine   tasks.Matcher
	view     ViewState
	width    int
	height   int
	input    textinput.Model
	spinner  spinner.Model
	session  list.Model
	platform int
	pending  string
	current  *resultItem
	status   string
	open     func(string) error
	help     help.Model
	keys     keyMap
}

// Option customizes a [Model].
type Option func(*Model)

// WithOpener replaces the function used to open target links.
func WithOpener(open func(string) error) Option {
	return func(m *Model) { m.open = open }
}

// WithPlatform preselects the declared source platform.
func WithPlatform(p models.Platform) Option {
	return func(m *Model) {
		for i, c := range platformCycle {
			if c == p {
				m.platform = i
			}
		}
	}
}

// NewModel creates a new TUI model around engine.
func NewModel(ctx context.Context, engine tasks.Matcher, opts ...Option) *Model {
	ti := textinput.New()
	ti.Placeholder = "https://open.spotify.com/track/... or https://music.apple.com/..."
	ti.Prompt = "› "
	ti.CharLimit = 512
	ti.Width = 72
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = styles.title.UnsetMarginBottom()

	session := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	session.Title = "This session"
	session.SetShowHelp(false)

	m := &Model{
		ctx:     ctx,
		engine:  engine,
		view:    InputView,
		input:   ti,
		spinner: sp,
		session: session,
		open:    shared.OpenURL,
		help:    help.New(),
		keys:    newKeyMap(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init starts the cursor blinking.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Platform is the currently declared source platform.
func (m *Model) Platform() models.Platform {
	return platformCycle[m.platform]
}

// ViewState returns the view currently shown.
func (m *Model) ViewState() ViewState {
	return m.view
}

// Results returns the session results, newest first.
func (m *Model) Results() []models.MatchResult {
	items := m.session.Items()
	out := make([]models.MatchResult, 0, len(items))
	for _, it := range items {
		out = append(out, it.(resultItem).result)
	}
	return out
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.session.SetSize(msg.Width-4, msg.Height-6)
		m.input.Width = min(72, max(20, msg.Width-8))
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.forceQ) {
			return m, tea.Quit
		}
		switch m.view {
		case InputView:
			return m.handleInputKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		case SessionView:
			return m.handleSessionKeys(msg)
		}
		return m, nil

	case spinner.TickMsg:
		if m.view != MatchingView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	if m.view == InputView {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgMatchComplete:
		done := msg.data.(matchComplete)
		item := resultItem{input: done.input, result: done.result}
		m.current = &item
		m.pending = ""
		m.status = ""
		m.view = ResultView
		return m, m.session.InsertItem(0, item)

	case MsgLinkOpened:
		if err, _ := msg.data.(error); err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Could not open link: %v", err))
		} else {
			m.status = styles.help.Render("Opened in browser")
		}
	}
	return m, nil
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.submit):
		value := strings.TrimSpace(m.input.Value())
		if value == "" {
			return m, nil
		}
		m.pending = value
		m.view = MatchingView
		m.input.Reset()
		return m, tea.Batch(m.spinner.Tick, m.match(value, m.Platform()))

	case key.Matches(msg, m.keys.platform):
		m.platform = (m.platform + 1) % len(platformCycle)
		return m, nil

	case key.Matches(msg, m.keys.back):
		if len(m.session.Items()) > 0 {
			m.view = SessionView
			m.input.Blur()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.open):
		if m.current != nil && m.current.result.Success {
			return m, m.openLink(m.current.result.TargetURL)
		}
	case key.Matches(msg, m.keys.again), key.Matches(msg, m.keys.back):
		return m, m.toInput()
	case key.Matches(msg, m.keys.history):
		m.view = SessionView
		m.status = ""
	}
	return m, nil
}

func (m *Model) handleSessionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.session.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.session, cmd = m.session.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.session.SelectedItem().(resultItem); ok {
			m.current = &item
			m.view = ResultView
		}
		return m, nil
	case key.Matches(msg, m.keys.again), key.Matches(msg, m.keys.back):
		return m, m.toInput()
	}

	var cmd tea.Cmd
	m.session, cmd = m.session.Update(msg)
	return m, cmd
}

func (m *Model) toInput() tea.Cmd {
	m.view = InputView
	m.status = ""
	return m.input.Focus()
}

func (m *Model) match(input string, platform models.Platform) tea.Cmd {
	return func() tea.Msg {
		return matchCompleteMsg(input, m.engine.MatchTrack(m.ctx, input, platform))
	}
}

func (m *Model) openLink(target string) tea.Cmd {
	return func() tea.Msg {
		return linkOpenedMsg(m.open(target))
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case InputView:
		return m.renderInput()
	case MatchingView:
		return m.renderMatching()
	case ResultView:
		return m.renderResult()
	case SessionView:
		return m.renderSession()
	default:
		return ""
	}
}

func (m *Model) renderInput() string {
	title := styles.title.Render("songmatch")

	source := "detect from link"
	if p := m.Platform(); p.Valid() {
		source = platformTag(p)
	}

	helpKeys := []key.Binding{m.keys.submit, m.keys.platform, m.keys.forceQ}
	if len(m.session.Items()) > 0 {
		helpKeys = append(helpKeys, m.keys.back)
	}

	return fmt.Sprintf("%s\n%s\n\nSource: %s\n\n%s", title, m.input.View(), source, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderMatching() string {
	return fmt.Sprintf("%s Resolving %s\n", m.spinner.View(), styles.help.Render(m.pending))
}

func (m *Model) renderResult() string {
	if m.current == nil {
		return styles.err.Render("No result available")
	}
	r := m.current.result

	var b strings.Builder
	if r.Source != nil {
		fmt.Fprintf(&b, "%s  %s\n", platformTag(r.SourcePlatform), r.Source)
	} else {
		fmt.Fprintf(&b, "%s  %s\n", platformTag(r.SourcePlatform), m.current.input)
	}

	helpKeys := []key.Binding{m.keys.again, m.keys.history, m.keys.quit}

	if r.Success {
		target := r.TargetID
		if r.Target != nil {
			target = r.Target.String()
		}
		fmt.Fprintf(&b, "%s  %s\n\n", platformTag(r.TargetPlatform), target)
		fmt.Fprintf(&b, "%s\n", r.TargetURL)
		fmt.Fprintf(&b, "%s", styles.ok.Render(methodLine(r)))
		helpKeys = append([]key.Binding{m.keys.open}, helpKeys...)
	} else {
		fmt.Fprintf(&b, "\n%s", styles.err.Render(fmt.Sprintf("✗ %s", r.Kind())))
		if r.Error != nil && r.Error.Message != "" {
			fmt.Fprintf(&b, "\n%s", styles.warn.Render(r.Error.Message))
		}
	}

	view := styles.box.Render(b.String())
	if m.status != "" {
		view += "\n" + m.status
	}
	return fmt.Sprintf("%s\n\n%s", view, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderSession() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.again, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.session.View(), m.help.ShortHelpView(helpKeys))
}

func methodLine(r models.MatchResult) string {
	switch {
	case r.Method == models.MethodCache:
		return fmt.Sprintf("✓ %s (originally %s)", r.Method, r.ResolvedBy)
	case r.Method == models.MethodMetadata:
		return fmt.Sprintf("✓ %s, score %.2f", r.Method, r.Score)
	default:
		return fmt.Sprintf("✓ %s", r.Method)
	}
}
