package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
//
// Letter bindings only apply outside the input view, where letters are typed.
type keyMap struct {
	submit   key.Binding
	platform key.Binding
	back     key.Binding
	open     key.Binding
	again    key.Binding
	history  key.Binding
	enter    key.Binding
	quit     key.Binding
	forceQ   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "match")),
		platform: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "source platform")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		open:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open link")),
		again:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new match")),
		history:  key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "session")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		quit:     key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		forceQ:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.forceQ}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.submit, k.platform, k.back},
		{k.open, k.again, k.history},
		{k.quit, k.forceQ},
	}
}
