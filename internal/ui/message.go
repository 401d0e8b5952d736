package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/songmatch/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgMatchComplete MsgKind = iota
	MsgLinkOpened
)

type matchComplete struct {
	input  string
	result models.MatchResult
}

// matchCompleteMsg is the constructor for [MsgMatchComplete]
func matchCompleteMsg(input string, result models.MatchResult) Msg {
	return Msg{kind: MsgMatchComplete, data: matchComplete{input: input, result: result}}
}

// linkOpenedMsg is the constructor for [MsgLinkOpened]; err is nil on success.
func linkOpenedMsg(err error) Msg {
	return Msg{kind: MsgLinkOpened, data: err}
}
