package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytmeta/internal/tasks"
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
	MsgStatus MsgKind = iota
	MsgLog
	MsgRunDone
)

// statusMsg is the constructor for [MsgStatus]
func statusMsg(u tasks.StatusUpdate) Msg {
	return Msg{kind: MsgStatus, data: u}
}

// logMsg is the constructor for [MsgLog]
func logMsg(l tasks.LogLine) Msg {
	return Msg{kind: MsgLog, data: l}
}

// runDoneMsg is the constructor for [MsgRunDone]
func runDoneMsg(s tasks.Summary) Msg {
	return Msg{kind: MsgRunDone, data: s}
}
