package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytmeta/internal/models"
	"github.com/desertthunder/ytmeta/internal/tasks"
)

// Program runs a [Model] and feeds it pipeline events.
type Program struct {
	model   *Model
	program *tea.Program
}

// NewProgram builds the TUI for rows. stop is invoked when the user presses 's' or quits.
func NewProgram(rows []models.Row, stop func(), opts ...tea.ProgramOption) *Program {
	model := NewModel(rows, stop)
	return &Program{model: model, program: tea.NewProgram(model, opts...)}
}

// Observer returns a [tasks.Observer] that forwards every event to the program.
//
// Sends block while the program is busy and return immediately once it has exited.
func (p *Program) Observer() tasks.Observer {
	return &Observer{send: p.program.Send}
}

// Finish marks the run as done; the view stays up until the user quits.
func (p *Program) Finish(s tasks.Summary) {
	p.program.Send(runDoneMsg(s))
}

// Run blocks until the user quits.
func (p *Program) Run() error {
	_, err := p.program.Run()
	return err
}

// Observer adapts pipeline events to TUI messages.
type Observer struct {
	send func(tea.Msg)
}

func (o *Observer) OnStatus(u tasks.StatusUpdate) { o.send(statusMsg(u)) }
func (o *Observer) OnLog(l tasks.LogLine)         { o.send(logMsg(l)) }
