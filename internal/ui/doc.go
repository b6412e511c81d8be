// Package ui implements the live terminal view of an update run using bubbletea's Elm architecture.
//
// The screen shows a table with the state of every input row, a scrolling log
// viewport and contextual key help. Pipeline events reach the [Model] through
// [Observer], which posts them to the running [Program] as messages of the [Msg] union.
//
// Pressing s requests a stop: queued rows are discarded and rows already being
// updated finish. q stops the same way and leaves the TUI.
package ui
