package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mixflow/internal/engine"
)

var _ tea.Msg = progressUpdateMsg{}

// progressUpdateMsg wraps one engine progress event.
type progressUpdateMsg engine.ProgressUpdate

// sortCompleteMsg carries the final result once the engine finishes.
type sortCompleteMsg struct {
	result *engine.SortResult
	err    error
}
