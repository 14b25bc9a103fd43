package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mixflow/internal/engine"
	"github.com/desertthunder/mixflow/internal/formatter"
	"github.com/desertthunder/mixflow/internal/models"
	"github.com/desertthunder/mixflow/internal/sequencer"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SortingView ViewState = iota
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	engine *engine.SortEngine
	songs  []models.Song
	opts   engine.Options

	view   ViewState
	width  int
	height int

	resultList   list.Model
	progressChan chan engine.ProgressUpdate
	progress     engine.ProgressUpdate
	result       *engine.SortResult
	exported     string
	err          error

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, eng *engine.SortEngine, songs []models.Song, opts engine.Options) *Model {
	return &Model{
		ctx:    ctx,
		engine: eng,
		songs:  songs,
		opts:   opts,
		view:   SortingView,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init starts the sort as soon as the program launches.
func (m *Model) Init() tea.Cmd {
	return m.startSort()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.resultList.Width() != 0 {
			m.resultList.SetSize(msg.Width-4, msg.Height-10)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SortingView:
			return m.handleSortingKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case progressUpdateMsg:
		m.progress = engine.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case sortCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.progressChan = nil
		if m.err == nil && m.result != nil {
			m.buildResultList()
		}
		m.view = ResultView
		return m, nil
	}

	if m.view == ResultView {
		var cmd tea.Cmd
		m.resultList, cmd = m.resultList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case SortingView:
		return m.renderSorting()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleSortingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.result = nil
		m.exported = ""
		m.err = nil
		m.view = SortingView
		return m, m.startSort()
	case "e":
		if m.result != nil {
			path, err := formatter.WriteExport(m.songs, m.result, "json", "")
			if err != nil {
				m.err = err
			} else {
				m.exported = path
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.resultList, cmd = m.resultList.Update(msg)
	return m, cmd
}

func (m *Model) buildResultList() {
	byID := make(map[string]models.EnrichedSong, len(m.songs))
	for _, song := range sequencer.Enrich(m.songs) {
		byID[song.ID] = song
	}

	items := make([]list.Item, 0, len(m.result.SortedIDs))
	for i, id := range m.result.SortedIDs {
		song, ok := byID[id]
		if !ok {
			continue
		}
		items = append(items, songItem{position: i + 1, song: song})
	}

	m.resultList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.resultList.Title = fmt.Sprintf("Sorted %d songs", len(items))
	m.resultList.SetSize(m.width-4, m.height-10)
}

func (m *Model) startSort() tea.Cmd {
	progressChan := make(chan engine.ProgressUpdate, 50)
	m.progressChan = progressChan

	go func() {
		result, err := m.engine.SmartSort(m.ctx, m.songs, progressChan, m.opts)
		m.result = result
		m.err = err
		close(progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progressChan := m.progressChan
	return func() tea.Msg {
		if progressChan == nil {
			return sortCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-progressChan
		if !ok {
			return sortCompleteMsg{result: m.result, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderSorting() string {
	title := styles.title.Render("Sorting Library")

	var phase string
	switch m.progress.Phase {
	case engine.Normalize:
		phase = "Normalizing genres..."
	case engine.Arrange:
		phase = "Arranging songs..."
	case engine.Verify:
		phase = "Verifying order with the ranking model..."
	default:
		phase = "Processing..."
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s\n\n%s\n%s\n\n%s", title, phase, m.progress.Message, helpView)
}

func (m *Model) renderResult() string {
	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to re-sort, q to quit")
	}

	summary := m.result.Summary
	footer := fmt.Sprintf(
		"method %s • %s • %d same-artist / %d same-genre adjacencies",
		summary.Method,
		summary.Timing.Round(time.Millisecond),
		summary.Quality.AdjacentArtist,
		summary.Quality.AdjacentGenre,
	)
	if summary.SwapsApplied > 0 {
		footer += fmt.Sprintf(" • %d swaps", summary.SwapsApplied)
	}

	status := styles.ok.Render(footer)
	if summary.Method == engine.MethodDegraded {
		status = styles.warn.Render(footer)
	}

	exported := ""
	if m.exported != "" {
		exported = "\n" + styles.help.Render(fmt.Sprintf("exported to %s", m.exported))
	}

	helpKeys := []key.Binding{m.keys.resort, m.keys.export, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s%s\n\n%s", m.resultList.View(), status, exported, helpView)
}
