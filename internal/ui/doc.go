// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a two-view workflow for sorting a song library:
//  1. [SortingView] : Monitor real-time sort progress updates
//  2. [ResultView] : Browse the final order with genre/popularity detail and a summary footer
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the SortEngine, providing non-blocking status reporting during sorts.
//
// Keyboard navigation uses vim-style bindings (j/k, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
