// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a two-view workflow for inspecting harvested chart history:
//  1. [EntryListView] : Browse number-one entries in chart order
//  2. [EntryDetailView] : Inspect a single entry's cleaned fields and resolution
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Harvesting runs in a tea.Cmd so the interface stays responsive while the
// chart pages download.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
