package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/normalize"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	EntryListView ViewState = iota
	EntryDetailView
)

// HarvestFunc fetches the chart history shown by the browser.
type HarvestFunc func(ctx context.Context) ([]models.ChartEntry, error)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	harvest  HarvestFunc
	cache    map[string]string
	width    int
	height   int
	loading  bool
	entries  []models.ChartEntry
	list     list.Model
	selected *entryItem
	err      error
	help     help.Model
	keys     keyMap
}

type entriesFetchedMsg struct {
	entries []models.ChartEntry
	err     error
}

// NewModel creates a new TUI model. The cache maps canonical keys to
// resolved track IDs and may be nil when nothing has been resolved yet.
func NewModel(ctx context.Context, harvest HarvestFunc, cache map[string]string) *Model {
	return &Model{
		ctx:     ctx,
		view:    EntryListView,
		harvest: harvest,
		cache:   cache,
		loading: true,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init initializes the TUI by harvesting the chart pages.
func (m *Model) Init() tea.Cmd {
	return m.fetchEntries()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.list.Width() == 0 {
			m.list.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case EntryListView:
			return m.handleListKeys(msg)
		case EntryDetailView:
			return m.handleDetailKeys(msg)
		}

	case entriesFetchedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.entries = msg.entries
		items := make([]list.Item, len(msg.entries))
		for i, entry := range msg.entries {
			items[i] = entryItem{
				entry:   entry,
				trackID: m.cache[normalize.KeyFor(entry).String()],
			}
		}
		m.list = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.list.Title = "UK Number Ones"
		m.list.SetSize(m.width-4, m.height-8)
		return m, nil
	}

	if m.view == EntryListView && !m.loading {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}
	if m.loading {
		return styles.title.Render("Harvesting chart pages...")
	}

	switch m.view {
	case EntryListView:
		return m.renderList()
	case EntryDetailView:
		return m.renderDetail()
	default:
		return ""
	}
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if selected := m.list.SelectedItem(); selected != nil {
			if item, ok := selected.(entryItem); ok {
				m.selected = &item
				m.view = EntryDetailView
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "enter":
		m.selected = nil
		m.view = EntryListView
		return m, nil
	}
	return m, nil
}

func (m *Model) fetchEntries() tea.Cmd {
	return func() tea.Msg {
		entries, err := m.harvest(m.ctx)
		return entriesFetchedMsg{entries: entries, err: err}
	}
}

func (m *Model) renderList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.list.View(), helpView)
}

func (m *Model) renderDetail() string {
	item := m.selected
	if item == nil {
		return ""
	}

	title := styles.title.Render(fmt.Sprintf("%s · %s", item.entry.RawSong, item.entry.RawArtist))
	info := fmt.Sprintf(
		"\nCharted: %s\nCleaned title: %s\nCleaned artist: %s\nCanonical key: %s\n",
		item.entry.ChartDate.Format("2 January 2006"),
		item.entry.Song,
		item.entry.Artist,
		item.key(),
	)

	var resolution string
	if item.trackID != "" {
		resolution = styles.ok.Render(fmt.Sprintf("Resolved: spotify:track:%s", item.trackID))
	} else {
		resolution = styles.warn.Render("Not yet resolved")
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s\n\n%s", title, info, resolution, helpView)
}
