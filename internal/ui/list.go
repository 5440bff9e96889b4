package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/normalize"
)

var _ list.Item = entryItem{}

// entryItem wraps [models.ChartEntry] to implement [list.Item]. The
// track ID is the entry's cached resolution, empty when unresolved.
type entryItem struct {
	entry   models.ChartEntry
	trackID string
}

func (i entryItem) FilterValue() string {
	return fmt.Sprintf("%s %s", i.entry.RawSong, i.entry.RawArtist)
}

func (i entryItem) Title() string {
	return fmt.Sprintf("%s · %s", i.entry.RawSong, i.entry.RawArtist)
}

func (i entryItem) Description() string {
	desc := i.entry.ChartDate.Format("2 Jan 2006")
	if i.trackID != "" {
		desc = fmt.Sprintf("%s • resolved %s", desc, i.trackID)
	} else {
		desc = fmt.Sprintf("%s • unresolved", desc)
	}
	return desc
}

func (i entryItem) key() string {
	return normalize.KeyFor(i.entry).String()
}
