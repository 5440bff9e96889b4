package tasks

import (
	"fmt"

	"github.com/desertthunder/chartsync/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylist Phase = iota
	Harvest
	Resolve
	Append
	Rebuild
	Clear
	Persist
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylist:
		return "fetch_playlist"
	case Harvest:
		return "harvest"
	case Resolve:
		return "resolve"
	case Append:
		return "append"
	case Rebuild:
		return "rebuild"
	case Clear:
		return "clear"
	case Persist:
		return "persist"
	default:
		return ""
	}
}

func fetchPlaylistUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    step,
		Total:   total,
		Message: "Fetching current playlist state...",
	}
}

func harvestUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Harvest,
		Step:    step,
		Total:   total,
		Message: "Harvesting chart pages...",
	}
}

func harvestedUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Harvest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Harvested %d chart entries", count),
	}
}

func resolveUpdate(step, total int, entry *models.ChartEntry) ProgressUpdate {
	if entry == nil {
		return ProgressUpdate{
			Phase:   Resolve,
			Step:    step,
			Total:   total,
			Message: "Resolving chart entries against the catalog...",
		}
	}
	return ProgressUpdate{
		Phase:   Resolve,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, entry.Artist, entry.Song),
	}
}

func appendedUpdate(step, total int, entry models.ChartEntry, trackID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Append,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Added: %s - %s", entry.Song, entry.Artist),
		Data:    trackID,
	}
}

func rebuildUpdate(batch, batches, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Rebuild,
		Step:    batch,
		Total:   batches,
		Message: fmt.Sprintf("Replacing playlist (%d tracks, batch %d/%d)...", count, batch, batches),
	}
}

func clearUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Clear,
		Step:    1,
		Total:   1,
		Message: "Emptying playlist and resetting stores...",
	}
}

func persistUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Persist,
		Step:    1,
		Total:   1,
		Message: "Persisting run state...",
	}
}
