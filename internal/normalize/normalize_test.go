package normalize

import (
	"testing"
	"time"

	"github.com/desertthunder/chartsync/internal/models"
)

func TestCleanSongTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Spaceman", "Spaceman"},
		{"quoted", `"Spaceman"`, "Spaceman"},
		{"typographic quotes", "“Spaceman”", "Spaceman"},
		{"bracketed annotation", "Three Lions (Football's Coming Home)", "Three Lions"},
		{"square brackets", "Spaceman [Radio Mix]", "Spaceman"},
		{"quoted and bracketed", `"Firestarter" (The Prodigy)`, "Firestarter"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanSongTitle(tc.in); got != tc.want {
				t.Errorf("CleanSongTitle(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}

	t.Run("idempotent", func(t *testing.T) {
		inputs := []string{
			`"Spaceman"`,
			"Three Lions (Football's Coming Home)",
			"  Ooh Aah... Just a Little Bit  ",
		}
		for _, in := range inputs {
			once := CleanSongTitle(in)
			twice := CleanSongTitle(once)
			if once != twice {
				t.Errorf("CleanSongTitle not idempotent for %q: %q != %q", in, once, twice)
			}
		}
	})
}

func TestBaseSongKey(t *testing.T) {
	t.Run("remaster variants collapse", func(t *testing.T) {
		variants := []string{
			"Wannabe",
			"Wannabe (2011 Remaster)",
			"Wannabe - Radio Edit",
			`"Wannabe"`,
			"Wannabe '96",
		}
		want := BaseSongKey("Wannabe")
		for _, v := range variants {
			if got := BaseSongKey(v); got != want {
				t.Errorf("BaseSongKey(%q) = %q, want %q", v, got, want)
			}
		}
	})

	t.Run("lowercases and collapses whitespace", func(t *testing.T) {
		if got := BaseSongKey("  KILLING   ME SOFTLY  "); got != "killing me softly" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("version tags stripped whole word only", func(t *testing.T) {
		// "mixed" contains "mix" but is not a whole-word match.
		if got := BaseSongKey("Mixed Emotions"); got != "mixed emotions" {
			t.Errorf("got %q", got)
		}
	})
}

func TestCleanArtistName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Spice Girls", "Spice Girls"},
		{"feat dot", "Another Level feat. TQ", "Another Level"},
		{"featuring", "Melanie B featuring Missy Elliott", "Melanie B"},
		{"ft", "B.o.B ft Hayley Williams", "B.o.B"},
		{"with", "Puff Daddy with Jimmy Page", "Puff Daddy"},
		{"ampersand kept", "Robson & Jerome", "Robson & Jerome"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanArtistName(tc.in); got != tc.want {
				t.Errorf("CleanArtistName(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestBaseArtistKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single artist", "Oasis", "oasis"},
		{"ampersand joiner", "Robson & Jerome", "robson & jerome"},
		{"and normalizes to ampersand", "Robson and Jerome", "robson & jerome"},
		{"featured credit dropped", "Robson & Jerome feat. Orchestra", "robson & jerome"},
		{"keeps at most two parts", "A & B & C", "a & b"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := BaseArtistKey(tc.in); got != tc.want {
				t.Errorf("BaseArtistKey(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestKeyFor(t *testing.T) {
	t.Run("uses raw fields", func(t *testing.T) {
		entry := models.ChartEntry{
			ChartDate: time.Date(1996, 7, 27, 0, 0, 0, 0, time.UTC),
			RawSong:   `"Wannabe"`,
			RawArtist: "Spice Girls",
			Song:      "Wannabe",
			Artist:    "Spice Girls",
		}
		key := KeyFor(entry)
		if key.Song != "wannabe" || key.Artist != "spice girls" {
			t.Errorf("unexpected key %+v", key)
		}
		if key.String() != "wannabe|spice girls" {
			t.Errorf("unexpected key string %q", key.String())
		}
	})

	t.Run("re-entry keys equal across variants", func(t *testing.T) {
		first := models.ChartEntry{RawSong: "Three Lions", RawArtist: "Baddiel & Skinner and Lightning Seeds"}
		reentry := models.ChartEntry{RawSong: "Three Lions '98", RawArtist: "Baddiel & Skinner feat. Lightning Seeds"}
		if KeyFor(first).String() != KeyFor(reentry).String() {
			t.Errorf("re-entry keys differ: %q vs %q", KeyFor(first).String(), KeyFor(reentry).String())
		}
	})
}
