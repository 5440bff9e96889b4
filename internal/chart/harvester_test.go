package chart

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const page1996HTML = `
<html><body>
<table class="wikitable">
<caption>Number ones of 1996</caption>
<tr><th>Week ending</th><th>Single</th><th>Artist</th></tr>
<tr><td>10 February</td><td>"Spaceman"</td><td>Babylon Zoo</td></tr>
<tr><td>16 March</td><td>"How Deep Is Your Love"</td><td>Take That</td></tr>
</table>
<table class="wikitable">
<tr><th>Year</th><th>Best-selling single</th></tr>
<tr><td>1996</td><td>"Killing Me Softly"</td></tr>
</table>
</body></html>`

const page2024HTML = `
<html><body>
<table class="wikitable">
<caption>Number ones of 2024</caption>
<tr><th>Week ending</th><th>Single</th><th>Artist</th></tr>
<tr><td>4 January</td><td>"Song One"</td><td>Artist One</td></tr>
<tr><td>11 January</td><td>"Song Two"</td><td>Artist Two</td></tr>
</table>
</body></html>`

func TestHarvester(t *testing.T) {
	var gotUserAgent string
	mux := http.NewServeMux()
	mux.HandleFunc("/1990s", func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Write([]byte(page1996HTML))
	})
	mux.HandleFunc("/2000s", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/2020s", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page2024HTML))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	h := NewHarvester(HarvesterOpts{
		Pages:     []string{srv.URL + "/1990s", srv.URL + "/2000s", srv.URL + "/2020s"},
		UserAgent: "chartsync-test/1.0",
	})

	t.Run("HarvestAll", func(t *testing.T) {
		entries, err := h.HarvestAll(context.Background())
		if err != nil {
			t.Fatalf("HarvestAll failed: %v", err)
		}

		// The unavailable page contributes nothing; the summary table
		// without chart columns is skipped.
		if len(entries) != 4 {
			t.Fatalf("expected 4 entries, got %d", len(entries))
		}

		for i := 1; i < len(entries); i++ {
			if entries[i].ChartDate.Before(entries[i-1].ChartDate) {
				t.Errorf("entries not sorted ascending at %d", i)
			}
		}

		if entries[0].Song != "Spaceman" {
			t.Errorf("first entry = %q", entries[0].Song)
		}
		if gotUserAgent != "chartsync-test/1.0" {
			t.Errorf("user agent = %q", gotUserAgent)
		}
	})

	t.Run("HarvestLatest", func(t *testing.T) {
		latest, err := h.HarvestLatest(context.Background())
		if err != nil {
			t.Fatalf("HarvestLatest failed: %v", err)
		}
		if latest == nil {
			t.Fatal("expected a latest entry")
		}
		if latest.Song != "Song Two" {
			t.Errorf("latest = %q, want Song Two", latest.Song)
		}
		want := time.Date(2024, time.January, 11, 0, 0, 0, 0, time.UTC)
		if !latest.ChartDate.Equal(want) {
			t.Errorf("latest date = %v, want %v", latest.ChartDate, want)
		}
	})

	t.Run("cutoff filters entries", func(t *testing.T) {
		withCutoff := NewHarvester(HarvesterOpts{
			Pages:  []string{srv.URL + "/1990s"},
			Cutoff: time.Date(1996, time.March, 1, 0, 0, 0, 0, time.UTC),
		})
		entries, err := withCutoff.HarvestAll(context.Background())
		if err != nil {
			t.Fatalf("HarvestAll failed: %v", err)
		}
		if len(entries) != 1 || entries[0].Song != "How Deep Is Your Love" {
			t.Fatalf("unexpected entries %+v", entries)
		}
	})

	t.Run("all pages failing yields empty, not error", func(t *testing.T) {
		broken := NewHarvester(HarvesterOpts{Pages: []string{srv.URL + "/2000s"}})
		entries, err := broken.HarvestAll(context.Background())
		if err != nil {
			t.Fatalf("HarvestAll failed: %v", err)
		}
		if len(entries) != 0 {
			t.Fatalf("expected no entries, got %d", len(entries))
		}
	})

	t.Run("HarvestLatest surfaces page errors", func(t *testing.T) {
		broken := NewHarvester(HarvesterOpts{Pages: []string{srv.URL + "/2000s"}})
		if _, err := broken.HarvestLatest(context.Background()); err == nil {
			t.Fatal("expected error from unavailable page")
		}
	})
}
