// package resolver maps chart entries to catalog tracks
//
// Resolution is cache-first: a canonical key already present in the
// resolution cache returns immediately with no network traffic, since
// catalog search dominates run latency. Uncached entries go through a
// cascade of increasingly relaxed search queries; every candidate from
// every query is scored and the best one wins, with an early exit as soon
// as any query produces a confident match.
package resolver

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/normalize"
	"github.com/desertthunder/chartsync/internal/services"
	"github.com/desertthunder/chartsync/internal/shared"
)

// confidentScore is the score at which a candidate is accepted without
// trying the rest of the cascade. An exact title-key match alone reaches
// it, which bounds network calls for well-known entries.
const confidentScore = 5

// defaultCandidateLimit is how many candidates each query fetches.
const defaultCandidateLimit = 5

// Searcher is the slice of the catalog the resolver needs.
type Searcher interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]models.CatalogTrack, error)
}

// Resolution is the outcome of resolving one chart entry.
type Resolution struct {
	TrackID   string
	Track     *models.CatalogTrack // nil on a cache hit
	Score     int
	FromCache bool
}

// Resolver resolves chart entries against the catalog.
type Resolver struct {
	catalog  Searcher
	logger   *log.Logger
	limit    int
	notFound []models.NotFoundEntry
}

// ResolverOpts contains configuration options for creating a Resolver.
type ResolverOpts struct {
	Catalog        Searcher
	Logger         *log.Logger
	CandidateLimit int
}

// NewResolver creates a Resolver with the provided configuration.
func NewResolver(opts ResolverOpts) *Resolver {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.CandidateLimit <= 0 {
		opts.CandidateLimit = defaultCandidateLimit
	}
	return &Resolver{
		catalog: opts.Catalog,
		logger:  opts.Logger,
		limit:   opts.CandidateLimit,
	}
}

// Resolve maps an entry to a catalog track ID.
//
// The cache is consulted first; on a hit no search call is made. On a
// fresh resolution the key→ID mapping is written into cache (persisting
// it is the caller's responsibility). A failed resolution is recorded in
// the not-found log with the entry's raw title and artist, and returns
// ok=false, an expected terminal outcome rather than an error.
func (r *Resolver) Resolve(ctx context.Context, entry models.ChartEntry, cache map[string]string) (Resolution, bool) {
	key := normalize.KeyFor(entry).String()
	if id, ok := cache[key]; ok {
		return Resolution{TrackID: id, FromCache: true}, true
	}

	var best *models.CatalogTrack
	bestScore := 0

	for _, query := range queryCascade(entry) {
		candidates, err := r.catalog.SearchTracks(ctx, query, r.limit)
		if err != nil {
			// A failed search has cheap alternatives further down the
			// cascade; only playlist mutations get retries.
			r.logger.Debug("search query failed", "query", query, "err", err)
			continue
		}

		for i := range candidates {
			score := ScoreCandidate(entry, candidates[i])
			if score > bestScore || best == nil && score == bestScore {
				best = &candidates[i]
				bestScore = score
			}
		}

		if best != nil && bestScore >= confidentScore {
			break
		}
	}

	if best == nil {
		r.notFound = append(r.notFound, models.NotFoundEntry{
			Song:   entry.RawSong,
			Artist: entry.RawArtist,
		})
		r.logger.Info("no catalog match", "song", entry.RawSong, "artist", entry.RawArtist)
		return Resolution{}, false
	}

	cache[key] = best.ID
	return Resolution{TrackID: best.ID, Track: best, Score: bestScore}, true
}

// NotFound returns the entries that failed resolution since the last reset.
func (r *Resolver) NotFound() []models.NotFoundEntry {
	return append([]models.NotFoundEntry(nil), r.notFound...)
}

// ResetNotFound clears the not-found log at the start of a run.
func (r *Resolver) ResetNotFound() {
	r.notFound = nil
}

// queryCascade builds the ordered query sequence for an entry, most
// specific first: exact field-scoped searches within the chart year, a
// widened year range, the same searches without year scoping, and a pure
// keyword fallback.
func queryCascade(entry models.ChartEntry) []string {
	year := entry.ChartDate.Year()
	title := entry.Song
	cleanArtist := entry.Artist
	rawArtist := entry.RawArtist

	queries := []string{
		services.BuildTrackQuery(title, cleanArtist, year, 0),
		services.BuildTrackQuery(title, rawArtist, year, 0),
		services.BuildTrackQuery(title, "", year, 0),
		keywordQuery(title, cleanArtist, year),
		services.BuildTrackQuery(title, cleanArtist, year-1, year+1),
		services.BuildTrackQuery(title, cleanArtist, 0, 0),
		services.BuildTrackQuery(title, rawArtist, 0, 0),
		services.BuildTrackQuery(title, "", 0, 0),
		keywordQuery(title, cleanArtist, 0),
	}

	// Dedupe while preserving order; the raw and clean artist strings are
	// often identical.
	seen := make(map[string]bool, len(queries))
	out := queries[:0]
	for _, q := range queries {
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
	}
	return out
}

func keywordQuery(title, artist string, year int) string {
	q := title
	if artist != "" {
		q += " " + artist
	}
	if year > 0 {
		q += " " + services.BuildTrackQuery("", "", year, 0)
	}
	return q
}
