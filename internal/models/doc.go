// Package models defines the domain entities for the chartsync playlist service.
//
// The package contains two categories of types:
//
// 1. Harvested chart data: values produced fresh each run and never persisted
//   - [ChartEntry] : one number-one record scraped from a chart page
//   - [CanonicalKey] : normalized (song, artist) pair used for deduplication
//
// 2. Catalog and playlist data: read from or written to the streaming service
//   - [CatalogTrack] : a candidate track returned by catalog search
//   - [PlaylistSnapshot] : the playlist membership view fetched at run start
//   - [NotFoundEntry] : a chart entry that failed resolution this run
//   - [ResolvedTrack] : resolved track metadata persisted in the local cache
package models
