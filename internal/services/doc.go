// Package services defines the Catalog interface for the external
// streaming catalog and its Spotify implementation.
//
// The catalog exposes three capabilities the sync engine needs: field-scoped
// track search, paginated playlist reads, and order-preserving playlist
// mutation (batched append and wholesale replace). Authentication runs
// through [golang.org/x/oauth2] with either a stored refresh token (the
// scheduled-run path) or an authorization code from the loopback flow.
package services
