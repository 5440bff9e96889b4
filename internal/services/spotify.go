// Spotify API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	defaultSearchRate = 5.0
)

type externalIDs struct {
	ISRC string `json:"isrc"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	Album       SpotifyAlbum    `json:"album"`
	DurationMS  int             `json:"duration_ms"`
	Explicit    bool            `json:"explicit"`
	ExternalIDs externalIDs     `json:"external_ids"`
	Popularity  int             `json:"popularity"`
	URI         string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
	URI         string `json:"uri"`
}

// SpotifySearchResult represents the track portion of a search response.
type SpotifySearchResult struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
		Total int            `json:"total"`
	} `json:"tracks"`
}

// SpotifyPlaylistItems represents a paginated response of playlist tracks.
type SpotifyPlaylistItems struct {
	Items []struct {
		Track SpotifyTrack `json:"track"`
	} `json:"items"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
	Next   *string `json:"next"`
}

// SpotifyService implements the Catalog interface for Spotify API interactions.
// Uses [oauth2] for authentication and a [rate.Limiter] to keep search
// traffic under the API's rate limits.
type SpotifyService struct {
	config         *oauth2.Config
	token          *oauth2.Token
	httpClient     *http.Client
	credentials    map[string]string
	limiter        *rate.Limiter
	market         string
	onTokenRefresh func(*oauth2.Token)
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	searchRate := defaultSearchRate
	if v, ok := credentials["search_rate"]; ok && v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			searchRate = parsed
		}
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"playlist-read-private",
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:      config,
		httpClient:  http.DefaultClient,
		credentials: credentials,
		limiter:     rate.NewLimiter(rate.Limit(searchRate), 1),
		market:      credentials["market"],
	}, nil
}

// Authenticate establishes a bearer session.
//
// Accepts, in order of preference: a refresh_token (the scheduled-run
// path), a raw access_token, or an auth_code from the loopback flow.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if refreshToken, ok := credentials["refresh_token"]; ok && refreshToken != "" {
		seed := &oauth2.Token{RefreshToken: refreshToken}
		source := &refreshableTokenSource{
			source:   s.config.TokenSource(ctx, seed),
			callback: s.onTokenRefresh,
		}
		token, err := source.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
		}
		s.token = token
		s.httpClient = oauth2.NewClient(ctx, source)
		return nil
	}

	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.token = &oauth2.Token{AccessToken: accessToken}
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("failed to exchange auth code: %w", err)
		}
		s.token = token
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	return fmt.Errorf("%w: missing refresh_token, access_token or auth_code", shared.ErrMissingCredentials)
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// OAuthConfig exposes the underlying OAuth2 config for the callback server.
func (s *SpotifyService) OAuthConfig() *oauth2.Config {
	return s.config
}

// SetTokenRefreshCallback registers a callback invoked whenever the
// underlying token source produces a new token.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.onTokenRefresh = fn
}

// doRequest performs an authenticated HTTP request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	apiURL := spotifyBaseURL + endpoint

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// SearchTracks runs a query in Spotify's search mini-language.
//
// Waits on the service's rate limiter before hitting the wire, so the
// resolver's query cascade cannot exceed the configured request rate.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]models.CatalogTrack, error) {
	if limit <= 0 {
		limit = 5
	}
	if limit > 50 {
		limit = 50
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(limit))
	if s.market != "" {
		params.Set("market", s.market)
	}

	var result SpotifySearchResult
	if err := s.doRequest(ctx, "GET", "/search?"+params.Encode(), nil, &result); err != nil {
		return nil, err
	}

	tracks := make([]models.CatalogTrack, 0, len(result.Tracks.Items))
	for _, item := range result.Tracks.Items {
		tracks = append(tracks, toCatalogTrack(item))
	}
	return tracks, nil
}

// PlaylistTrackIDs retrieves the ordered track ID membership of a playlist.
func (s *SpotifyService) PlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error) {
	var ids []string
	limit := 100
	offset := 0

	for {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?fields=items(track(id)),next,total&limit=%d&offset=%d",
			url.PathEscape(playlistID), limit, offset)

		var page SpotifyPlaylistItems
		if err := s.doRequest(ctx, "GET", endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track.ID != "" {
				ids = append(ids, item.Track.ID)
			}
		}

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += limit
	}

	return ids, nil
}

// AddTracks appends track IDs to a playlist, preserving order.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return fmt.Errorf("%w: no track IDs provided", shared.ErrInvalidArgument)
	}
	if len(trackIDs) > MaxBatchSize {
		return fmt.Errorf("%w: maximum %d track IDs per call", shared.ErrInvalidArgument, MaxBatchSize)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	body := map[string]any{"uris": trackURIs(trackIDs)}
	return s.doRequest(ctx, "POST", endpoint, body, nil)
}

// ReplaceTracks replaces the playlist's entire membership.
//
// An empty slice empties the playlist; the rebuild path relies on that to
// clear before re-appending the canonical ordering in batches.
func (s *SpotifyService) ReplaceTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) > MaxBatchSize {
		return fmt.Errorf("%w: maximum %d track IDs per call", shared.ErrInvalidArgument, MaxBatchSize)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	body := map[string]any{"uris": trackURIs(trackIDs)}
	return s.doRequest(ctx, "PUT", endpoint, body, nil)
}

func trackURIs(ids []string) []string {
	uris := make([]string, len(ids))
	for i, id := range ids {
		uris[i] = "spotify:track:" + id
	}
	return uris
}

// toCatalogTrack converts a Spotify API track to the catalog model.
// The release year comes from the album release date prefix; Spotify
// reports "2006", "2006-01" or "2006-01-02" depending on precision.
func toCatalogTrack(t SpotifyTrack) models.CatalogTrack {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}

	year := 0
	if len(t.Album.ReleaseDate) >= 4 {
		if y, err := strconv.Atoi(t.Album.ReleaseDate[:4]); err == nil {
			year = y
		}
	}

	return models.CatalogTrack{
		ID:          t.ID,
		Title:       t.Name,
		ArtistNames: names,
		ReleaseYear: year,
		Popularity:  t.Popularity,
	}
}

// refreshableTokenSource wraps an [oauth2.TokenSource] and invokes a
// callback when the token changes, letting callers persist rotated
// refresh tokens.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)
	mu       sync.Mutex
	last     string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, fmt.Errorf("token source: %w", err)
	}

	r.mu.Lock()
	changed := token.AccessToken != r.last
	if changed {
		r.last = token.AccessToken
	}
	r.mu.Unlock()

	if changed && r.callback != nil {
		r.callback(token)
	}
	return token, nil
}

var _ Catalog = (*SpotifyService)(nil)

// BuildTrackQuery assembles a field-scoped query in the search
// mini-language: track/artist terms plus an optional year range.
func BuildTrackQuery(title, artist string, yearFrom, yearTo int) string {
	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "track:%q", title)
	}
	if artist != "" {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "artist:%q", artist)
	}
	if yearFrom > 0 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		if yearTo > yearFrom {
			fmt.Fprintf(&b, "year:%d-%d", yearFrom, yearTo)
		} else {
			fmt.Fprintf(&b, "year:%d", yearFrom)
		}
	}
	return b.String()
}
