package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/desertthunder/chartsync/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// roundTripFunc adapts a function to http.RoundTripper so tests can
// inspect requests and serve canned API responses.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func authedService(t *testing.T, rt http.RoundTripper) *SpotifyService {
	t.Helper()
	srv, err := NewSpotifyService(map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
		"market":        "GB",
	})
	if err != nil {
		t.Fatalf("NewSpotifyService() error = %v", err)
	}
	srv.token = &oauth2.Token{AccessToken: "test-token"}
	srv.httpClient = &http.Client{Transport: rt}
	return srv
}

func TestSpotifyService(t *testing.T) {
	ctx := context.Background()

	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			srv, err := NewSpotifyService(map[string]string{
				"client_id":     "test_client_id",
				"client_secret": "test_client_secret",
				"redirect_uri":  "http://localhost:9999/cb",
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
			if srv.config.RedirectURL != "http://localhost:9999/cb" {
				t.Errorf("expected configured redirect URI, got %s", srv.config.RedirectURL)
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_secret": "s"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_id": "c"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Default Redirect URI", func(t *testing.T) {
			srv, err := NewSpotifyService(map[string]string{
				"client_id":     "c",
				"client_secret": "s",
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.config.RedirectURL != "http://localhost:8080/callback" {
				t.Errorf("expected default redirect URI, got %s", srv.config.RedirectURL)
			}
		})

		t.Run("Search Rate", func(t *testing.T) {
			srv, err := NewSpotifyService(map[string]string{
				"client_id":     "c",
				"client_secret": "s",
				"search_rate":   "2.5",
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.limiter.Limit() != rate.Limit(2.5) {
				t.Errorf("expected limiter rate 2.5, got %v", srv.limiter.Limit())
			}

			srv, err = NewSpotifyService(map[string]string{
				"client_id":     "c",
				"client_secret": "s",
				"search_rate":   "garbage",
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.limiter.Limit() != rate.Limit(defaultSearchRate) {
				t.Errorf("expected default rate on unparseable value, got %v", srv.limiter.Limit())
			}
		})
	})

	t.Run("Get AuthURL", func(t *testing.T) {
		srv, err := NewSpotifyService(map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		authURL := srv.GetAuthURL("state-123")
		if !strings.Contains(authURL, "state=state-123") {
			t.Errorf("auth URL missing state: %s", authURL)
		}
		if !strings.Contains(authURL, "client_id=test_client_id") {
			t.Errorf("auth URL missing client_id: %s", authURL)
		}
		if !strings.HasPrefix(authURL, spotifyAuthURL) {
			t.Errorf("auth URL has wrong base: %s", authURL)
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		t.Run("No Credentials", func(t *testing.T) {
			srv, err := NewSpotifyService(map[string]string{
				"client_id":     "c",
				"client_secret": "s",
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if err := srv.Authenticate(ctx, map[string]string{}); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Access Token", func(t *testing.T) {
			srv, err := NewSpotifyService(map[string]string{
				"client_id":     "c",
				"client_secret": "s",
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if err := srv.Authenticate(ctx, map[string]string{"access_token": "tok"}); err != nil {
				t.Fatalf("Authenticate() error = %v", err)
			}
			if srv.token == nil || srv.token.AccessToken != "tok" {
				t.Errorf("token = %+v, want access token stored", srv.token)
			}
		})
	})

	t.Run("Requires Authentication", func(t *testing.T) {
		srv, err := NewSpotifyService(map[string]string{
			"client_id":     "c",
			"client_secret": "s",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := srv.SearchTracks(ctx, "track:\"Wannabe\"", 5); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("SearchTracks", func(t *testing.T) {
		searchBody := `{
			"tracks": {
				"items": [
					{
						"id": "1Wf4",
						"name": "Wannabe",
						"artists": [{"id": "a1", "name": "Spice Girls"}],
						"album": {"id": "al1", "name": "Spice", "release_date": "1996-09-19"},
						"popularity": 81
					}
				],
				"total": 1
			}
		}`

		t.Run("Parses Results And Scopes The Market", func(t *testing.T) {
			var captured *http.Request
			srv := authedService(t, roundTripFunc(func(req *http.Request) (*http.Response, error) {
				captured = req
				return jsonResponse(http.StatusOK, searchBody), nil
			}))

			tracks, err := srv.SearchTracks(ctx, `track:"Wannabe" artist:"Spice Girls"`, 5)
			if err != nil {
				t.Fatalf("SearchTracks() error = %v", err)
			}
			if len(tracks) != 1 {
				t.Fatalf("got %d tracks, want 1", len(tracks))
			}
			got := tracks[0]
			if got.ID != "1Wf4" || got.Title != "Wannabe" || got.ReleaseYear != 1996 || got.Popularity != 81 {
				t.Errorf("track = %+v", got)
			}
			if len(got.ArtistNames) != 1 || got.ArtistNames[0] != "Spice Girls" {
				t.Errorf("artists = %v", got.ArtistNames)
			}

			q := captured.URL.Query()
			if q.Get("market") != "GB" {
				t.Errorf("market = %q, want GB", q.Get("market"))
			}
			if q.Get("type") != "track" {
				t.Errorf("type = %q, want track", q.Get("type"))
			}
			if captured.Header.Get("Authorization") != "Bearer test-token" {
				t.Errorf("Authorization = %q", captured.Header.Get("Authorization"))
			}
		})

		t.Run("Clamps The Limit", func(t *testing.T) {
			var captured *http.Request
			srv := authedService(t, roundTripFunc(func(req *http.Request) (*http.Response, error) {
				captured = req
				return jsonResponse(http.StatusOK, searchBody), nil
			}))

			if _, err := srv.SearchTracks(ctx, "q", 500); err != nil {
				t.Fatalf("SearchTracks() error = %v", err)
			}
			if captured.URL.Query().Get("limit") != "50" {
				t.Errorf("limit = %q, want clamped to 50", captured.URL.Query().Get("limit"))
			}

			if _, err := srv.SearchTracks(ctx, "q", 0); err != nil {
				t.Fatalf("SearchTracks() error = %v", err)
			}
			if captured.URL.Query().Get("limit") != "5" {
				t.Errorf("limit = %q, want default 5", captured.URL.Query().Get("limit"))
			}
		})

		t.Run("API Error Status", func(t *testing.T) {
			srv := authedService(t, roundTripFunc(func(req *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusTooManyRequests, `{}`), nil
			}))

			if _, err := srv.SearchTracks(ctx, "q", 5); !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})
	})

	t.Run("PlaylistTrackIDs", func(t *testing.T) {
		t.Run("Follows Pagination", func(t *testing.T) {
			srv := authedService(t, roundTripFunc(func(req *http.Request) (*http.Response, error) {
				switch req.URL.Query().Get("offset") {
				case "0":
					return jsonResponse(http.StatusOK, `{
						"items": [{"track": {"id": "t1"}}, {"track": {"id": "t2"}}],
						"total": 3, "limit": 100, "offset": 0,
						"next": "https://api.spotify.com/v1/next"
					}`), nil
				default:
					return jsonResponse(http.StatusOK, `{
						"items": [{"track": {"id": "t3"}}],
						"total": 3, "limit": 100, "offset": 100,
						"next": null
					}`), nil
				}
			}))

			ids, err := srv.PlaylistTrackIDs(ctx, "pl1")
			if err != nil {
				t.Fatalf("PlaylistTrackIDs() error = %v", err)
			}
			want := []string{"t1", "t2", "t3"}
			if len(ids) != 3 || ids[0] != want[0] || ids[2] != want[2] {
				t.Errorf("ids = %v, want %v", ids, want)
			}
		})

		t.Run("Skips Unavailable Tracks", func(t *testing.T) {
			srv := authedService(t, roundTripFunc(func(req *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `{
					"items": [{"track": {"id": "t1"}}, {"track": {"id": ""}}],
					"total": 2, "next": null
				}`), nil
			}))

			ids, err := srv.PlaylistTrackIDs(ctx, "pl1")
			if err != nil {
				t.Fatalf("PlaylistTrackIDs() error = %v", err)
			}
			if len(ids) != 1 || ids[0] != "t1" {
				t.Errorf("ids = %v, want the empty-ID entry dropped", ids)
			}
		})
	})

	t.Run("AddTracks", func(t *testing.T) {
		t.Run("Validates The Batch", func(t *testing.T) {
			srv := authedService(t, roundTripFunc(func(req *http.Request) (*http.Response, error) {
				t.Error("validation failure should not reach the wire")
				return nil, nil
			}))

			if err := srv.AddTracks(ctx, "pl1", nil); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("empty batch: expected ErrInvalidArgument, got %v", err)
			}

			oversized := make([]string, MaxBatchSize+1)
			for i := range oversized {
				oversized[i] = "id"
			}
			if err := srv.AddTracks(ctx, "pl1", oversized); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("oversized batch: expected ErrInvalidArgument, got %v", err)
			}
		})

		t.Run("Posts Track URIs", func(t *testing.T) {
			var captured *http.Request
			var payload map[string][]string
			srv := authedService(t, roundTripFunc(func(req *http.Request) (*http.Response, error) {
				captured = req
				if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
					t.Fatalf("decode body: %v", err)
				}
				return jsonResponse(http.StatusCreated, `{}`), nil
			}))

			if err := srv.AddTracks(ctx, "pl1", []string{"t1", "t2"}); err != nil {
				t.Fatalf("AddTracks() error = %v", err)
			}
			if captured.Method != http.MethodPost {
				t.Errorf("method = %s, want POST", captured.Method)
			}
			if !strings.HasSuffix(captured.URL.Path, "/playlists/pl1/tracks") {
				t.Errorf("path = %s", captured.URL.Path)
			}
			uris := payload["uris"]
			if len(uris) != 2 || uris[0] != "spotify:track:t1" || uris[1] != "spotify:track:t2" {
				t.Errorf("uris = %v", uris)
			}
		})
	})

	t.Run("ReplaceTracks", func(t *testing.T) {
		t.Run("Empty Slice Empties The Playlist", func(t *testing.T) {
			var captured *http.Request
			var payload map[string][]string
			srv := authedService(t, roundTripFunc(func(req *http.Request) (*http.Response, error) {
				captured = req
				if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
					t.Fatalf("decode body: %v", err)
				}
				return jsonResponse(http.StatusOK, `{}`), nil
			}))

			if err := srv.ReplaceTracks(ctx, "pl1", nil); err != nil {
				t.Fatalf("ReplaceTracks() error = %v", err)
			}
			if captured.Method != http.MethodPut {
				t.Errorf("method = %s, want PUT", captured.Method)
			}
			if len(payload["uris"]) != 0 {
				t.Errorf("uris = %v, want empty", payload["uris"])
			}
		})

		t.Run("Rejects Oversized Batches", func(t *testing.T) {
			srv := authedService(t, nil)
			oversized := make([]string, MaxBatchSize+1)
			for i := range oversized {
				oversized[i] = "id"
			}
			if err := srv.ReplaceTracks(ctx, "pl1", oversized); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})
}

func TestBuildTrackQuery(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		artist   string
		yearFrom int
		yearTo   int
		want     string
	}{
		{
			name:   "title and artist",
			title:  "Wannabe",
			artist: "Spice Girls",
			want:   `track:"Wannabe" artist:"Spice Girls"`,
		},
		{
			name:     "exact year",
			title:    "Wannabe",
			artist:   "Spice Girls",
			yearFrom: 1996,
			want:     `track:"Wannabe" artist:"Spice Girls" year:1996`,
		},
		{
			name:     "year range",
			title:    "Wannabe",
			artist:   "Spice Girls",
			yearFrom: 1995,
			yearTo:   1997,
			want:     `track:"Wannabe" artist:"Spice Girls" year:1995-1997`,
		},
		{
			name:  "title only",
			title: "Three Lions",
			want:  `track:"Three Lions"`,
		},
		{
			name:     "artist and year only",
			artist:   "Oasis",
			yearFrom: 1996,
			want:     `artist:"Oasis" year:1996`,
		},
		{
			name: "empty",
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := BuildTrackQuery(tc.title, tc.artist, tc.yearFrom, tc.yearTo)
			if got != tc.want {
				t.Errorf("BuildTrackQuery() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestToCatalogTrack(t *testing.T) {
	tests := []struct {
		name        string
		releaseDate string
		wantYear    int
	}{
		{"full date", "1996-09-19", 1996},
		{"year and month", "1996-09", 1996},
		{"year only", "1996", 1996},
		{"missing", "", 0},
		{"garbage", "soon", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := toCatalogTrack(SpotifyTrack{
				ID:   "t1",
				Name: "Wannabe",
				Artists: []SpotifyArtist{
					{Name: "Spice Girls"},
					{Name: "Someone Else"},
				},
				Album:      SpotifyAlbum{ReleaseDate: tc.releaseDate},
				Popularity: 70,
			})
			if got.ReleaseYear != tc.wantYear {
				t.Errorf("ReleaseYear = %d, want %d", got.ReleaseYear, tc.wantYear)
			}
			if len(got.ArtistNames) != 2 || got.ArtistNames[0] != "Spice Girls" {
				t.Errorf("ArtistNames = %v", got.ArtistNames)
			}
		})
	}
}

// staticTokenSource returns a fixed sequence of tokens.
type staticTokenSource struct {
	tokens []*oauth2.Token
	i      int
}

func (s *staticTokenSource) Token() (*oauth2.Token, error) {
	if s.i >= len(s.tokens) {
		return s.tokens[len(s.tokens)-1], nil
	}
	t := s.tokens[s.i]
	s.i++
	return t, nil
}

func TestRefreshableTokenSource(t *testing.T) {
	var seen []string
	source := &refreshableTokenSource{
		source: &staticTokenSource{tokens: []*oauth2.Token{
			{AccessToken: "a"},
			{AccessToken: "a"},
			{AccessToken: "b"},
		}},
		callback: func(tok *oauth2.Token) { seen = append(seen, tok.AccessToken) },
	}

	for i := 0; i < 3; i++ {
		if _, err := source.Token(); err != nil {
			t.Fatalf("Token() error = %v", err)
		}
	}

	// Callback fires only when the access token actually changes.
	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Errorf("callback tokens = %v, want [a b]", seen)
	}
}
