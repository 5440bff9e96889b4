// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/desertthunder/chartsync/internal/models"
)

// MockCatalog is a test double for [services.Catalog].
//
// Search results are keyed by query string; queries with no entry return
// an empty slice. Every mutation and search is recorded so tests can
// assert on call counts and batch contents.
type MockCatalog struct {
	SearchResults map[string][]models.CatalogTrack
	SearchErr     error
	PlaylistIDs   []string
	PlaylistErr   error
	AddErr        error
	ReplaceErr    error

	SearchCalls  []string
	AddCalls     [][]string
	ReplaceCalls [][]string
}

func (m *MockCatalog) Authenticate(ctx context.Context, credentials map[string]string) error {
	return nil
}

func (m *MockCatalog) SearchTracks(ctx context.Context, query string, limit int) ([]models.CatalogTrack, error) {
	m.SearchCalls = append(m.SearchCalls, query)
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	return m.SearchResults[query], nil
}

func (m *MockCatalog) PlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error) {
	if m.PlaylistErr != nil {
		return nil, m.PlaylistErr
	}
	return m.PlaylistIDs, nil
}

func (m *MockCatalog) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if m.AddErr != nil {
		return m.AddErr
	}
	m.AddCalls = append(m.AddCalls, append([]string(nil), trackIDs...))
	return nil
}

func (m *MockCatalog) ReplaceTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if m.ReplaceErr != nil {
		return m.ReplaceErr
	}
	m.ReplaceCalls = append(m.ReplaceCalls, append([]string(nil), trackIDs...))
	return nil
}

func (m *MockCatalog) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// RouteRoundTripper serves canned response bodies keyed by request URL,
// for exercising the harvester against multiple chart pages.
type RouteRoundTripper struct {
	Bodies map[string]string
	Status map[string]int
}

func (rt *RouteRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	u := req.URL.String()
	body, ok := rt.Bodies[u]
	if !ok {
		return &http.Response{StatusCode: http.StatusNotFound, Body: http.NoBody}, nil
	}
	status := http.StatusOK
	if s, ok := rt.Status[u]; ok {
		status = s
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}, nil
}

// FCloser simulates a failure when reading response body
type FCloser struct {
	closed bool
}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	f.closed = true
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
