// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/songmatch/internal/models"
	"github.com/desertthunder/songmatch/internal/shared"
)

// MockService is a test double for [services.Service].
//
// Tracks, ISRC hits and search results are looked up from the maps; the *Err
// fields, when set, are returned instead. Call counters are safe for concurrent use.
type MockService struct {
	Kind  models.Platform
	Label string

	Tracks     map[string]models.TrackMetadata
	ISRCHits   map[string][]models.Candidate
	SearchHits []models.Candidate

	AuthErr   error
	TrackErr  error
	ISRCErr   error
	SearchErr error

	// Delay is applied to Track so concurrent callers overlap.
	Delay time.Duration

	mu          sync.Mutex
	TrackCalls  int
	ISRCCalls   int
	SearchCalls int
	Queries     []string
}

// NewMockService creates a mock for p with no data.
func NewMockService(p models.Platform) *MockService {
	return &MockService{
		Kind:     p,
		Label:    "mock " + p.String(),
		Tracks:   map[string]models.TrackMetadata{},
		ISRCHits: map[string][]models.Candidate{},
	}
}

func (m *MockService) Platform() models.Platform { return m.Kind }
func (m *MockService) Name() string              { return m.Label }

func (m *MockService) Authenticate(ctx context.Context) error {
	return m.AuthErr
}

func (m *MockService) Track(ctx context.Context, id string) (*models.TrackMetadata, error) {
	m.mu.Lock()
	m.TrackCalls++
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.TrackErr != nil {
		return nil, m.TrackErr
	}
	t, ok := m.Tracks[id]
	if !ok {
		return nil, fmt.Errorf("%w: mock track %s", shared.ErrTrackNotFound, id)
	}
	return &t, nil
}

func (m *MockService) LookupISRC(ctx context.Context, isrc string) ([]models.Candidate, error) {
	m.mu.Lock()
	m.ISRCCalls++
	m.mu.Unlock()

	if m.ISRCErr != nil {
		return nil, m.ISRCErr
	}
	return m.ISRCHits[isrc], nil
}

func (m *MockService) Search(ctx context.Context, title, artist string) ([]models.Candidate, error) {
	m.mu.Lock()
	m.SearchCalls++
	m.Queries = append(m.Queries, title+" / "+artist)
	m.mu.Unlock()

	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	return m.SearchHits, nil
}

// Calls returns the total number of catalog calls made so far.
func (m *MockService) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.TrackCalls + m.ISRCCalls + m.SearchCalls
}

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

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
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

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
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
