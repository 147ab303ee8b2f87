package index

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// Loader fetches published bucket snapshots and installs them into the
// Pool. Snapshots are JSON arrays of entries produced by the external
// indexing job; the loader prefers the published storage URL and falls
// back to a local directory for development.
type Loader struct {
	pool       *Pool
	httpClient *http.Client
	baseURL    string
	localDir   string
	userAgent  string
}

func NewLoader(pool *Pool, httpClient *http.Client, baseURL, localDir, userAgent string) *Loader {
	return &Loader{
		pool:       pool,
		httpClient: httpClient,
		baseURL:    baseURL,
		localDir:   localDir,
		userAgent:  userAgent,
	}
}

// Refresh fetches the latest published snapshot for a bucket and swaps
// it into the pool. A fetch failure leaves the previous snapshot in
// place.
func (l *Loader) Refresh(ctx context.Context, bucket string) error {
	data, err := l.fetch(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to load index %s: %w", bucket, err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse index %s: %w", bucket, err)
	}

	l.pool.Publish(bucket, entries)
	return nil
}

func (l *Loader) fetch(ctx context.Context, bucket string) ([]byte, error) {
	if l.baseURL != "" {
		data, err := l.fetchRemote(ctx, bucket)
		if err == nil {
			return data, nil
		}
		slog.Warn("Remote index fetch failed, trying local", "bucket", bucket, "error", err)
	}

	return l.fetchLocal(bucket)
}

func (l *Loader) fetchRemote(ctx context.Context, bucket string) ([]byte, error) {
	url := fmt.Sprintf("%s/indexes/%s.json", l.baseURL, bucket)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", l.userAgent)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	return io.ReadAll(resp.Body)
}

func (l *Loader) fetchLocal(bucket string) ([]byte, error) {
	path := filepath.Join(l.localDir, bucket+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
