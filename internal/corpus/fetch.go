package corpus

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Fetcher downloads the corpus export and caches it on disk. A failed or
// interrupted download never produces a usable cache file: the body is
// written to a temp file and renamed only after a complete copy.
type Fetcher struct {
	client *http.Client
	logger *zap.Logger
}

// NewFetcher creates a fetcher. logger may be nil.
func NewFetcher(logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		client: &http.Client{Timeout: 5 * time.Minute},
		logger: logger,
	}
}

// EnsureLocal returns the path of a local copy of the corpus at url,
// downloading it to cachePath when no copy exists yet. Network or HTTP
// failure is returned as an error; the caller treats it as fatal.
func (f *Fetcher) EnsureLocal(ctx context.Context, url, cachePath string) (string, error) {
	if info, err := os.Stat(cachePath); err == nil && info.Size() > 0 {
		f.logger.Info("using cached corpus", zap.String("path", cachePath))
		return cachePath, nil
	}

	if err := os.MkdirAll(filepath.Dir(cachePath), 0755); err != nil {
		return "", fmt.Errorf("create corpus dir: %w", err)
	}

	f.logger.Info("downloading corpus", zap.String("url", url))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build corpus request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch corpus: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch corpus: unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(cachePath), ".corpus-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("download corpus: %w", err)
	}
	if err := os.Rename(tmp.Name(), cachePath); err != nil {
		return "", fmt.Errorf("commit corpus file: %w", err)
	}

	f.logger.Info("corpus downloaded", zap.String("path", cachePath), zap.Int64("bytes", n))
	return cachePath, nil
}
