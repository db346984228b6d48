package whispercpp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/kbukum/whisperd/logger"
	"github.com/kbukum/whisperd/version"
)

// fetcher downloads weight files into a cache directory.
type fetcher struct {
	client *http.Client
	log    *logger.Logger
}

// ensure returns dir/name, downloading it from baseURL/name when absent.
// The file appears under its final name only once it is complete.
func (f *fetcher) ensure(ctx context.Context, dir, baseURL, name string) (string, error) {
	dest := filepath.Join(dir, name)
	if st, err := os.Stat(dest); err == nil && st.Size() > 0 {
		return dest, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	url := baseURL + "/" + name
	f.log.Info("Downloading weights", logger.Fields(logger.FieldPath, dest, "url", url))
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", version.UserAgent("whisperd"))
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: status %d", name, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*.part")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	n, err := io.Copy(tmp, resp.Body)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("download %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("install %s: %w", name, err)
	}

	f.log.Info("Weights downloaded", logger.Fields(
		logger.FieldPath, dest,
		"bytes", n,
		logger.FieldDuration, time.Since(start).String(),
	))
	return dest, nil
}
