package images

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/sha1"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/andybalholm/brotli"

	"github.com/scribeflow/scribeflow/internal/config"
	"github.com/scribeflow/scribeflow/internal/types"
)

const downloadUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Downloader fetches article images over plain HTTP. The origin site
// checks the Referer header against the article URL, so every request
// carries the referer captured at scrape time.
type Downloader struct {
	client *http.Client
	cfg    config.ImagesConfig
	logger *slog.Logger

	mu   sync.Mutex
	seen map[string]bool
}

func NewDownloader(cfg config.ImagesConfig, logger *slog.Logger) *Downloader {
	return &Downloader{
		client: &http.Client{
			Timeout: cfg.DownloadTimeout,
			Transport: &http.Transport{
				// Decompression is handled manually so brotli works.
				DisableCompression: true,
			},
		},
		cfg:    cfg,
		logger: logger.With("component", "image_downloader"),
		seen:   make(map[string]bool),
	}
}

// Download fetches one image into destDir and returns the local path.
// A URL already downloaded in this run returns ("", nil); articles on
// the same topic share stock images and duplicates add nothing.
func (d *Downloader) Download(ctx context.Context, ref types.ImageRef, destDir string) (string, error) {
	d.mu.Lock()
	if d.seen[ref.URL] {
		d.mu.Unlock()
		d.logger.Debug("duplicate image skipped", "url", ref.URL)
		return "", nil
	}
	d.seen[ref.URL] = true
	d.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.URL, nil)
	if err != nil {
		return "", fmt.Errorf("building image request: %w", err)
	}
	req.Header.Set("User-Agent", downloadUserAgent)
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	if ref.Referer != "" {
		req.Header.Set("Referer", ref.Referer)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image fetch returned HTTP %d", resp.StatusCode)
	}

	var reader io.Reader = resp.Body
	if d.cfg.MaxSizeMB > 0 {
		reader = io.LimitReader(reader, d.cfg.MaxSizeMB<<20)
	}
	reader, err = decompressReader(resp, reader)
	if err != nil {
		return "", fmt.Errorf("decompressing image: %w", err)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("creating image dir: %w", err)
	}
	local := filepath.Join(destDir, localName(ref.URL))
	f, err := os.Create(local)
	if err != nil {
		return "", fmt.Errorf("creating image file: %w", err)
	}
	n, err := io.Copy(f, reader)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(local)
		return "", fmt.Errorf("writing image file: %w", err)
	}

	d.logger.Debug("image downloaded", "url", ref.URL, "bytes", n, "path", local)
	return local, nil
}

// localName derives a stable collision-free file name from the URL.
func localName(url string) string {
	sum := sha1.Sum([]byte(url))
	return fmt.Sprintf("%x.jpg", sum[:8])
}

// decompressReader wraps a reader with the decompressor matching the
// response's Content-Encoding. Handles gzip, deflate, and brotli.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}
