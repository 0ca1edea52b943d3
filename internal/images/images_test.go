package images

import (
	"bytes"
	"compress/gzip"
	"context"
	"image/color"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/disintegration/imaging"

	"github.com/scribeflow/scribeflow/internal/config"
	"github.com/scribeflow/scribeflow/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testCfg() config.ImagesConfig {
	return config.ImagesConfig{
		CropBottomPixels: 80,
		MaxSizeMB:        20,
		DownloadTimeout:  5 * time.Second,
	}
}

func writeTestImage(t *testing.T, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "img.jpg")
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("writing test image: %v", err)
	}
	return path
}

func TestCropBottom(t *testing.T) {
	path := writeTestImage(t, 400, 300)

	if err := CropBottom(path, 80); err != nil {
		t.Fatalf("CropBottom: %v", err)
	}
	img, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	if got := img.Bounds().Dy(); got != 220 {
		t.Errorf("height after crop = %d, want 220", got)
	}
	if got := img.Bounds().Dx(); got != 400 {
		t.Errorf("width changed to %d", got)
	}
}

func TestCropBottomShortImageUntouched(t *testing.T) {
	path := writeTestImage(t, 400, 120)

	if err := CropBottom(path, 80); err != nil {
		t.Fatalf("CropBottom: %v", err)
	}
	img, err := imaging.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds().Dy(); got != 120 {
		t.Errorf("short image was cropped to %d", got)
	}
}

func TestCropBottomZeroPixelsNoop(t *testing.T) {
	if err := CropBottom(filepath.Join(t.TempDir(), "absent.jpg"), 0); err != nil {
		t.Errorf("zero crop should not touch the file: %v", err)
	}
}

func TestDownloadSendsRefererAndDecompresses(t *testing.T) {
	payload := []byte("fake-image-bytes")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Referer"); got != "https://news.example.com/article/9" {
			t.Errorf("Referer = %q", got)
		}
		switch r.URL.Path {
		case "/plain.jpg":
			w.Write(payload)
		case "/gz.jpg":
			w.Header().Set("Content-Encoding", "gzip")
			gz := gzip.NewWriter(w)
			gz.Write(payload)
			gz.Close()
		case "/br.jpg":
			w.Header().Set("Content-Encoding", "br")
			bw := brotli.NewWriter(w)
			bw.Write(payload)
			bw.Close()
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	for _, path := range []string{"/plain.jpg", "/gz.jpg", "/br.jpg"} {
		d := NewDownloader(testCfg(), testLogger)
		ref := types.ImageRef{URL: srv.URL + path, Referer: "https://news.example.com/article/9"}
		local, err := d.Download(context.Background(), ref, t.TempDir())
		if err != nil {
			t.Fatalf("Download(%s): %v", path, err)
		}
		data, err := os.ReadFile(local)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(data, payload) {
			t.Errorf("Download(%s) body = %q, want %q", path, data, payload)
		}
	}
}

func TestDownloadDeduplicates(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("img"))
	}))
	defer srv.Close()

	d := NewDownloader(testCfg(), testLogger)
	ref := types.ImageRef{URL: srv.URL + "/a.jpg"}
	dir := t.TempDir()

	first, err := d.Download(context.Background(), ref, dir)
	if err != nil || first == "" {
		t.Fatalf("first download: path=%q err=%v", first, err)
	}
	second, err := d.Download(context.Background(), ref, dir)
	if err != nil {
		t.Fatalf("second download: %v", err)
	}
	if second != "" {
		t.Errorf("duplicate download returned path %q, want empty", second)
	}
	if hits != 1 {
		t.Errorf("server hit %d times, want 1", hits)
	}
}

func TestDownloadHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	d := NewDownloader(testCfg(), testLogger)
	if _, err := d.Download(context.Background(), types.ImageRef{URL: srv.URL + "/gone.jpg"}, t.TempDir()); err == nil {
		t.Error("expected error for 404 response")
	}
}

func TestDisabledUploader(t *testing.T) {
	u := NewQiniuUploader(config.QiniuConfig{}, testLogger)
	if u.Enabled() {
		t.Fatal("uploader with empty credentials should be disabled")
	}
	if _, err := u.Upload(context.Background(), "whatever.jpg"); err != types.ErrUploaderDisabled {
		t.Errorf("Upload on disabled uploader = %v, want ErrUploaderDisabled", err)
	}
}

func TestLocalNameStable(t *testing.T) {
	a := localName("https://cdn.example.com/a.jpg")
	b := localName("https://cdn.example.com/a.jpg")
	c := localName("https://cdn.example.com/b.jpg")
	if a != b {
		t.Error("same URL produced different names")
	}
	if a == c {
		t.Error("different URLs collided")
	}
}
