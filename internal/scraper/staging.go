package scraper

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/scribeflow/scribeflow/internal/types"
)

// Staging file names. Each task overwrites them; they only carry state
// between the scrape step and the generation step of a single task.
const (
	ArticleFile = "article.txt"
	PictureFile = "picture.txt"
)

// ArticlePath returns the staging path of the scraped-article digest.
func ArticlePath(dir string) string { return filepath.Join(dir, ArticleFile) }

// PicturePath returns the staging path of the uploaded-image links.
func PicturePath(dir string) string { return filepath.Join(dir, PictureFile) }

// ClearStaging removes leftover staging files from a previous task.
func ClearStaging(dir string, logger *slog.Logger) {
	for _, name := range []string{ArticleFile, PictureFile} {
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn("stale staging file not removed", "path", path, "error", err)
		}
	}
}

// StageArticles writes the scraped article bodies to the staging digest,
// separated by horizontal rules. Nothing is written when no article has
// content.
func StageArticles(dir string, articles []types.ScrapedArticle) error {
	var bodies []string
	for _, a := range articles {
		if a.Content != "" {
			bodies = append(bodies, a.Content)
		}
	}
	if len(bodies) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating staging dir: %w", err)
	}
	data := strings.Join(bodies, "\n\n---\n\n")
	if err := os.WriteFile(ArticlePath(dir), []byte(data), 0o644); err != nil {
		return fmt.Errorf("writing article staging file: %w", err)
	}
	return nil
}

// StageImageLinks writes the uploaded-image URLs as Markdown image
// links, one per line. Nothing is written when the list is empty.
func StageImageLinks(dir string, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating staging dir: %w", err)
	}
	lines := make([]string, 0, len(urls))
	for _, u := range urls {
		lines = append(lines, fmt.Sprintf("![Image](%s)", u))
	}
	if err := os.WriteFile(PicturePath(dir), []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return fmt.Errorf("writing picture staging file: %w", err)
	}
	return nil
}

// ReadImageLinks loads the staged Markdown image links, skipping blank
// lines. A missing file yields an empty slice.
func ReadImageLinks(dir string) []string {
	data, err := os.ReadFile(PicturePath(dir))
	if err != nil {
		return nil
	}
	var links []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			links = append(links, line)
		}
	}
	return links
}
