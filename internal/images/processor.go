package images

import (
	"context"
	"log/slog"

	"github.com/scribeflow/scribeflow/internal/config"
	"github.com/scribeflow/scribeflow/internal/types"
)

// Processor runs the download, crop, and upload chain for a set of
// scraped image references. Per-image failures skip that image only.
type Processor struct {
	downloader *Downloader
	uploader   Uploader
	cfg        config.ImagesConfig
	logger     *slog.Logger
}

func NewProcessor(downloader *Downloader, uploader Uploader, cfg config.ImagesConfig, logger *slog.Logger) *Processor {
	return &Processor{
		downloader: downloader,
		uploader:   uploader,
		cfg:        cfg,
		logger:     logger.With("component", "image_processor"),
	}
}

// Process handles up to max references and returns the public URLs of
// the images that made it all the way through. A disabled uploader
// short-circuits to nothing.
func (p *Processor) Process(ctx context.Context, refs []types.ImageRef, workDir string, max int) []string {
	if !p.uploader.Enabled() {
		p.logger.Warn("uploader disabled, skipping image handling", "candidates", len(refs))
		return nil
	}
	if max > 0 && len(refs) > max {
		refs = refs[:max]
	}

	var urls []string
	for _, ref := range refs {
		if ctx.Err() != nil {
			break
		}
		local, err := p.downloader.Download(ctx, ref, workDir)
		if err != nil {
			p.logger.Warn("image download failed", "url", ref.URL, "error", err)
			continue
		}
		if local == "" {
			continue
		}
		if err := CropBottom(local, p.cfg.CropBottomPixels); err != nil {
			p.logger.Warn("image crop failed, uploading uncropped", "path", local, "error", err)
		}
		url, err := p.uploader.Upload(ctx, local)
		if err != nil {
			p.logger.Warn("image upload failed", "path", local, "error", err)
			continue
		}
		urls = append(urls, url)
	}
	p.logger.Info("images processed", "candidates", len(refs), "published", len(urls))
	return urls
}
