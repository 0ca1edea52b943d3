package images

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/qiniu/go-sdk/v7/auth/qbox"
	"github.com/qiniu/go-sdk/v7/storage"

	"github.com/scribeflow/scribeflow/internal/config"
	"github.com/scribeflow/scribeflow/internal/types"
)

// Uploader publishes a local image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
	Enabled() bool
}

// QiniuUploader uploads to a Qiniu Kodo bucket. Incomplete credentials
// leave the uploader disabled instead of failing the run; articles are
// still generated, just without images.
type QiniuUploader struct {
	cfg     config.QiniuConfig
	mac     *qbox.Mac
	logger  *slog.Logger
	enabled bool
}

func NewQiniuUploader(cfg config.QiniuConfig, logger *slog.Logger) *QiniuUploader {
	u := &QiniuUploader{
		cfg:    cfg,
		logger: logger.With("component", "qiniu_uploader"),
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" || cfg.Domain == "" {
		u.logger.Warn("incomplete credentials, image uploads disabled")
		return u
	}
	u.mac = qbox.NewMac(cfg.AccessKey, cfg.SecretKey)
	u.enabled = true
	return u
}

func (u *QiniuUploader) Enabled() bool { return u.enabled }

func (u *QiniuUploader) Upload(ctx context.Context, localPath string) (string, error) {
	if !u.enabled {
		return "", types.ErrUploaderDisabled
	}

	key := fmt.Sprintf("scribeflow/%d_%s", time.Now().UnixNano(), filepath.Base(localPath))
	putPolicy := storage.PutPolicy{Scope: u.cfg.Bucket}
	token := putPolicy.UploadToken(u.mac)

	uploader := storage.NewFormUploader(&storage.Config{UseHTTPS: true})
	var ret storage.PutRet
	if err := uploader.PutFile(ctx, &ret, token, key, localPath, nil); err != nil {
		return "", fmt.Errorf("qiniu upload: %w", err)
	}

	url := fmt.Sprintf("https://%s/%s", u.cfg.Domain, ret.Key)
	u.logger.Info("image published", "key", ret.Key, "url", url)
	return url, nil
}
