package uploader

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/stealthwatch/stealthwatch/server/gstorage"
	"github.com/stealthwatch/stealthwatch/server/logger"
	"github.com/stealthwatch/stealthwatch/utils"
)

var logg = logger.NewLogger()

// Uploader transfers a local recording & returns its remote URL.
type Uploader interface {
	Upload(ctx context.Context, filePath string) (string, error)
}

// SimulatedUploader stands in for a real backend: it waits a bit &
// hands back a dummy link, as if the transfer succeeded.
type SimulatedUploader struct {
	Delay time.Duration
}

func NewSimulatedUploader() *SimulatedUploader {
	return &SimulatedUploader{Delay: 2 * time.Second}
}

func (su *SimulatedUploader) Upload(ctx context.Context, filePath string) (string, error) {
	if !utils.FileExist(filePath) {
		return "", errors.Errorf("uploader: no file at %v", filePath)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(su.Delay):
	}

	logg.Infof("pretending to upload file at path: %v", filePath)

	return fmt.Sprintf("https://example.com/videos/%v.mp4", time.Now().UnixMilli()), nil
}

// GStorageUploader pushes recordings to a google cloud storage bucket.
type GStorageUploader struct {
	gstorage *gstorage.GStorage
	bucket   string
	prefix   string
}

func NewGStorageUploader(gs *gstorage.GStorage, bucket, prefix string) *GStorageUploader {
	return &GStorageUploader{gstorage: gs, bucket: bucket, prefix: prefix}
}

func (gu *GStorageUploader) Upload(ctx context.Context, filePath string) (string, error) {
	objectName, err := gu.gstorage.UploadFile(ctx, gu.bucket, gu.prefix, filePath)
	if err != nil {
		return "", errors.Wrap(err, "uploader")
	}

	return gstorage.ObjectURL(gu.bucket, objectName), nil
}
