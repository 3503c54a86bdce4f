package uploader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSimulatedUpload(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "emergency_test.mp4")
	assert.Nil(t, os.WriteFile(filePath, []byte("video"), 0644))

	uploader := &SimulatedUploader{}

	videoURL, err := uploader.Upload(context.Background(), filePath)
	assert.Nil(t, err)
	assert.True(t, strings.HasPrefix(videoURL, "https://example.com/videos/"))
	assert.True(t, strings.HasSuffix(videoURL, ".mp4"))
}

func TestSimulatedUploadMissingFile(t *testing.T) {
	uploader := &SimulatedUploader{}

	_, err := uploader.Upload(context.Background(), filepath.Join(t.TempDir(), "nope.mp4"))
	assert.NotNil(t, err, "Uploading a file that was never written should fail")
}

func TestSimulatedUploadCancelledContext(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "emergency_test.mp4")
	assert.Nil(t, os.WriteFile(filePath, []byte("video"), 0644))

	uploader := &SimulatedUploader{Delay: time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := uploader.Upload(ctx, filePath)
	assert.NotNil(t, err)
}
