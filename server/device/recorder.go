package device

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stealthwatch/stealthwatch/utils"
)

type RecordingResult struct {
	Path string
	Err  error
}

// Recorder starts camera-based audio+video capture sessions that write
// to local files under a cache directory.
type Recorder struct {
	cacheDir string
	registry *CameraRegistry
}

func NewRecorder(cacheDir string, registry *CameraRegistry) *Recorder {
	return &Recorder{cacheDir: cacheDir, registry: registry}
}

// Start acquires a camera device & opens a new capture file. Every
// session gets a fresh file path - nothing is reused across sessions.
func (r *Recorder) Start(ctx context.Context, owner string) (*Session, error) {
	device := r.registry.ResolveDevice()
	if device == nil {
		return nil, errors.New("recorder: no camera device available")
	}

	if err := r.registry.Acquire(device, owner); err != nil {
		return nil, errors.Wrap(err, "recorder")
	}

	if err := utils.CreateDirIfNotExist(r.cacheDir); err != nil {
		r.registry.Release(device)
		return nil, errors.Wrap(err, "recorder")
	}

	path := filepath.Join(r.cacheDir,
		fmt.Sprintf("emergency_%v_%v.mp4", time.Now().UnixMilli(), uuid.NewString()[:8]))

	file, err := os.Create(path)
	if err != nil {
		r.registry.Release(device)
		return nil, errors.Wrap(err, "recorder")
	}

	return &Session{
		path:     path,
		file:     file,
		device:   device,
		registry: r.registry,
		done:     make(chan RecordingResult, 1),
	}, nil
}

// Session is one in-flight recording. Completion is reported once on
// Done(), as a result or an error, never both.
type Session struct {
	path     string
	file     *os.File
	device   *CameraDevice
	registry *CameraRegistry
	done     chan RecordingResult
	once     sync.Once
}

func (s *Session) Path() string {
	return s.path
}

func (s *Session) Device() *CameraDevice {
	return s.device
}

// Stop finalizes the capture file, releases the camera & reports the
// finished recording on Done().
func (s *Session) Stop() {
	s.once.Do(func() {
		err := s.file.Close()
		s.registry.Release(s.device)

		if err != nil {
			s.done <- RecordingResult{Err: err}
		} else {
			s.done <- RecordingResult{Path: s.path}
		}
		close(s.done)
	})
}

// Abort tears the session down with a device or camera-API error.
func (s *Session) Abort(err error) {
	s.once.Do(func() {
		s.file.Close()
		s.registry.Release(s.device)

		s.done <- RecordingResult{Err: err}
		close(s.done)
	})
}

func (s *Session) Done() <-chan RecordingResult {
	return s.done
}
