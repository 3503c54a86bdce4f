package device

import (
	"sync"

	"github.com/pkg/errors"
)

type CameraPosition string

const (
	BackCamera  CameraPosition = "back"
	FrontCamera CameraPosition = "front"
)

var ErrCameraBusy = errors.New("camera device is held by another session")

// CameraDevice is a single exclusive hardware handle.
type CameraDevice struct {
	Position CameraPosition
}

// CameraRegistry arbitrates access to the camera devices on the host.
// A device must be acquired before any capture session starts & is
// released on teardown, so two callers can't race for the same handle.
type CameraRegistry struct {
	mu      sync.Mutex
	devices []*CameraDevice
	heldBy  map[*CameraDevice]string
}

func NewCameraRegistry(devices ...*CameraDevice) *CameraRegistry {
	return &CameraRegistry{
		devices: devices,
		heldBy:  map[*CameraDevice]string{},
	}
}

// ResolveDevice picks a device for recording: rear-facing preferred,
// front-facing as fallback. Returns nil when no camera is present.
func (cr *CameraRegistry) ResolveDevice() *CameraDevice {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	var front *CameraDevice
	for _, device := range cr.devices {
		if device.Position == BackCamera {
			return device
		}
		if device.Position == FrontCamera {
			front = device
		}
	}

	return front
}

// Acquire claims exclusive ownership of a device for 'owner'.
func (cr *CameraRegistry) Acquire(device *CameraDevice, owner string) error {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if holder := cr.heldBy[device]; holder != "" {
		return errors.Wrapf(ErrCameraBusy, "held by %v", holder)
	}

	cr.heldBy[device] = owner
	return nil
}

func (cr *CameraRegistry) Release(device *CameraDevice) {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	delete(cr.heldBy, device)
}
