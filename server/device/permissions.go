package device

import (
	"context"

	"github.com/pkg/errors"
)

type Permission string

const (
	CameraPermission       Permission = "camera"
	MicrophonePermission   Permission = "microphone"
	FineLocationPermission Permission = "fine_location"
	SendSmsPermission      Permission = "send_sms"
)

// RequiredPermissions is the all-or-nothing set a panic episode needs.
var RequiredPermissions = []Permission{
	CameraPermission,
	MicrophonePermission,
	FineLocationPermission,
	SendSmsPermission,
}

// PermissionChecker acquires platform permissions. A single denial
// fails the whole request - no partial grants are surfaced.
type PermissionChecker interface {
	Request(ctx context.Context, permissions []Permission) error
}

// StaticChecker answers permission requests from a fixed grant table.
type StaticChecker struct {
	Granted map[Permission]bool
}

// NewGrantAllChecker grants everything; used in dev mode & tests.
func NewGrantAllChecker() *StaticChecker {
	granted := make(map[Permission]bool)
	for _, permission := range RequiredPermissions {
		granted[permission] = true
	}

	return &StaticChecker{Granted: granted}
}

func (sc *StaticChecker) Request(ctx context.Context, permissions []Permission) error {
	for _, permission := range permissions {
		if !sc.Granted[permission] {
			return errors.Errorf("permission %v denied", permission)
		}
	}

	return nil
}
