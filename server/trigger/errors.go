package trigger

import "github.com/pkg/errors"

// One sentinel per step of the panic flow, so callers & logs can tell
// which step collapsed an episode.
var (
	ErrPermissionDenied      = errors.New("permissions denied")
	ErrLocationFailure       = errors.New("location fetch failed")
	ErrRoomCreationFailure   = errors.New("room creation failed")
	ErrSmsSendFailure        = errors.New("emergency sms send failed")
	ErrRecordingStartFailure = errors.New("recording failed to start")
	ErrUploadFailure         = errors.New("video upload failed")
	ErrVideoSmsFailure       = errors.New("video sms send failed")
)
