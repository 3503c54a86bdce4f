package trigger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stealthwatch/stealthwatch/server/device"
	"github.com/stealthwatch/stealthwatch/server/location"
	"github.com/stealthwatch/stealthwatch/server/models"
	"github.com/stretchr/testify/assert"
)

// ---------------------------------------------------------------------------------//
// Fake collaborators
// --------------------------------------------------------------------------------//

type fakePermissions struct {
	err    error
	called bool
}

func (fp *fakePermissions) Request(ctx context.Context, permissions []device.Permission) error {
	fp.called = true
	return fp.err
}

type fakeLocation struct {
	coords location.Coordinates
	err    error
	calls  int
}

func (fl *fakeLocation) Current(ctx context.Context, opts location.Options) (*location.Coordinates, error) {
	fl.calls++
	if fl.err != nil {
		return nil, fl.err
	}
	coords := fl.coords
	return &coords, nil
}

type fakeRooms struct {
	err   error
	calls int
}

func (fr *fakeRooms) CreateRoom(ctx context.Context) (string, error) {
	fr.calls++
	if fr.err != nil {
		return "", fr.err
	}
	if fr.calls == 1 {
		return "abc123", nil
	}
	return fmt.Sprintf("room-%v", fr.calls), nil
}

func (fr *fakeRooms) ViewerURL(roomID string) string {
	return fmt.Sprintf("https://stealthwatch.vercel.app/viewer?roomId=%v", roomID)
}

type fakeMessenger struct {
	mu    sync.Mutex
	sent  []string
	errOn map[int]error // 1-based send index
}

func (fm *fakeMessenger) SendMessage(to, msg string) error {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	call := len(fm.sent) + 1
	if err := fm.errOn[call]; err != nil {
		return err
	}

	fm.sent = append(fm.sent, msg)
	return nil
}

func (fm *fakeMessenger) sentMessages() []string {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	return append([]string{}, fm.sent...)
}

type fakeUploader struct {
	err   error
	calls int
}

func (fu *fakeUploader) Upload(ctx context.Context, filePath string) (string, error) {
	fu.calls++
	if fu.err != nil {
		return "", fu.err
	}
	return fmt.Sprintf("https://example.com/videos/%v.mp4", fu.calls), nil
}

type fixture struct {
	permissions *fakePermissions
	location    *fakeLocation
	rooms       *fakeRooms
	messenger   *fakeMessenger
	uploader    *fakeUploader
	registry    *device.CameraRegistry
	sequencer   *Sequencer
}

func newFixture(t *testing.T, devices ...*device.CameraDevice) *fixture {
	models.InitializeTestDb()

	f := &fixture{
		permissions: &fakePermissions{},
		location:    &fakeLocation{coords: location.Coordinates{Latitude: 37.4219, Longitude: -122.0840}},
		rooms:       &fakeRooms{},
		messenger:   &fakeMessenger{errOn: map[int]error{}},
		uploader:    &fakeUploader{},
	}

	if len(devices) == 0 {
		devices = []*device.CameraDevice{{Position: device.BackCamera}}
	}
	f.registry = device.NewCameraRegistry(devices...)

	f.sequencer = NewSequencer(
		f.permissions,
		f.location,
		f.rooms,
		f.messenger,
		device.NewRecorder(t.TempDir(), f.registry),
		f.uploader,
	)

	return f
}

func episodeStatus(t *testing.T, episode *models.Episode) string {
	fresh, err := models.FindEpisode(episode.ID)
	assert.Nil(t, err)

	name, err := fresh.StatusName()
	assert.Nil(t, err)
	return name
}

func deliveryState(t *testing.T, episode *models.Episode) string {
	fresh, err := models.FindEpisode(episode.ID)
	assert.Nil(t, err)
	return fresh.DeliveryState
}

// ---------------------------------------------------------------------------------//
// Tests
// --------------------------------------------------------------------------------//

func TestTriggerPermissionDenied(t *testing.T) {
	f := newFixture(t)
	f.permissions.err = errors.New("camera permission denied")

	episode, err := f.sequencer.Trigger(context.Background())
	assert.True(t, errors.Is(err, ErrPermissionDenied))
	assert.Equal(t, models.FAILED_EPISODE, episodeStatus(t, episode))

	assert.Equal(t, 0, f.location.calls, "Location should not be fetched after a permission denial")
	assert.Equal(t, 0, f.rooms.calls, "No room should be created after a permission denial")
	assert.Empty(t, f.messenger.sentMessages(), "No sms should be sent after a permission denial")
}

func TestTriggerLocationFailure(t *testing.T) {
	f := newFixture(t)
	f.location.err = errors.New("location request timed out")

	episode, err := f.sequencer.Trigger(context.Background())
	assert.True(t, errors.Is(err, ErrLocationFailure))
	assert.Equal(t, models.FAILED_EPISODE, episodeStatus(t, episode))

	assert.Equal(t, 0, f.rooms.calls, "No room should be created after a location failure")
	assert.Empty(t, f.messenger.sentMessages())
}

func TestTriggerRoomCreationFailure(t *testing.T) {
	f := newFixture(t)
	f.rooms.err = errors.New("room creation returned no room id")

	episode, err := f.sequencer.Trigger(context.Background())
	assert.True(t, errors.Is(err, ErrRoomCreationFailure))
	assert.Equal(t, models.FAILED_EPISODE, episodeStatus(t, episode))
	assert.Empty(t, f.messenger.sentMessages(), "The first sms should not be sent when no room exists")
}

func TestTriggerSmsFailure(t *testing.T) {
	f := newFixture(t)
	f.messenger.errOn[1] = errors.New("no sim")

	episode, err := f.sequencer.Trigger(context.Background())
	assert.True(t, errors.Is(err, ErrSmsSendFailure))
	assert.Equal(t, models.FAILED_EPISODE, episodeStatus(t, episode))

	fresh, err := models.FindEpisode(episode.ID)
	assert.Nil(t, err)
	assert.Empty(t, fresh.RecordingPath, "Recording should not start when the alert sms fails")
}

func TestTriggerRecordingStartFailure(t *testing.T) {
	f := newFixture(t)

	// Hold the only camera so the episode's capture session can't start
	busyDevice := f.registry.ResolveDevice()
	assert.Nil(t, f.registry.Acquire(busyDevice, "preview_screen"))

	episode, err := f.sequencer.Trigger(context.Background())
	assert.True(t, errors.Is(err, ErrRecordingStartFailure))
	assert.Equal(t, models.FAILED_EPISODE, episodeStatus(t, episode))
	assert.Len(t, f.messenger.sentMessages(), 1, "The alert sms goes out before recording start fails")
}

func TestTriggerAlertMessageBody(t *testing.T) {
	f := newFixture(t)

	episode, err := f.sequencer.Trigger(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, models.RECORDING_EPISODE, episodeStatus(t, episode))

	expected := "🚨 Emergency!\n" +
		"📍 https://maps.google.com/?q=37.4219,-122.084\n" +
		"🎥 Live Feed: https://stealthwatch.vercel.app/viewer?roomId=abc123"
	assert.Equal(t, []string{expected}, f.messenger.sentMessages())

	assert.Nil(t, f.sequencer.StopRecording(episode.ID))
}

func TestTriggerDeliversVideoAfterRecording(t *testing.T) {
	f := newFixture(t)

	episode, err := f.sequencer.Trigger(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, models.RECORDING_EPISODE, episodeStatus(t, episode))

	assert.Nil(t, f.sequencer.StopRecording(episode.ID))

	assert.Eventually(t, func() bool {
		return deliveryState(t, episode) == models.VIDEO_SENT_DELIVERY
	}, 3*time.Second, 20*time.Millisecond, "The video link should be delivered after the recording stops")

	messages := f.messenger.sentMessages()
	assert.Len(t, messages, 2)
	assert.Equal(t, "📹 Emergency video:\nhttps://example.com/videos/1.mp4", messages[1])

	fresh, err := models.FindEpisode(episode.ID)
	assert.Nil(t, err)
	assert.Equal(t, "https://example.com/videos/1.mp4", fresh.VideoURL)
	assert.Equal(t, models.RECORDING_EPISODE, episodeStatus(t, episode),
		"Delivery does not move the episode out of 'recording'")
}

func TestTriggerUploadFailureLeavesRecordingStatus(t *testing.T) {
	f := newFixture(t)
	f.uploader.err = errors.New("backend unreachable")

	episode, err := f.sequencer.Trigger(context.Background())
	assert.Nil(t, err)

	assert.Nil(t, f.sequencer.StopRecording(episode.ID))

	assert.Eventually(t, func() bool {
		return deliveryState(t, episode) == models.UPLOAD_FAILED_DELIVERY
	}, 3*time.Second, 20*time.Millisecond)

	assert.Equal(t, models.RECORDING_EPISODE, episodeStatus(t, episode),
		"An upload failure is swallowed - the episode status stays 'recording'")
	assert.Len(t, f.messenger.sentMessages(), 1, "No video sms goes out when the upload fails")
}

func TestTriggerVideoSmsFailure(t *testing.T) {
	f := newFixture(t)
	f.messenger.errOn[2] = errors.New("no sim")

	episode, err := f.sequencer.Trigger(context.Background())
	assert.Nil(t, err)

	assert.Nil(t, f.sequencer.StopRecording(episode.ID))

	assert.Eventually(t, func() bool {
		return deliveryState(t, episode) == models.VIDEO_SMS_FAILED_DELIVERY
	}, 3*time.Second, 20*time.Millisecond)

	assert.Equal(t, models.RECORDING_EPISODE, episodeStatus(t, episode))
}

func TestTriggerTwiceCreatesFreshRoomAndRecording(t *testing.T) {
	f := newFixture(t)

	first, err := f.sequencer.Trigger(context.Background())
	assert.Nil(t, err)
	assert.Nil(t, f.sequencer.StopRecording(first.ID))

	assert.Eventually(t, func() bool {
		return deliveryState(t, first) == models.VIDEO_SENT_DELIVERY
	}, 3*time.Second, 20*time.Millisecond)

	second, err := f.sequencer.Trigger(context.Background())
	assert.Nil(t, err)
	assert.Nil(t, f.sequencer.StopRecording(second.ID))

	firstEpisode, err := models.FindEpisode(first.ID)
	assert.Nil(t, err)
	secondEpisode, err := models.FindEpisode(second.ID)
	assert.Nil(t, err)

	assert.NotEqual(t, firstEpisode.RoomID, secondEpisode.RoomID, "Each trigger should create its own room")
	assert.NotEqual(t, firstEpisode.RecordingPath, secondEpisode.RecordingPath,
		"Each trigger should record to its own file")
}

func TestStopRecordingWithoutActiveSession(t *testing.T) {
	f := newFixture(t)

	err := f.sequencer.StopRecording(42)
	assert.NotNil(t, err)
}
