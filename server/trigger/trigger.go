package trigger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/stealthwatch/stealthwatch/server/device"
	"github.com/stealthwatch/stealthwatch/server/location"
	"github.com/stealthwatch/stealthwatch/server/logger"
	"github.com/stealthwatch/stealthwatch/server/models"
	"github.com/stealthwatch/stealthwatch/server/uploader"
	"github.com/stealthwatch/stealthwatch/server/work"
)

const (
	LOCATION_TIMEOUT     = 10 * time.Second
	LOCATION_MAXIMUM_AGE = 5 * time.Second

	DELIVER_RECORDING_HANDLER = "deliverRecording"
)

var logg = logger.NewLogger()

// RoomService allocates live meeting rooms & derives viewer links.
type RoomService interface {
	CreateRoom(ctx context.Context) (string, error)
	ViewerURL(roomID string) string
}

type Messenger interface {
	SendMessage(to, msg string) error
}

type CaptureService interface {
	Start(ctx context.Context, owner string) (*device.Session, error)
}

// Performer hands work off to a job queue; the worker pool adapter
// satisfies it.
type Performer interface {
	Perform(job work.JobParams) error
}

// Sequencer runs the panic flow: permissions -> location -> room ->
// sms -> recording, then (after the recording finishes) upload + a
// second sms. Each step gates the next; any failure up to recording
// start collapses the episode to 'failed'. Post-recording failures are
// recorded on the episode's delivery state & never change its status.
//
// There are no retries anywhere in the sequence. Every trigger creates
// a fresh episode, a fresh room & a fresh recording file.
type Sequencer struct {
	permissions device.PermissionChecker
	location    location.Provider
	rooms       RoomService
	messenger   Messenger
	recorder    CaptureService
	uploader    uploader.Uploader
	performer   Performer

	mu       sync.Mutex
	sessions map[uint]*device.Session
}

func NewSequencer(
	permissions device.PermissionChecker,
	locationProvider location.Provider,
	rooms RoomService,
	messenger Messenger,
	recorder CaptureService,
	fileUploader uploader.Uploader,
) *Sequencer {
	return &Sequencer{
		permissions: permissions,
		location:    locationProvider,
		rooms:       rooms,
		messenger:   messenger,
		recorder:    recorder,
		uploader:    fileUploader,
		sessions:    make(map[uint]*device.Session),
	}
}

// UsePerformer routes recording delivery through a job queue instead
// of running it inline.
func (s *Sequencer) UsePerformer(performer Performer) {
	s.performer = performer
}

// Trigger runs a new panic episode through recording start. The upload
// & second sms happen asynchronously once the recording finishes.
func (s *Sequencer) Trigger(ctx context.Context) (*models.Episode, error) {
	settings, err := models.LoadAppSettings()
	if err != nil {
		return nil, err
	}

	episode, err := models.CreateEpisode(settings.EmergencyContact)
	if err != nil {
		return nil, err
	}

	logg.Infof("starting emergency mode, episode %v, contact %v", episode.ID, episode.ContactNumber)

	if err := s.permissions.Request(ctx, device.RequiredPermissions); err != nil {
		return episode, s.fail(episode, ErrPermissionDenied, err)
	}

	coords, err := s.location.Current(ctx, location.Options{
		HighAccuracy: true,
		Timeout:      LOCATION_TIMEOUT,
		MaximumAge:   LOCATION_MAXIMUM_AGE,
	})
	if err != nil {
		return episode, s.fail(episode, ErrLocationFailure, err)
	}

	err = episode.Update(map[string]interface{}{"latitude": coords.Latitude, "longitude": coords.Longitude})
	if err != nil {
		logg.Error(err)
	}

	roomID, err := s.rooms.CreateRoom(ctx)
	if err != nil {
		return episode, s.fail(episode, ErrRoomCreationFailure, err)
	}

	err = episode.Update(map[string]interface{}{"room_id": roomID})
	if err != nil {
		logg.Error(err)
	}

	message := AlertMessage(coords, s.rooms.ViewerURL(roomID))
	if err := s.messenger.SendMessage(episode.ContactNumber, message); err != nil {
		return episode, s.fail(episode, ErrSmsSendFailure, err)
	}

	if err := episode.SetStatus(models.SMS_SENT_EPISODE); err != nil {
		logg.Error(err)
	}
	logg.Infof("emergency sms sent for episode %v", episode.ID)

	session, err := s.recorder.Start(ctx, fmt.Sprintf("episode_%v", episode.ID))
	if err != nil {
		return episode, s.fail(episode, ErrRecordingStartFailure, err)
	}

	err = episode.Update(map[string]interface{}{"recording_path": session.Path()})
	if err != nil {
		logg.Error(err)
	}
	if err := episode.SetStatus(models.RECORDING_EPISODE); err != nil {
		logg.Error(err)
	}

	s.rememberSession(episode.ID, session)
	go s.awaitRecording(episode.ID, session)

	return episode, nil
}

// StopRecording finalizes the capture session of a recording episode,
// which kicks off the upload + video sms delivery.
func (s *Sequencer) StopRecording(episodeID uint) error {
	s.mu.Lock()
	session := s.sessions[episodeID]
	s.mu.Unlock()

	if session == nil {
		return errors.Errorf("no active recording for episode %v", episodeID)
	}

	session.Stop()
	return nil
}

// DeliverRecordingHandler runs recording delivery as a queued job.
// It always reports success to the queue - delivery failures are
// best-effort & end up on the episode's delivery state, not retried.
func (s *Sequencer) DeliverRecordingHandler(args map[string]interface{}) error {
	episodeID, ok := args["episode_id"].(float64)
	if !ok {
		return errors.New("deliverRecording: missing episode_id")
	}
	filePath, ok := args["file_path"].(string)
	if !ok {
		return errors.New("deliverRecording: missing file_path")
	}

	s.deliverRecording(uint(episodeID), filePath)
	return nil
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func AlertMessage(coords *location.Coordinates, liveLink string) string {
	return fmt.Sprintf("🚨 Emergency!\n📍 https://maps.google.com/?q=%v,%v\n🎥 Live Feed: %v",
		coords.Latitude, coords.Longitude, liveLink)
}

func VideoMessage(videoURL string) string {
	return fmt.Sprintf("📹 Emergency video:\n%v", videoURL)
}

func (s *Sequencer) fail(episode *models.Episode, stepErr, cause error) error {
	err := errors.Wrapf(stepErr, "%v", cause)
	logg.Errorf("episode %v failed: %v", episode.ID, err)

	if updateErr := episode.Update(map[string]interface{}{"last_error": err.Error()}); updateErr != nil {
		logg.Error(updateErr)
	}
	if statusErr := episode.SetStatus(models.FAILED_EPISODE); statusErr != nil {
		logg.Error(statusErr)
	}

	return err
}

func (s *Sequencer) rememberSession(episodeID uint, session *device.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[episodeID] = session
}

func (s *Sequencer) forgetSession(episodeID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, episodeID)
}

func (s *Sequencer) awaitRecording(episodeID uint, session *device.Session) {
	result := <-session.Done()
	s.forgetSession(episodeID)

	if result.Err != nil {
		logg.Errorf("recording error for episode %v: %v", episodeID, result.Err)
		return
	}

	logg.Infof("video saved for episode %v: %v", episodeID, result.Path)

	if s.performer != nil {
		err := s.performer.Perform(work.JobParams{
			Name:    fmt.Sprintf("deliver_recording_%v", episodeID),
			Handler: DELIVER_RECORDING_HANDLER,
			Unique:  true,
			Args: map[string]interface{}{
				"episode_id": episodeID,
				"file_path":  result.Path,
			},
		})
		if err == nil {
			return
		}
		logg.Errorf("falling back to inline delivery for episode %v: %v", episodeID, err)
	}

	s.deliverRecording(episodeID, result.Path)
}

// deliverRecording uploads the finished capture & texts the video link
// to the emergency contact. Failures here are logged & recorded on the
// episode's delivery state only - the episode status stays 'recording'.
func (s *Sequencer) deliverRecording(episodeID uint, filePath string) {
	episode, err := models.FindEpisode(episodeID)
	if err != nil {
		logg.Errorf("deliverRecording: %v", err)
		return
	}

	if err := episode.SetDeliveryState(models.UPLOADING_DELIVERY); err != nil {
		logg.Error(err)
	}

	videoURL, err := s.uploader.Upload(context.Background(), filePath)
	if err != nil {
		logg.Errorf("episode %v: %v: %v", episodeID, ErrUploadFailure, err)
		if stateErr := episode.SetDeliveryState(models.UPLOAD_FAILED_DELIVERY); stateErr != nil {
			logg.Error(stateErr)
		}
		return
	}

	if err := episode.Update(map[string]interface{}{"video_url": videoURL}); err != nil {
		logg.Error(err)
	}

	if err := s.messenger.SendMessage(episode.ContactNumber, VideoMessage(videoURL)); err != nil {
		logg.Errorf("episode %v: %v: %v", episodeID, ErrVideoSmsFailure, err)
		if stateErr := episode.SetDeliveryState(models.VIDEO_SMS_FAILED_DELIVERY); stateErr != nil {
			logg.Error(stateErr)
		}
		return
	}

	if err := episode.SetDeliveryState(models.VIDEO_SENT_DELIVERY); err != nil {
		logg.Error(err)
	}
	logg.Infof("video link sent for episode %v", episodeID)
}
