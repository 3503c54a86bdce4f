package models

import "time"

// Delivery states for the post-recording upload + video SMS. These are
// tracked separately from the episode status, so a late upload failure
// never collapses an episode that's already 'recording'.
const (
	NO_DELIVERY               = "none"
	UPLOADING_DELIVERY        = "uploading"
	VIDEO_SENT_DELIVERY       = "video_sent"
	UPLOAD_FAILED_DELIVERY    = "upload_failed"
	VIDEO_SMS_FAILED_DELIVERY = "video_sms_failed"
)

type Episode struct {
	BaseModel
	ContactNumber   string         `json:"contact_number"`
	Latitude        float64        `json:"latitude"`
	Longitude       float64        `json:"longitude"`
	RoomID          string         `json:"room_id"`
	RecordingPath   string         `json:"recording_path"`
	VideoURL        string         `json:"video_url"`
	DeliveryState   string         `json:"delivery_state" gorm:"default:none"`
	LastError       string         `json:"last_error"`
	EpisodeStatusID uint           `json:"episode_status_id"`
	EpisodeStatus   *EpisodeStatus `json:"status,omitempty"`
}

func CreateEpisode(contactNumber string) (*Episode, error) {
	initializingStatus, err := FindEpisodeStatus(INITIALIZING_EPISODE)
	if err != nil {
		return nil, err
	}

	episode := Episode{
		ContactNumber:   contactNumber,
		DeliveryState:   NO_DELIVERY,
		EpisodeStatusID: initializingStatus.ID,
	}

	err = db.Create(&episode).Error
	if err != nil {
		return nil, err
	}

	return &episode, nil
}

func FindEpisode(id interface{}) (*Episode, error) {
	episode := Episode{}
	err := db.Preload("EpisodeStatus").First(&episode, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	return &episode, nil
}

func (episode *Episode) Update(data map[string]interface{}) error {
	data["updated_at"] = time.Now()
	return db.Model(episode).Updates(data).Error
}

func (episode *Episode) SetStatus(status string) error {
	episodeStatus, err := FindEpisodeStatus(status)
	if err != nil {
		return err
	}

	return episode.Update(map[string]interface{}{"episode_status_id": episodeStatus.ID})
}

func (episode *Episode) SetDeliveryState(state string) error {
	return episode.Update(map[string]interface{}{"delivery_state": state})
}

// StatusName resolves the episode's coarse status, loading the
// association if it wasn't preloaded.
func (episode *Episode) StatusName() (string, error) {
	if episode.EpisodeStatus != nil {
		return episode.EpisodeStatus.Name, nil
	}

	episodeStatus := EpisodeStatus{}
	err := db.First(&episodeStatus, "id = ?", episode.EpisodeStatusID).Error
	if err != nil {
		return "", err
	}

	return episodeStatus.Name, nil
}

func EpisodesByStatus(status string) ([]Episode, error) {
	episodes := []Episode{}

	err := db.Joins(
		"INNER JOIN episode_statuses ON episode_statuses.id = episodes.episode_status_id AND episode_statuses.name = ?", status).
		Find(&episodes).Error
	if err != nil {
		return nil, err
	}

	return episodes, nil
}
