package models

const (
	INITIALIZING_EPISODE = "initializing"
	SMS_SENT_EPISODE     = "sms_sent"
	RECORDING_EPISODE    = "recording"
	FAILED_EPISODE       = "failed"
)

var EpisodeStatusNameMap = map[string]bool{
	INITIALIZING_EPISODE: true,
	SMS_SENT_EPISODE:     true,
	RECORDING_EPISODE:    true,
	FAILED_EPISODE:       true,
}

type EpisodeStatus struct {
	BaseModel
	Name     string    `json:"name"`
	Episodes []Episode `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
}

func FindEpisodeStatus(name string) (*EpisodeStatus, error) {
	episodeStatus := EpisodeStatus{}
	err := db.Select("id", "name").First(&episodeStatus, "name = ?", name).Error
	if err != nil {
		return nil, err
	}

	return &episodeStatus, nil
}
