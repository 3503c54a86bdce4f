package models

import (
	"errors"

	"gorm.io/gorm"
)

const (
	EMERGENCY_CONTACT_KEY = "emergencyContact"
	CAMERA_MODE_KEY       = "cameraMode"

	FRONT_CAMERA_MODE = "front"
	BACK_CAMERA_MODE  = "back"
	BOTH_CAMERA_MODE  = "both"

	// Used when no contact has been saved yet.
	DEFAULT_EMERGENCY_CONTACT = "18632287124"
)

var CameraModeNameMap = map[string]bool{
	FRONT_CAMERA_MODE: true,
	BACK_CAMERA_MODE:  true,
	BOTH_CAMERA_MODE:  true,
}

type Setting struct {
	BaseModel
	Key   string `json:"key" gorm:"not null;unique"`
	Value string `json:"value"`
}

// AppSettings is the fully populated settings snapshot handed to
// consumers, so "if absent, use default" checks live in one place.
type AppSettings struct {
	EmergencyContact string `json:"emergency_contact"`
	CameraMode       string `json:"camera_mode"`
}

// SaveSetting writes a single key. Each key is written on its own i.e.
// there's no transaction across multiple keys.
func SaveSetting(key, value string) error {
	setting := Setting{}

	err := db.Where(&Setting{Key: key}).First(&setting).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	setting.Key = key
	setting.Value = value

	return db.Save(&setting).Error
}

func FindSetting(key string) (string, error) {
	setting := Setting{}

	err := db.Where(&Setting{Key: key}).First(&setting).Error
	if err != nil {
		return "", err
	}

	return setting.Value, nil
}

// LoadAppSettings reads all persisted settings once & fills in defaults
// for keys that are absent or hold unrecognized values.
func LoadAppSettings() (*AppSettings, error) {
	settings := &AppSettings{
		EmergencyContact: DEFAULT_EMERGENCY_CONTACT,
		CameraMode:       BACK_CAMERA_MODE,
	}

	contact, err := FindSetting(EMERGENCY_CONTACT_KEY)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if contact != "" {
		settings.EmergencyContact = contact
	}

	cameraMode, err := FindSetting(CAMERA_MODE_KEY)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if CameraModeNameMap[cameraMode] {
		settings.CameraMode = cameraMode
	}

	return settings, nil
}
