package models

import (
	"fmt"
	"os"
	"path/filepath"

	sqlite "github.com/Daskott/gorm-sqlite-cipher"
	"github.com/google/uuid"
	"github.com/stealthwatch/stealthwatch/server/logger"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var (
	db   *gorm.DB
	logg = logger.NewLogger()
)

// Initialize opens the encrypted sqlite db, runs migrations &
// seeds the status lookup tables.
func Initialize(dbFilePath, passPhrase string) error {
	var err error

	dsn := fmt.Sprintf("file:%v?_pragma_key=%v&_pragma_cipher_page_size=4096", dbFilePath, passPhrase)
	db, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("models.Initialize: %v", err)
	}

	return autoMigrate()
}

// InitializeTestDb sets up a throwaway db for package tests.
func InitializeTestDb() {
	dbFilePath := filepath.Join(os.TempDir(), fmt.Sprintf("stealthwatch_test_%v.sqlite", uuid.NewString()))
	os.Remove(dbFilePath)

	err := Initialize(dbFilePath, "test-passphrase")
	if err != nil {
		logg.Panic(err)
	}
}

func autoMigrate() error {
	err := db.AutoMigrate(&EpisodeStatus{}, &JobStatus{}, &Setting{}, &Episode{}, &Job{})
	if err != nil {
		return err
	}

	for name := range EpisodeStatusNameMap {
		err = db.FirstOrCreate(&EpisodeStatus{}, EpisodeStatus{Name: name}).Error
		if err != nil {
			return err
		}
	}

	for name := range JobStatusNameMap {
		err = db.FirstOrCreate(&JobStatus{}, JobStatus{Name: name}).Error
		if err != nil {
			return err
		}
	}

	return nil
}
