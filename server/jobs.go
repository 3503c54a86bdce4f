package server

import (
	"context"
	"os"
	"path/filepath"

	"github.com/stealthwatch/stealthwatch/server/trigger"
	"github.com/stealthwatch/stealthwatch/server/work"
)

// backupSqliteDb pushes a copy of the encrypted db to cloud storage.
func backupSqliteDb(map[string]interface{}) error {
	if storageClient == nil {
		return nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	dbFilePath := filepath.Join(homeDir, "stealthwatch", "stealthwatch.sqlite")
	_, err = storageClient.UploadFile(
		context.Background(),
		serverConfig.Google.Storage.Bucket,
		serverConfig.Google.Storage.Prefix,
		dbFilePath,
	)

	return err
}

func registerJobHandlers(wpa *work.WorkerPoolAdapter) {
	wpa.Register(trigger.DELIVER_RECORDING_HANDLER, sequencer.DeliverRecordingHandler)
	wpa.Register("backupSqliteDb", backupSqliteDb)
}

func enqueueJobs(wpa *work.WorkerPoolAdapter) {
	if serverConfig.Google.Storage.EnableSqliteBackupAndSync != true {
		return
	}

	wpa.PeriodicallyPerform(serverConfig.Google.Storage.SqliteBackupSchedule, work.JobParams{
		Name:    "backupSqliteDb",
		Handler: "backupSqliteDb",
		Unique:  true,
		Args:    map[string]interface{}{},
	})
}
