package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-playground/validator"
	"github.com/gorilla/mux"
	"github.com/spf13/viper"
	"github.com/stealthwatch/stealthwatch/server/auth"
	"github.com/stealthwatch/stealthwatch/server/auth/key"
	"github.com/stealthwatch/stealthwatch/server/device"
	"github.com/stealthwatch/stealthwatch/server/gstorage"
	"github.com/stealthwatch/stealthwatch/server/location"
	"github.com/stealthwatch/stealthwatch/server/logger"
	"github.com/stealthwatch/stealthwatch/server/models"
	"github.com/stealthwatch/stealthwatch/server/trigger"
	"github.com/stealthwatch/stealthwatch/server/twilio"
	"github.com/stealthwatch/stealthwatch/server/uploader"
	"github.com/stealthwatch/stealthwatch/server/videosdk"
	"github.com/stealthwatch/stealthwatch/server/work"
	"github.com/stealthwatch/stealthwatch/shared"
)

type RequestContextKey string

type DecodedJWT struct {
	Claims   *auth.StealthwatchTokenClaims
	ErrorMsg string
}

var (
	logg     = logger.NewLogger()
	validate = validator.New()

	serverConfig      *shared.ServerConfig
	authKeyPair       *key.KeyPair
	adminPasswordHash string
	smsClient         *twilio.ClientWrapper
	sequencer         *trigger.Sequencer
	storageClient     *gstorage.GStorage
)

// Start boots the stealthwatch server: db, collaborators, job workers
// & the http listener. In test mode sms sends are logged, never sent.
func Start(config *viper.Viper, devMode, testMode bool) {
	var err error

	serverConfig = parseServerConfig(config)
	configDir := configDirectory(devMode)

	err = models.Initialize(
		filepath.Join(configDir, "stealthwatch.sqlite"), serverConfig.Sqlite.PassPhrase)
	fatalOnError(err)

	authKeyPair, err = key.NewKeyPairFromRSAPrivateKeyPem(serverConfig.Stealthwatch.PrivateKeyPem)
	fatalOnError(err)

	adminPasswordHash, err = auth.HashPassword(serverConfig.Stealthwatch.AdminPassword)
	fatalOnError(err)

	// Without twilio credentials, sms sends are logged instead of sent
	smsClient = twilio.NewClient(serverConfig.Twilio, testMode || serverConfig.Twilio.AccountSid == "")

	if serverConfig.Google.ApplicationCredentials != "" {
		storageClient, err = gstorage.NewGStorage(serverConfig.Google.ApplicationCredentials)
		fatalOnError(err)
	}

	sequencer = newSequencer(configDir)

	workerPool := work.NewWorkerAdapter(serverConfig.Stealthwatch.Cron.TimeZone)
	sequencer.UsePerformer(workerPool)
	registerJobHandlers(workerPool)
	enqueueJobs(workerPool)
	workerPool.Start()

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%v", serverConfig.Stealthwatch.Listener.Port),
		Handler: router(),
	}
	go serve(httpServer)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	cleanup(workerPool, httpServer)
}

// TriggerOnce fires a single panic episode without the http listener.
// Used by the 'panic' cli command.
func TriggerOnce(config *viper.Viper, devMode, testMode bool) error {
	serverConfig = parseServerConfig(config)
	configDir := configDirectory(devMode)

	err := models.Initialize(
		filepath.Join(configDir, "stealthwatch.sqlite"), serverConfig.Sqlite.PassPhrase)
	if err != nil {
		return err
	}

	smsClient = twilio.NewClient(serverConfig.Twilio, testMode || serverConfig.Twilio.AccountSid == "")
	sequencer = newSequencer(configDir)

	episode, err := sequencer.Trigger(context.Background())
	if err != nil {
		return err
	}

	logg.Infof("episode %v is recording; stop to deliver the video", episode.ID)

	// Give the recording a short window, then stop & deliver
	time.Sleep(5 * time.Second)
	if err := sequencer.StopRecording(episode.ID); err != nil {
		return err
	}

	// Wait for the upload + video sms to settle before exiting
	time.Sleep(5 * time.Second)
	return nil
}

// ---------------------------------------------------------------------------------//
// Wiring helpers
// --------------------------------------------------------------------------------//

func newSequencer(configDir string) *trigger.Sequencer {
	var locationProvider location.Provider
	if serverConfig.Location.AgentURL != "" {
		locationProvider = location.NewAgentClient(serverConfig.Location.AgentURL)
	} else {
		locationProvider = &location.StaticProvider{}
	}

	cacheDir := serverConfig.Stealthwatch.Recording.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(configDir, "recordings")
	}

	registry := device.NewCameraRegistry(
		&device.CameraDevice{Position: device.BackCamera},
		&device.CameraDevice{Position: device.FrontCamera},
	)
	recorder := device.NewRecorder(cacheDir, registry)

	var fileUploader uploader.Uploader
	if storageClient != nil && serverConfig.Google.Storage.UploadVideos == true {
		fileUploader = uploader.NewGStorageUploader(
			storageClient, serverConfig.Google.Storage.Bucket, serverConfig.Google.Storage.Prefix)
	} else {
		fileUploader = uploader.NewSimulatedUploader()
	}

	return trigger.NewSequencer(
		device.NewGrantAllChecker(),
		locationProvider,
		videosdk.NewClient(serverConfig.VideoSDK),
		smsClient,
		recorder,
		fileUploader,
	)
}

func router() *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware, initialContextMiddleware)

	router.HandleFunc("/livez", healthCheck).Methods("GET")
	router.HandleFunc("/jwks", jwks).Methods("GET")
	router.HandleFunc("/login", logIn).Methods("POST")

	protected := router.NewRoute().Subrouter()
	protected.Use(protectedRouteMiddleware)
	protected.HandleFunc("/settings", findSettings).Methods("GET")
	protected.HandleFunc("/settings", updateSettings).Methods("PUT")
	protected.HandleFunc("/sms/test", testSms).Methods("POST")
	protected.HandleFunc("/panic", createPanicEpisode).Methods("POST")
	protected.HandleFunc("/panic/{id}", findPanicEpisode).Methods("GET")
	protected.HandleFunc("/panic/{id}/stop", stopPanicRecording).Methods("POST")

	return router
}
