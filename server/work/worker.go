package work

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stealthwatch/stealthwatch/colors"
	"github.com/stealthwatch/stealthwatch/server/logger"
	"github.com/stealthwatch/stealthwatch/server/models"
	"gorm.io/gorm"
)

const MAX_FAILS = 4

var (
	DefaultTickerDuration = 5 * time.Millisecond
	TickerDurationOnError = 10 * time.Millisecond

	ErrDuplicateHandler = errors.New("handler with provided name already mapped")

	logg = logger.NewLogger()
)

type JobParams struct {
	Name    string
	Handler string
	Unique  bool
	Args    map[string]interface{}
}

type Handler func(map[string]interface{}) error

type worker struct {
	id                     string
	handlers               map[string]Handler
	stopChan               chan struct{}
	sleepBackoffsInSeconds []int64
}

func newWorker(sleepBackoffsInSeconds []int64) *worker {
	return &worker{
		id:                     uuid.NewString()[:8],
		handlers:               make(map[string]Handler),
		stopChan:               make(chan struct{}),
		sleepBackoffsInSeconds: sleepBackoffsInSeconds,
	}
}

func (w *worker) registerHandler(name string, handler Handler) error {
	if _, ok := w.handlers[name]; ok {
		return ErrDuplicateHandler
	}

	w.handlers[name] = handler

	return nil
}

func (w *worker) start() {
	go w.loop()
}

func (w *worker) stop() {
	w.stopChan <- struct{}{}
}

func (w *worker) loop() {
	var consecutiveNoJobs int64

	sleepBackoffs := w.sleepBackoffsInSeconds
	rateLimiter := time.NewTicker(DefaultTickerDuration)
	defer rateLimiter.Stop()

	w.logInfof("starting")
	for {
		select {
		case <-w.stopChan:
			w.logInfof("stopping")
			return
		case <-rateLimiter.C:
			currentJob, err := models.LastJob(models.ENQUEUED_JOB, false)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					// If no job found, slowly increase the wait time between each
					// job fetch using 'sleepBackoffsInSeconds', to reduce db hits.
					consecutiveNoJobs++
					idx := consecutiveNoJobs
					if idx >= int64(len(sleepBackoffs)) {
						idx = int64(len(sleepBackoffs)) - 1
					}
					rateLimiter.Reset(time.Duration(sleepBackoffs[idx]) * time.Second)
					continue
				}

				w.logError(err)
				rateLimiter.Reset(TickerDurationOnError)
				continue
			}

			consecutiveNoJobs = 0

			claimed, err := currentJob.MarkAsClaimed()
			if err != nil {
				w.logError(err)
				rateLimiter.Reset(TickerDurationOnError)
				continue
			}

			if !claimed {
				// Another worker got to this job first
				rateLimiter.Reset(DefaultTickerDuration)
				continue
			}

			w.perform(currentJob)
			rateLimiter.Reset(DefaultTickerDuration)
		}
	}
}

func (w *worker) perform(job *models.Job) {
	handler, ok := w.handlers[job.Handler]
	if !ok {
		w.markAsFailed(job, errors.Errorf("no handler registered for %v", job.Handler))
		return
	}

	args := make(map[string]interface{})
	if err := json.Unmarshal([]byte(job.Args), &args); err != nil {
		w.markAsFailed(job, err)
		return
	}

	if err := handler(args); err != nil {
		w.markAsFailed(job, err)
		return
	}

	successfulStatus, err := models.FindJobStatus(models.SUCCESSFUL_JOB)
	if err != nil {
		w.logError(err)
		return
	}

	err = job.Update(map[string]interface{}{"job_status_id": successfulStatus.ID})
	if err != nil {
		w.logError(err)
	}
}

// markAsFailed re-enqueues a failed job until MAX_FAILS, then moves it
// to the dead queue.
func (w *worker) markAsFailed(job *models.Job, jobErr error) {
	w.logInfof("job %v failed: %v", job.Name, jobErr)

	statusName := models.ENQUEUED_JOB
	if job.Fails+1 >= MAX_FAILS {
		statusName = models.DEAD_JOB
	}

	status, err := models.FindJobStatus(statusName)
	if err != nil {
		w.logError(err)
		return
	}

	err = job.Update(map[string]interface{}{
		"fails":         job.Fails + 1,
		"last_error":    jobErr.Error(),
		"claimed":       false,
		"job_status_id": status.ID,
	})
	if err != nil {
		w.logError(err)
	}
}

func (w *worker) logInfof(template string, args ...interface{}) {
	prefix := colors.Yellow(fmt.Sprintf("[worker %v] ", w.id))
	logg.Infof(prefix+template, args...)
}

func (w *worker) logError(args ...interface{}) {
	prefix := colors.Red(fmt.Sprintf("[worker %v] ", w.id))
	logg.Error(append([]interface{}{prefix}, args...)...)
}
