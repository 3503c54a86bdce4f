package work

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stealthwatch/stealthwatch/server/models"
	"github.com/stretchr/testify/assert"
)

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (sb *safeBuffer) WriteString(s string) (int, error) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.buf.WriteString(s)
}

func (sb *safeBuffer) String() string {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.buf.String()
}

func TestPerform(t *testing.T) {
	models.InitializeTestDb()

	workerPool := NewWorkerAdapter("UTC")
	outputBuffer := &safeBuffer{}

	// Register job function
	writeToBuffer := func(m map[string]interface{}) error {
		_, err := outputBuffer.WriteString("Hello")
		return err
	}
	workerPool.Register("write_to_buffer", writeToBuffer)

	err := workerPool.Perform(JobParams{
		Name:    "write_to_buffer",
		Handler: "write_to_buffer",
		Args:    map[string]interface{}{},
	})
	assert.Nil(t, err)
	assert.Empty(t, outputBuffer.String(), "Expected outputBuffer to be empty before the pool starts")

	workerPool.Start()
	defer workerPool.Stop()

	assert.Eventually(t, func() bool {
		return outputBuffer.String() == "Hello"
	}, 5*time.Second, 50*time.Millisecond, "Expected job to write to outputBuffer")
}

func TestPerformUniqueJobDedup(t *testing.T) {
	models.InitializeTestDb()

	workerPool := NewWorkerAdapter("UTC")

	job := JobParams{
		Name:    "deliver_recording_1",
		Handler: "deliverRecording",
		Unique:  true,
		Args:    map[string]interface{}{"episode_id": 1},
	}

	assert.Nil(t, workerPool.Perform(job))

	// A second enqueue of the same unique job is dropped, not an error
	assert.Nil(t, workerPool.Perform(job))

	lastJob, err := models.LastJob(models.ENQUEUED_JOB, false)
	assert.Nil(t, err)
	assert.Equal(t, "deliver_recording_1", lastJob.Name)
}

func TestPerformRequiresNameAndHandler(t *testing.T) {
	models.InitializeTestDb()

	workerPool := NewWorkerAdapter("UTC")

	err := workerPool.Perform(JobParams{Name: "nameless"})
	assert.NotNil(t, err)
}
