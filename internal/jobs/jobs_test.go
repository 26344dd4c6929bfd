package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafadias/shopee-scraper/internal/models"
	"github.com/rafadias/shopee-scraper/internal/queue"
)

type stubExtractor struct {
	calls  atomic.Int64
	record *models.ProductRecord
	err    error
}

func (s *stubExtractor) Extract(ctx context.Context, url string) (*models.ProductRecord, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.record, nil
}

const productURL = "https://shopee.com.br/Sapato-Masculino-i.1167885424.22593522326"

func waitForStatus(t *testing.T, m *Manager, jobID, status string) *Job {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("job %s never reached status %s", jobID, status)
		case <-time.After(5 * time.Millisecond):
			if job := m.Get(jobID); job != nil && job.Status == status {
				return job
			}
		}
	}
}

func TestManagerEnqueueAndProcess(t *testing.T) {
	q := queue.NewInMemoryQueue()
	ex := &stubExtractor{record: &models.ProductRecord{
		ItemID:     "22593522326",
		Name:       "Sapato Masculino",
		Provenance: models.ProvenanceAuthoritative,
	}}
	m := NewManager(q, ex, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.StartWorker(ctx)

	job, err := m.Enqueue(productURL)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, job.Status)

	done := waitForStatus(t, m, job.ID, StatusCompleted)
	require.NotNil(t, done.Product)
	assert.Equal(t, "Sapato Masculino", done.Product.Name)
	assert.NotNil(t, done.CompletedAt)
	assert.Equal(t, int64(1), ex.calls.Load())
}

func TestManagerRejectsMalformedURL(t *testing.T) {
	m := NewManager(queue.NewInMemoryQueue(), &stubExtractor{}, slog.Default())

	_, err := m.Enqueue("https://shopee.com.br/categoria/sapatos")
	assert.Error(t, err)
	assert.Equal(t, 0, m.GetStats().TotalJobs)
}

func TestManagerMarksFailedJobs(t *testing.T) {
	q := queue.NewInMemoryQueue()
	ex := &stubExtractor{err: errors.New("browser crashed")}
	m := NewManager(q, ex, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.StartWorker(ctx)

	job, err := m.Enqueue(productURL)
	require.NoError(t, err)

	failed := waitForStatus(t, m, job.ID, StatusFailed)
	assert.Equal(t, "browser crashed", failed.Error)
	assert.Nil(t, failed.Product)
}

func TestManagerGetUnknownJob(t *testing.T) {
	m := NewManager(queue.NewInMemoryQueue(), &stubExtractor{}, slog.Default())
	assert.Nil(t, m.Get("missing"))
}

func TestManagerStats(t *testing.T) {
	q := queue.NewInMemoryQueue()
	m := NewManager(q, &stubExtractor{}, slog.Default())

	// No worker running: jobs stay pending in the queue.
	_, err := m.Enqueue(productURL)
	require.NoError(t, err)
	_, err = m.Enqueue(productURL)
	require.NoError(t, err)

	stats := m.GetStats()
	assert.Equal(t, 2, stats.TotalJobs)
	assert.Equal(t, 2, stats.PendingJobs)
	assert.Equal(t, 2, stats.QueueDepth)
}

func TestManagerListNewestFirst(t *testing.T) {
	m := NewManager(queue.NewInMemoryQueue(), &stubExtractor{}, slog.Default())

	first, err := m.Enqueue(productURL)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := m.Enqueue(productURL)
	require.NoError(t, err)

	jobs := m.List()
	require.Len(t, jobs, 2)
	assert.Equal(t, second.ID, jobs[0].ID)
	assert.Equal(t, first.ID, jobs[1].ID)
}
