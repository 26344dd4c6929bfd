// Package jobs runs product extractions asynchronously. Submitted URLs are
// queued, workers drain the queue and record the outcome per job.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rafadias/shopee-scraper/internal/extractor"
	"github.com/rafadias/shopee-scraper/internal/models"
	"github.com/rafadias/shopee-scraper/internal/queue"
)

const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Extractor is the part of the extraction chain the job manager needs.
type Extractor interface {
	Extract(ctx context.Context, url string) (*models.ProductRecord, error)
}

// Job tracks one queued extraction from submission to result.
type Job struct {
	ID          string                `json:"id"`
	URL         string                `json:"url"`
	Status      string                `json:"status"`
	Product     *models.ProductRecord `json:"product,omitempty"`
	Error       string                `json:"error,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	StartedAt   *time.Time            `json:"started_at,omitempty"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
}

// Stats summarizes the job registry.
type Stats struct {
	TotalJobs     int `json:"total_jobs"`
	PendingJobs   int `json:"pending_jobs"`
	RunningJobs   int `json:"running_jobs"`
	CompletedJobs int `json:"completed_jobs"`
	FailedJobs    int `json:"failed_jobs"`
	QueueDepth    int `json:"queue_depth"`
}

type Manager struct {
	queue     queue.Queue
	extractor Extractor
	logger    *slog.Logger

	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewManager(q queue.Queue, ex Extractor, logger *slog.Logger) *Manager {
	return &Manager{
		queue:     q,
		extractor: ex,
		logger:    logger.With("component", "job_manager"),
		jobs:      make(map[string]*Job),
	}
}

// Enqueue registers a new extraction job for a product URL. The URL must
// carry valid shop and item identifiers; anything else is rejected before
// it reaches the queue.
func (m *Manager) Enqueue(url string) (*Job, error) {
	ids, err := extractor.ExtractIdentifiers(url)
	if err != nil {
		return nil, err
	}

	job := &Job{
		ID:        uuid.New().String(),
		URL:       url,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}

	task := &queue.Task{
		ID:        job.ID,
		URL:       url,
		ShopID:    ids.ShopID,
		ItemID:    ids.ItemID,
		CreatedAt: job.CreatedAt,
	}

	if err := m.queue.Push(task); err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	m.logger.Info("job enqueued", "id", job.ID, "url", url)
	return job, nil
}

// Get returns a copy of the job, or nil when the ID is unknown.
func (m *Manager) Get(jobID string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return nil
	}

	clone := *job
	return &clone
}

// List returns all known jobs, newest first.
func (m *Manager) List() []*Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		clone := *job
		jobs = append(jobs, &clone)
	}

	for i := 0; i < len(jobs)-1; i++ {
		for j := i + 1; j < len(jobs); j++ {
			if jobs[j].CreatedAt.After(jobs[i].CreatedAt) {
				jobs[i], jobs[j] = jobs[j], jobs[i]
			}
		}
	}

	return jobs
}

// GetStats returns counts per job status plus the current queue depth.
func (m *Manager) GetStats() *Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &Stats{
		TotalJobs:  len(m.jobs),
		QueueDepth: m.queue.Size(),
	}
	for _, job := range m.jobs {
		switch job.Status {
		case StatusPending:
			stats.PendingJobs++
		case StatusRunning:
			stats.RunningJobs++
		case StatusCompleted:
			stats.CompletedJobs++
		case StatusFailed:
			stats.FailedJobs++
		}
	}

	return stats
}

func (m *Manager) markRunning(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job, ok := m.jobs[jobID]; ok {
		now := time.Now()
		job.Status = StatusRunning
		job.StartedAt = &now
	}
}

func (m *Manager) markCompleted(jobID string, product *models.ProductRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job, ok := m.jobs[jobID]; ok {
		now := time.Now()
		job.Status = StatusCompleted
		job.Product = product
		job.CompletedAt = &now
	}
}

func (m *Manager) markFailed(jobID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job, ok := m.jobs[jobID]; ok {
		now := time.Now()
		job.Status = StatusFailed
		job.Error = err.Error()
		job.CompletedAt = &now
	}
}
