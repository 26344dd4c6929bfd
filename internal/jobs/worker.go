package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/rafadias/shopee-scraper/internal/queue"
)

const defaultJobTimeout = 2 * time.Minute

// StartWorker drains the queue until the context is cancelled or the queue
// is closed. Run it in its own goroutine; multiple workers may share one
// manager.
func (m *Manager) StartWorker(ctx context.Context) {
	m.logger.Info("job worker started")

	for {
		task, err := m.queue.Pop(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrQueueClosed) || errors.Is(err, context.Canceled) {
				m.logger.Info("job worker stopping")
				return
			}
			m.logger.Error("failed to pop task", "error", err)
			continue
		}

		m.processTask(ctx, task)
	}
}

func (m *Manager) processTask(ctx context.Context, task *queue.Task) {
	m.logger.Info("processing job", "id", task.ID, "url", task.URL)
	m.markRunning(task.ID)

	jobCtx, cancel := context.WithTimeout(ctx, defaultJobTimeout)
	defer cancel()

	product, err := m.extractor.Extract(jobCtx, task.URL)
	if err != nil {
		m.logger.Error("job failed", "id", task.ID, "error", err)
		m.markFailed(task.ID, err)
		return
	}

	m.markCompleted(task.ID, product)
	m.logger.Info("job completed", "id", task.ID, "item_id", product.ItemID, "provenance", product.Provenance)
}
