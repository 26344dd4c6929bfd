// Package api exposes the extraction pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rafadias/shopee-scraper/internal/extractor"
	"github.com/rafadias/shopee-scraper/internal/jobs"
	"github.com/rafadias/shopee-scraper/internal/models"
)

// Extractor runs the strategy chain for a single product URL.
type Extractor interface {
	Extract(ctx context.Context, url string) (*models.ProductRecord, error)
}

type Handlers struct {
	extractor Extractor
	jobs      *jobs.Manager
	products  extractor.KnownProductRepository
	logger    *slog.Logger
}

// NewHandlers wires the HTTP surface. products may be nil when the service
// runs without a repository.
func NewHandlers(ex Extractor, jobManager *jobs.Manager, products extractor.KnownProductRepository, logger *slog.Logger) *Handlers {
	return &Handlers{
		extractor: ex,
		jobs:      jobManager,
		products:  products,
		logger:    logger.With("component", "api"),
	}
}

// ExtractRequest is the body for synchronous and asynchronous extractions.
type ExtractRequest struct {
	URL string `json:"url"`
}

// Extract runs the full extraction chain inline and returns the product.
// This always produces a record; callers must check the provenance field to
// tell authoritative data from synthetic placeholders.
func (h *Handlers) Extract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.URL == "" {
		h.respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	product, err := h.extractor.Extract(r.Context(), req.URL)
	if err != nil {
		if errors.Is(err, extractor.ErrMalformedURL) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("extraction failed", "url", req.URL, "error", err)
		h.respondError(w, http.StatusInternalServerError, "extraction failed")
		return
	}

	h.respondJSON(w, http.StatusOK, product)
}

// CreateJobResponse is returned when an extraction is queued.
type CreateJobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// CreateJob queues an extraction and returns immediately.
func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.URL == "" {
		h.respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	job, err := h.jobs.Enqueue(req.URL)
	if err != nil {
		if errors.Is(err, extractor.ErrMalformedURL) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to enqueue job", "url", req.URL, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to enqueue job")
		return
	}

	h.respondJSON(w, http.StatusAccepted, CreateJobResponse{
		JobID:  job.ID,
		Status: job.Status,
	})
}

// GetJob returns the current state of a queued extraction.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		h.respondError(w, http.StatusBadRequest, "job ID is required")
		return
	}

	job := h.jobs.Get(jobID)
	if job == nil {
		h.respondError(w, http.StatusNotFound, "job not found")
		return
	}

	h.respondJSON(w, http.StatusOK, job)
}

// ListJobs returns all known jobs, newest first.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.jobs.List())
}

// GetStats returns job counts and the queue depth.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.jobs.GetStats())
}

// GetProduct returns a previously captured record straight from the
// repository, without triggering an extraction.
func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	if h.products == nil {
		h.respondError(w, http.StatusNotFound, "product store is disabled")
		return
	}

	itemID := chi.URLParam(r, "itemID")
	if itemID == "" {
		h.respondError(w, http.StatusBadRequest, "item ID is required")
		return
	}

	product, err := h.products.Lookup(r.Context(), itemID)
	if err != nil {
		h.logger.Error("product lookup failed", "item_id", itemID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if product == nil {
		h.respondError(w, http.StatusNotFound, "product not found")
		return
	}

	h.respondJSON(w, http.StatusOK, product)
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
