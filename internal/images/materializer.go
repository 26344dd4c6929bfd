// Package images resolves and downloads product images into a local,
// append-only cache directory. Failures are per-image and never fail the
// record the images belong to.
package images

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rafadias/shopee-scraper/internal/httpclient"
	"github.com/rafadias/shopee-scraper/internal/models"
)

// fileURLTemplate is the marketplace's file-serving endpoint for bare image
// identifiers returned by the item API.
const fileURLTemplate = "https://cf.shopee.com.br/file/%s"

const minImageBytes = 1000

type Materializer struct {
	client      *httpclient.Client
	destDir     string
	concurrency int
	fetchLimit  time.Duration
	logger      *slog.Logger
}

type Options struct {
	DestDir     string
	Concurrency int
	Timeout     time.Duration
}

func NewMaterializer(client *httpclient.Client, opts Options) *Materializer {
	if opts.DestDir == "" {
		opts.DestDir = "images"
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}

	return &Materializer{
		client:      client,
		destDir:     opts.DestDir,
		concurrency: opts.Concurrency,
		fetchLimit:  opts.Timeout,
		logger:      slog.Default().With("component", "images"),
	}
}

// Materialize resolves every ref's locator to a fetchable URL and downloads
// the bytes into the cache directory. The returned slice has the same length
// and order as the input; refs whose fetch failed keep an empty LocalPath.
// Fetches run concurrently up to the configured limit.
func (m *Materializer) Materialize(ctx context.Context, itemID string, refs []models.ImageRef) []models.ImageRef {
	if len(refs) == 0 {
		return refs
	}

	if err := os.MkdirAll(m.destDir, 0o755); err != nil {
		m.logger.Error("failed to create image directory", "dir", m.destDir, "error", err)
		return refs
	}

	out := make([]models.ImageRef, len(refs))
	copy(out, refs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)

	for i := range out {
		g.Go(func() error {
			out[i].ResolvedURL = ResolveLocator(out[i].SourceLocator)
			path, err := m.fetch(gctx, out[i].ResolvedURL, itemID, i)
			if err != nil {
				m.logger.Warn("image fetch failed", "item_id", itemID, "url", out[i].ResolvedURL, "error", err)
				return nil
			}
			out[i].LocalPath = path
			return nil
		})
	}

	// Workers never return errors; Wait only orders completion.
	g.Wait()

	return out
}

func (m *Materializer) fetch(ctx context.Context, url, itemID string, position int) (string, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, m.fetchLimit)
	defer cancel()

	resp, err := m.client.Get(fetchCtx, url, nil, map[string]string{
		"Referer": "https://shopee.com.br/",
	})
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	if len(resp.Body) < minImageBytes {
		return "", fmt.Errorf("body too small (%d bytes), not an image", len(resp.Body))
	}

	filename := fmt.Sprintf("%s_img_%d.jpg", itemID, position+1)
	path := filepath.Join(m.destDir, filename)

	// Concurrent extractions of the same product race on this filename;
	// last writer wins, which is fine for idempotent image content.
	if err := os.WriteFile(path, resp.Body, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}

// ResolveLocator turns an image locator into a fetchable URL: absolute URLs
// pass through, protocol-relative URLs get https, anything else is treated
// as a bare file identifier.
func ResolveLocator(locator string) string {
	switch {
	case strings.HasPrefix(locator, "http://"), strings.HasPrefix(locator, "https://"):
		return locator
	case strings.HasPrefix(locator, "//"):
		return "https:" + locator
	default:
		return fmt.Sprintf(fileURLTemplate, locator)
	}
}
