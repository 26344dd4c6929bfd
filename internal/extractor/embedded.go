package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rafadias/shopee-scraper/internal/httpclient"
	"github.com/rafadias/shopee-scraper/internal/models"
	"github.com/rafadias/shopee-scraper/internal/parser"
)

// EmbeddedJSONStrategy fetches the rendered page and digs product data out
// of the JSON state blobs frameworks leave behind in script tags.
type EmbeddedJSONStrategy struct {
	client     *httpclient.Client
	logger     *slog.Logger
	depthLimit int
}

func NewEmbeddedJSONStrategy(client *httpclient.Client, logger *slog.Logger) *EmbeddedJSONStrategy {
	return &EmbeddedJSONStrategy{
		client:     client,
		logger:     logger.With("strategy", "embedded_json"),
		depthLimit: parser.DefaultDepthLimit,
	}
}

func (s *EmbeddedJSONStrategy) Name() string { return string(models.KindEmbeddedJSON) }

func (s *EmbeddedJSONStrategy) Attempt(ctx context.Context, ids Identifiers, url string) (*models.RawProduct, error) {
	resp, err := s.client.Get(ctx, url, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("page fetch failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned status %d: %w", resp.StatusCode, ErrNotFound)
	}

	blobs := parser.ExtractJSONBlobs(string(resp.Body))
	s.logger.Debug("embedded blobs found", "count", len(blobs), "item_id", ids.ItemID)

	for _, blob := range blobs {
		var doc any
		if err := json.Unmarshal([]byte(blob), &doc); err != nil {
			continue
		}

		found, ok := parser.FindItem(doc, s.depthLimit)
		if !ok {
			continue
		}

		item, err := itemFromDocument(found)
		if err != nil {
			s.logger.Debug("item-shaped object did not decode", "error", err)
			continue
		}
		if item.Name == "" {
			continue
		}

		return &models.RawProduct{Kind: models.KindEmbeddedJSON, Item: item}, nil
	}

	return nil, fmt.Errorf("no item-shaped object in %d embedded blobs: %w", len(blobs), ErrNotFound)
}

// itemFromDocument projects a loose JSON object onto the item wire shape via
// a marshal round trip, so the normalizer sees the same tagged shape the
// official API produces.
func itemFromDocument(doc map[string]any) (*models.ShopeeItem, error) {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	var item models.ShopeeItem
	if err := json.Unmarshal(encoded, &item); err != nil {
		return nil, err
	}
	return &item, nil
}
