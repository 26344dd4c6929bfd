package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rafadias/shopee-scraper/internal/httpclient"
	"github.com/rafadias/shopee-scraper/internal/models"
	"github.com/rafadias/shopee-scraper/internal/parser"
)

// HTMLScrapeStrategy applies the shared selector and pattern rules to the
// static page body. Catches pages that render server-side when the API and
// embedded state are unavailable.
type HTMLScrapeStrategy struct {
	client *httpclient.Client
	parser *parser.PageParser
	logger *slog.Logger
}

func NewHTMLScrapeStrategy(client *httpclient.Client, logger *slog.Logger) *HTMLScrapeStrategy {
	return &HTMLScrapeStrategy{
		client: client,
		parser: parser.NewPageParser(),
		logger: logger.With("strategy", "html_scrape"),
	}
}

func (s *HTMLScrapeStrategy) Name() string { return string(models.KindHTMLScrape) }

func (s *HTMLScrapeStrategy) Attempt(ctx context.Context, ids Identifiers, url string) (*models.RawProduct, error) {
	resp, err := s.client.Get(ctx, url, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("page fetch failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned status %d: %w", resp.StatusCode, ErrNotFound)
	}

	page, err := s.parser.ParseProductPage(string(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrNotFound)
	}

	s.logger.Debug("scraped static page", "item_id", ids.ItemID, "images", len(page.ImageURLs))

	return &models.RawProduct{Kind: models.KindHTMLScrape, Page: page}, nil
}
