package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/rafadias/shopee-scraper/internal/browser"
	"github.com/rafadias/shopee-scraper/internal/models"
	"github.com/rafadias/shopee-scraper/internal/parser"
)

// BrowserStrategy drives a headless browser against the live DOM. Last and
// most expensive extraction strategy; it reuses the exact selector priority
// lists of the static HTML scraper.
type BrowserStrategy struct {
	browser     *browser.Browser
	logger      *slog.Logger
	waitTimeout time.Duration
	maxImages   int
}

func NewBrowserStrategy(b *browser.Browser, logger *slog.Logger) *BrowserStrategy {
	return &BrowserStrategy{
		browser:     b,
		logger:      logger.With("strategy", "browser_automation"),
		waitTimeout: 10 * time.Second,
		maxImages:   8,
	}
}

func (s *BrowserStrategy) Name() string { return string(models.KindBrowserAutomation) }

func (s *BrowserStrategy) Attempt(ctx context.Context, ids Identifiers, url string) (*models.RawProduct, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := s.browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	defer page.Close()

	if err := s.browser.NavigateWithRetry(page, url, 2); err != nil {
		return nil, fmt.Errorf("navigation failed: %v: %w", err, ErrNotFound)
	}

	// Bounded wait for the product markup to render; absence is not fatal,
	// the selector loop below decides.
	waitErr := page.Locator(parser.NameSelectors[0]).First().WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(float64(s.waitTimeout.Milliseconds())),
	})
	if waitErr != nil {
		s.logger.Debug("name marker never appeared", "item_id", ids.ItemID)
	}

	name := s.firstText(page, parser.NameSelectors, parser.PlausibleName)
	if name == "" {
		return nil, fmt.Errorf("no name-bearing selector matched live DOM: %w", ErrNotFound)
	}

	product := &models.PageProduct{
		Name:        name,
		Description: s.firstText(page, parser.DescriptionSelectors, func(t string) bool { return len(t) > 20 }),
		ImageURLs:   s.collectImages(page),
	}

	prices := s.collectPrices(page)
	if len(prices) > 0 {
		product.PriceText = prices[0]
	}
	if len(prices) > 1 {
		product.OriginalPriceText = prices[1]
	}

	return &models.RawProduct{Kind: models.KindBrowserAutomation, Page: product}, nil
}

// firstText iterates selectors in priority order and returns the first text
// content passing the sanity filter. Candidates from different selectors are
// never merged.
func (s *BrowserStrategy) firstText(page playwright.Page, selectors []string, ok func(string) bool) string {
	for _, selector := range selectors {
		locator := page.Locator(selector).First()
		count, err := locator.Count()
		if err != nil || count == 0 {
			continue
		}

		text, err := locator.TextContent()
		if err != nil {
			continue
		}

		text = strings.TrimSpace(text)
		if ok(text) {
			return text
		}
	}
	return ""
}

func (s *BrowserStrategy) collectPrices(page playwright.Page) []string {
	var prices []string
	seen := make(map[string]bool)

	for _, selector := range parser.PriceSelectors {
		elements, err := page.Locator(selector).All()
		if err != nil {
			continue
		}
		for _, element := range elements {
			text, err := element.TextContent()
			if err != nil || !parser.PlausiblePriceText(text) {
				continue
			}
			price := parser.FirstPrice(text)
			if price != "" && !seen[price] {
				seen[price] = true
				prices = append(prices, price)
			}
		}
	}

	return prices
}

func (s *BrowserStrategy) collectImages(page playwright.Page) []string {
	var urls []string
	seen := make(map[string]bool)

	elements, err := page.Locator("img").All()
	if err != nil {
		return nil
	}

	for _, element := range elements {
		src, err := element.GetAttribute("src")
		if err != nil || src == "" {
			src, _ = element.GetAttribute("data-src")
		}
		if src == "" || seen[src] {
			continue
		}
		if !strings.Contains(src, "susercontent.com") && !strings.Contains(src, "cf.shopee") {
			continue
		}

		seen[src] = true
		urls = append(urls, src)
		if len(urls) >= s.maxImages {
			break
		}
	}

	return urls
}
