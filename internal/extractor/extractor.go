// Package extractor implements the multi-strategy product extraction chain:
// official API, embedded page JSON, static HTML scraping and headless-browser
// automation, in that order, with a synthetic fallback when everything fails.
package extractor

import (
	"context"
	"errors"
	"regexp"

	"github.com/rafadias/shopee-scraper/internal/models"
)

var (
	// ErrMalformedURL means the URL carries no shop/item identifier pair.
	// It is the only hard error the chain surfaces to callers.
	ErrMalformedURL = errors.New("not a valid Shopee product URL")

	// ErrNotFound means a single strategy could not produce a name-bearing
	// product. The chain recovers by advancing to the next strategy.
	ErrNotFound = errors.New("product not found")
)

// Identifiers is the (shop, item) pair embedded in every product URL.
type Identifiers struct {
	ShopID string
	ItemID string
}

// Strategy is one self-contained method of obtaining authoritative product
// data. Attempts are independently retryable and must not mutate shared
// state beyond the image cache directory.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, ids Identifiers, url string) (*models.RawProduct, error)
}

// Shopee product URLs end in "<slug>-i.<shopID>.<itemID>".
var productURLPattern = regexp.MustCompile(`i\.(\d+)\.(\d+)`)

// ExtractIdentifiers parses the shop and item IDs out of a product URL.
// Pure string matching; no network access.
func ExtractIdentifiers(url string) (Identifiers, error) {
	matches := productURLPattern.FindStringSubmatch(url)
	if len(matches) < 3 {
		return Identifiers{}, ErrMalformedURL
	}
	return Identifiers{ShopID: matches[1], ItemID: matches[2]}, nil
}
