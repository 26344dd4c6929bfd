package extractor

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rafadias/shopee-scraper/internal/models"
	"github.com/rafadias/shopee-scraper/internal/normalize"
	"github.com/rafadias/shopee-scraper/internal/ratelimit"
)

// KnownProductRepository is a cache of previously captured records, keyed by
// item ID. It is not a strategy: a hit returns the stored record with its
// stored provenance untouched. Lookup returns (nil, nil) on a miss.
type KnownProductRepository interface {
	Lookup(ctx context.Context, itemID string) (*models.ProductRecord, error)
	Save(ctx context.Context, rec *models.ProductRecord) error
}

// ImageMaterializer downloads a record's images; see the images package.
type ImageMaterializer interface {
	Materialize(ctx context.Context, itemID string, refs []models.ImageRef) []models.ImageRef
}

// Chain tries each strategy in priority order and short-circuits on the
// first name-bearing result. Failure to find authoritative data is not an
// error: the chain degrades to a synthetic record instead.
type Chain struct {
	strategies []Strategy
	synthetic  *SyntheticGenerator
	known      KnownProductRepository
	images     ImageMaterializer
	limiter    ratelimit.Limiter
	logger     *slog.Logger
}

// ChainOptions holds the chain's optional collaborators. Any nil field
// simply disables that concern.
type ChainOptions struct {
	Known   KnownProductRepository
	Images  ImageMaterializer
	Limiter ratelimit.Limiter
	Logger  *slog.Logger
}

func NewChain(strategies []Strategy, opts *ChainOptions) *Chain {
	if opts == nil {
		opts = &ChainOptions{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Chain{
		strategies: strategies,
		synthetic:  NewSyntheticGenerator(),
		known:      opts.Known,
		images:     opts.Images,
		limiter:    opts.Limiter,
		logger:     logger.With("component", "chain"),
	}
}

// Extract runs the fallback chain for one product URL. The only hard error
// is ErrMalformedURL; every other failure mode ends in a synthetic record.
// A caller deadline is honored between strategies: once exceeded, no further
// strategy starts and the synthetic fallback is returned immediately.
func (c *Chain) Extract(ctx context.Context, url string) (*models.ProductRecord, error) {
	ids, err := ExtractIdentifiers(url)
	if err != nil {
		return nil, err
	}

	if c.known != nil {
		cached, err := c.known.Lookup(ctx, ids.ItemID)
		if err != nil {
			c.logger.Warn("known-product lookup failed", "item_id", ids.ItemID, "error", err)
		} else if cached != nil {
			c.logger.Info("known product hit", "item_id", ids.ItemID, "provenance", cached.Provenance)
			return cached, nil
		}
	}

	for _, strategy := range c.strategies {
		if ctx.Err() != nil {
			c.logger.Warn("deadline reached, skipping remaining strategies", "item_id", ids.ItemID)
			break
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				break
			}
		}

		raw, err := strategy.Attempt(ctx, ids, url)
		if err != nil {
			level := slog.LevelInfo
			if !errors.Is(err, ErrNotFound) && !errors.Is(err, context.DeadlineExceeded) {
				level = slog.LevelWarn
			}
			c.logger.Log(ctx, level, "strategy failed, trying next",
				"strategy", strategy.Name(), "item_id", ids.ItemID, "error", err)
			continue
		}

		rec, err := normalize.Record(raw, ids.ShopID, ids.ItemID, url)
		if err != nil {
			c.logger.Warn("normalization failed", "strategy", strategy.Name(), "error", err)
			continue
		}
		if !rec.Usable() {
			continue
		}

		c.logger.Info("extraction succeeded",
			"strategy", strategy.Name(), "item_id", ids.ItemID, "name", rec.Name)

		if c.images != nil {
			rec.Images = c.images.Materialize(ctx, ids.ItemID, rec.Images)
		}

		if c.known != nil {
			if err := c.known.Save(ctx, rec); err != nil {
				c.logger.Warn("failed to persist record", "item_id", ids.ItemID, "error", err)
			}
		}

		return rec, nil
	}

	c.logger.Info("all strategies exhausted, generating synthetic record", "item_id", ids.ItemID)
	return c.synthetic.Generate(url, ids), nil
}
