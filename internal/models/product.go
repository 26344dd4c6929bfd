package models

import (
	"time"
)

// Provenance marks whether a record came from a real extraction or was
// synthesized from the URL alone. It is set once by whichever strategy (or
// the synthetic generator) produced the record and never changed afterward.
type Provenance string

const (
	ProvenanceAuthoritative Provenance = "authoritative"
	ProvenanceSynthetic     Provenance = "synthetic"
)

// ProductRecord is the canonical product shape produced by the normalizer.
// All price fields are in the marketplace's base currency (BRL).
type ProductRecord struct {
	ShopID              string            `json:"shop_id"`
	ItemID              string            `json:"item_id"`
	URL                 string            `json:"url"`
	Name                string            `json:"name"`
	PriceCurrent        float64           `json:"price_current"`
	PriceMin            float64           `json:"price_min"`
	PriceMax            float64           `json:"price_max"`
	PriceBeforeDiscount float64           `json:"price_before_discount"`
	DiscountPercent     int               `json:"discount_percent"`
	Rating              float64           `json:"rating"`
	RatingCountTotal    int               `json:"rating_count_total"`
	SoldCount           int               `json:"sold_count"`
	StockCount          int               `json:"stock_count"`
	Description         string            `json:"description"`
	Category            string            `json:"category"`
	Images              []ImageRef        `json:"images"`
	Variations          []VariationOption `json:"variations"`
	Provenance          Provenance        `json:"provenance"`
	ExtractedAt         time.Time         `json:"extracted_at"`
}

// ImageRef tracks one product image through its lifecycle: created by a
// strategy with only the source locator, resolved and possibly downloaded by
// the image materializer. LocalPath stays empty when the fetch failed.
type ImageRef struct {
	SourceLocator   string `json:"source_locator"`
	ResolvedURL     string `json:"resolved_url,omitempty"`
	LocalPath       string `json:"local_path,omitempty"`
	IsAuthoritative bool   `json:"is_authoritative"`
}

type VariationOption struct {
	Label         string   `json:"label"`
	PriceOverride *float64 `json:"price_override,omitempty"`
	StockOverride *int     `json:"stock_override,omitempty"`
}

// Usable reports whether the record is good enough to short-circuit the
// fallback chain. A record without a name counts as a failed extraction.
func (r *ProductRecord) Usable() bool {
	return r != nil && r.Name != ""
}

// StrategyKind tags which extraction strategy produced a raw result. The
// normalizer matches exhaustively over it.
type StrategyKind string

const (
	KindOfficialAPI       StrategyKind = "official_api"
	KindEmbeddedJSON      StrategyKind = "embedded_json"
	KindHTMLScrape        StrategyKind = "html_scrape"
	KindBrowserAutomation StrategyKind = "browser_automation"
)

// RawProduct is the tagged union of strategy-specific result shapes. Exactly
// one of the payload fields is set, according to Kind: the official API and
// embedded-JSON strategies both yield the Shopee item wire shape, the two
// page-scraping strategies yield loose text fields.
type RawProduct struct {
	Kind StrategyKind
	Item *ShopeeItem
	Page *PageProduct
}

// ShopeeItem mirrors the item object of the marketplace's internal API.
// Prices are integers scaled by 100000; the normalizer converts them.
type ShopeeItem struct {
	ItemID              int64        `json:"itemid"`
	ShopID              int64        `json:"shopid"`
	Name                string       `json:"name"`
	Description         string       `json:"description"`
	PriceMin            int64        `json:"price_min"`
	PriceMax            int64        `json:"price_max"`
	Price               int64        `json:"price"`
	PriceBeforeDiscount int64        `json:"price_before_discount"`
	RawDiscount         int          `json:"raw_discount"`
	Sold                int          `json:"sold"`
	Stock               int          `json:"stock"`
	ItemRating          ItemRating   `json:"item_rating"`
	Images              []string     `json:"images"`
	Categories          []Category   `json:"categories"`
	Models              []ItemModel  `json:"models"`
	TierVariations      []ItemModel  `json:"tier_variations"`
}

type ItemRating struct {
	RatingStar  float64 `json:"rating_star"`
	RatingCount []int   `json:"rating_count"`
}

type Category struct {
	DisplayName string `json:"display_name"`
}

// ItemModel is one purchasable variation. Price uses the same scaled
// encoding as the item prices.
type ItemModel struct {
	Name   string `json:"name"`
	Option string `json:"option"`
	Price  int64  `json:"price"`
	Stock  int    `json:"stock"`
}

// Label returns the variation display name, whichever field carries it.
func (m *ItemModel) Label() string {
	if m.Name != "" {
		return m.Name
	}
	return m.Option
}

// PageProduct holds the loose fields scraped from a rendered product page,
// either from static HTML or from a live browser DOM. Price fields keep the
// page's display text (e.g. "R$ 189,90") until normalization.
type PageProduct struct {
	Name              string
	PriceText         string
	OriginalPriceText string
	RatingText        string
	Description       string
	Category          string
	ImageURLs         []string
}
