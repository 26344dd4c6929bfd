// Package normalize maps each strategy's raw result shape into the canonical
// ProductRecord. All unit conversion happens here, once, so downstream code
// never sees the marketplace's scaled price encoding.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rafadias/shopee-scraper/internal/models"
)

// PriceScale is the fixed divisor the marketplace API applies to monetary
// amounts: 18990000 on the wire means R$ 189,90.
const PriceScale = 100000

var (
	brlAmountPattern = regexp.MustCompile(`[\d.,]+`)

	// Dots followed by exactly three digits with no decimal comma, as in
	// "R$ 1.299": thousands separators, not a decimal point.
	thousandsDotPattern = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)
)

// Record converts a raw strategy result into a canonical ProductRecord.
// Provenance is always authoritative: synthetic records never pass through
// the normalizer.
func Record(raw *models.RawProduct, shopID, itemID, url string) (*models.ProductRecord, error) {
	var rec *models.ProductRecord

	switch raw.Kind {
	case models.KindOfficialAPI, models.KindEmbeddedJSON:
		if raw.Item == nil {
			return nil, fmt.Errorf("raw result for %s has no item payload", raw.Kind)
		}
		rec = fromItem(raw.Item)
	case models.KindHTMLScrape, models.KindBrowserAutomation:
		if raw.Page == nil {
			return nil, fmt.Errorf("raw result for %s has no page payload", raw.Kind)
		}
		rec = fromPage(raw.Page)
	default:
		return nil, fmt.Errorf("unknown strategy kind %q", raw.Kind)
	}

	rec.ShopID = shopID
	rec.ItemID = itemID
	rec.URL = url
	rec.Provenance = models.ProvenanceAuthoritative
	rec.ExtractedAt = time.Now()

	return rec, nil
}

func fromItem(item *models.ShopeeItem) *models.ProductRecord {
	rec := &models.ProductRecord{
		Name:                strings.TrimSpace(item.Name),
		PriceMin:            float64(item.PriceMin) / PriceScale,
		PriceMax:            float64(item.PriceMax) / PriceScale,
		PriceBeforeDiscount: float64(item.PriceBeforeDiscount) / PriceScale,
		Rating:              ClampRating(item.ItemRating.RatingStar),
		SoldCount:           item.Sold,
		StockCount:          item.Stock,
		Description:         strings.TrimSpace(item.Description),
	}

	// Some endpoint versions only populate price_max.
	if rec.PriceMin == 0 && rec.PriceMax > 0 {
		rec.PriceMin = rec.PriceMax
	}

	rec.PriceCurrent = float64(item.Price) / PriceScale
	if rec.PriceCurrent == 0 {
		rec.PriceCurrent = rec.PriceMin
	}

	rec.DiscountPercent = item.RawDiscount
	if rec.DiscountPercent == 0 {
		rec.DiscountPercent = DeriveDiscountPercent(rec.PriceBeforeDiscount, rec.PriceCurrent)
	}

	for _, count := range item.ItemRating.RatingCount {
		rec.RatingCountTotal += count
	}

	if len(item.Categories) > 0 {
		rec.Category = item.Categories[len(item.Categories)-1].DisplayName
	}

	for _, img := range item.Images {
		if img == "" {
			continue
		}
		rec.Images = append(rec.Images, models.ImageRef{
			SourceLocator:   img,
			IsAuthoritative: true,
		})
	}

	variants := item.Models
	if len(variants) == 0 {
		variants = item.TierVariations
	}
	for _, variant := range variants {
		label := variant.Label()
		if label == "" {
			continue
		}
		option := models.VariationOption{Label: label}
		if variant.Price > 0 {
			price := float64(variant.Price) / PriceScale
			option.PriceOverride = &price
		}
		if variant.Stock > 0 {
			stock := variant.Stock
			option.StockOverride = &stock
		}
		rec.Variations = append(rec.Variations, option)
	}

	return rec
}

func fromPage(page *models.PageProduct) *models.ProductRecord {
	rec := &models.ProductRecord{
		Name:        strings.TrimSpace(page.Name),
		Description: strings.TrimSpace(page.Description),
		Category:    page.Category,
	}

	if amount, err := ParseBRL(page.PriceText); err == nil {
		rec.PriceCurrent = amount
		rec.PriceMin = amount
		rec.PriceMax = amount
	}

	if amount, err := ParseBRL(page.OriginalPriceText); err == nil {
		rec.PriceBeforeDiscount = amount
	}

	rec.DiscountPercent = DeriveDiscountPercent(rec.PriceBeforeDiscount, rec.PriceCurrent)

	if page.RatingText != "" {
		if rating, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(page.RatingText), ",", ".", 1), 64); err == nil {
			rec.Rating = ClampRating(rating)
		}
	}

	for _, url := range page.ImageURLs {
		if url == "" {
			continue
		}
		rec.Images = append(rec.Images, models.ImageRef{
			SourceLocator:   url,
			IsAuthoritative: true,
		})
	}

	return rec
}

// DeriveDiscountPercent computes the discount from the pre-discount and
// current prices when the source did not supply one. The fraction is
// truncated, not rounded: R$ 300,00 down to R$ 189,90 is 36.7% and reports
// as 36.
func DeriveDiscountPercent(before, current float64) int {
	if before <= 0 || current <= 0 || current >= before {
		return 0
	}

	percent := int((before - current) / before * 100)
	if percent > 100 {
		percent = 100
	}
	return percent
}

// ClampRating forces out-of-range source ratings into [0, 5] instead of
// rejecting the record.
func ClampRating(rating float64) float64 {
	if rating < 0 {
		return 0
	}
	if rating > 5 {
		return 5
	}
	return rating
}

// ParseBRL converts Brazilian display prices ("R$ 1.299,90") into a float
// amount. It tolerates missing currency markers but not missing digits.
func ParseBRL(text string) (float64, error) {
	token := brlAmountPattern.FindString(text)
	if token == "" {
		return 0, fmt.Errorf("no amount in %q", text)
	}

	// "1.299,90" -> "1299.90", "1.299" -> "1299"; a bare "189.90" is left
	// as-is.
	switch {
	case strings.Contains(token, ","):
		token = strings.ReplaceAll(token, ".", "")
		token = strings.Replace(token, ",", ".", 1)
	case thousandsDotPattern.MatchString(token):
		token = strings.ReplaceAll(token, ".", "")
	}

	amount, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, fmt.Errorf("bad amount %q: %w", token, err)
	}
	return amount, nil
}
