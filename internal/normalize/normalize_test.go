package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafadias/shopee-scraper/internal/models"
)

func TestRecordFromAPIItem(t *testing.T) {
	raw := &models.RawProduct{
		Kind: models.KindOfficialAPI,
		Item: &models.ShopeeItem{
			Name:                "Sapato X",
			PriceMin:            18128000,
			PriceMax:            18990000,
			PriceBeforeDiscount: 29990000,
			Sold:                1247,
			Stock:               35,
			Description:         "Sapato masculino loafer",
			ItemRating: models.ItemRating{
				RatingStar:  4.6,
				RatingCount: []int{10, 20, 30, 400, 800},
			},
			Categories: []models.Category{
				{DisplayName: "Moda Masculina"},
				{DisplayName: "Calçados Masculinos"},
			},
			Images: []string{"img-a", "img-b"},
			Models: []models.ItemModel{
				{Name: "Preto 40", Price: 18128000, Stock: 12},
				{Name: "Marrom 42", Price: 18990000, Stock: 8},
			},
		},
	}

	rec, err := Record(raw, "1167885424", "22593522326", "https://shopee.com.br/x-i.1167885424.22593522326")
	require.NoError(t, err)

	assert.Equal(t, "Sapato X", rec.Name)
	assert.InDelta(t, 181.28, rec.PriceMin, 0.001)
	assert.InDelta(t, 189.90, rec.PriceMax, 0.001)
	assert.InDelta(t, 299.90, rec.PriceBeforeDiscount, 0.001)
	assert.InDelta(t, 181.28, rec.PriceCurrent, 0.001)
	assert.Equal(t, 4.6, rec.Rating)
	assert.Equal(t, 1260, rec.RatingCountTotal)
	assert.Equal(t, 1247, rec.SoldCount)
	assert.Equal(t, 35, rec.StockCount)
	assert.Equal(t, "Calçados Masculinos", rec.Category)
	assert.Equal(t, models.ProvenanceAuthoritative, rec.Provenance)
	assert.Equal(t, "1167885424", rec.ShopID)
	assert.Equal(t, "22593522326", rec.ItemID)

	require.Len(t, rec.Images, 2)
	assert.Equal(t, "img-a", rec.Images[0].SourceLocator)
	assert.True(t, rec.Images[0].IsAuthoritative)
	assert.Empty(t, rec.Images[0].LocalPath)

	require.Len(t, rec.Variations, 2)
	assert.Equal(t, "Preto 40", rec.Variations[0].Label)
	require.NotNil(t, rec.Variations[0].PriceOverride)
	assert.InDelta(t, 181.28, *rec.Variations[0].PriceOverride, 0.001)
	require.NotNil(t, rec.Variations[0].StockOverride)
	assert.Equal(t, 12, *rec.Variations[0].StockOverride)
}

func TestRecordPriceScaling(t *testing.T) {
	raw := &models.RawProduct{
		Kind: models.KindEmbeddedJSON,
		Item: &models.ShopeeItem{Name: "Produto", PriceMin: 18990000, Stock: 1, Sold: 1},
	}

	rec, err := Record(raw, "1", "2", "u")
	require.NoError(t, err)
	assert.InDelta(t, 189.90, rec.PriceMin, 0.0001)
}

func TestRecordFallsBackToPriceMax(t *testing.T) {
	raw := &models.RawProduct{
		Kind: models.KindOfficialAPI,
		Item: &models.ShopeeItem{Name: "Produto", PriceMax: 10000000},
	}

	rec, err := Record(raw, "1", "2", "u")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, rec.PriceMin, 0.0001)
	assert.InDelta(t, 100.0, rec.PriceCurrent, 0.0001)
}

func TestRecordFromPage(t *testing.T) {
	raw := &models.RawProduct{
		Kind: models.KindHTMLScrape,
		Page: &models.PageProduct{
			Name:              "Tablet Infantil Astronauta",
			PriceText:         "R$ 378,77",
			OriginalPriceText: "R$ 509,09",
			RatingText:        "4,8",
			ImageURLs:         []string{"https://cf.shopee.com.br/file/xyz"},
		},
	}

	rec, err := Record(raw, "9", "10", "u")
	require.NoError(t, err)

	assert.Equal(t, "Tablet Infantil Astronauta", rec.Name)
	assert.InDelta(t, 378.77, rec.PriceCurrent, 0.001)
	assert.InDelta(t, 509.09, rec.PriceBeforeDiscount, 0.001)
	assert.Equal(t, 4.8, rec.Rating)
	assert.Equal(t, 25, rec.DiscountPercent)
	require.Len(t, rec.Images, 1)
	assert.Equal(t, "https://cf.shopee.com.br/file/xyz", rec.Images[0].SourceLocator)
}

func TestRecordRejectsMissingPayload(t *testing.T) {
	_, err := Record(&models.RawProduct{Kind: models.KindOfficialAPI}, "1", "2", "u")
	assert.Error(t, err)

	_, err = Record(&models.RawProduct{Kind: "made_up"}, "1", "2", "u")
	assert.Error(t, err)
}

func TestDeriveDiscountPercent(t *testing.T) {
	tests := []struct {
		name     string
		before   float64
		current  float64
		expected int
	}{
		// 36.7% truncates to 36, never rounds up to 37.
		{"Truncates fraction", 300.00, 189.90, 36},
		{"Exact percent", 200.00, 100.00, 50},
		{"Just below next percent", 100.00, 63.01, 36},
		{"No discount", 100.00, 100.00, 0},
		{"Price increased", 100.00, 150.00, 0},
		{"Missing before price", 0, 189.90, 0},
		{"Missing current price", 300.00, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveDiscountPercent(tt.before, tt.current))
		})
	}
}

func TestClampRating(t *testing.T) {
	assert.Equal(t, 0.0, ClampRating(-1.2))
	assert.Equal(t, 4.6, ClampRating(4.6))
	assert.Equal(t, 5.0, ClampRating(9.9))
}

func TestParseBRL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
		hasError bool
	}{
		{"Plain price", "R$ 189,90", 189.90, false},
		{"Thousands separator", "R$ 1.299,90", 1299.90, false},
		{"Thousands without cents", "R$ 1.299", 1299, false},
		{"Millions without cents", "R$ 1.299.300", 1299300, false},
		{"No space", "R$189,90", 189.90, false},
		{"Dot decimal", "189.90", 189.90, false},
		{"Integer", "R$ 200", 200, false},
		{"No digits", "preço indisponível", 0, true},
		{"Empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseBRL(tt.input)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.InDelta(t, tt.expected, result, 0.0001)
			}
		})
	}
}
