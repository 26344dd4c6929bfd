package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractIdentifiers(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		shopID   string
		itemID   string
		hasError bool
	}{
		{
			name:   "Canonical product URL",
			url:    "https://shopee.com.br/Sapato-Masculino-Loafer-i.1167885424.22593522326",
			shopID: "1167885424",
			itemID: "22593522326",
		},
		{
			name:   "Bare identifier pair",
			url:    "https://shopee.com.br/product/i.123.456",
			shopID: "123",
			itemID: "456",
		},
		{
			name:   "Query parameters after the pair",
			url:    "https://shopee.com.br/Produto-i.99.100?sp_atk=abc",
			shopID: "99",
			itemID: "100",
		},
		{"Search page", "https://shopee.com.br/search?keyword=sapato", "", "", true},
		{"Not a marketplace URL", "https://example.com/foo", "", "", true},
		{"Empty", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := ExtractIdentifiers(tt.url)
			if tt.hasError {
				assert.ErrorIs(t, err, ErrMalformedURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.shopID, ids.ShopID)
			assert.Equal(t, tt.itemID, ids.ItemID)
		})
	}
}
