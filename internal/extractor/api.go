package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/rafadias/shopee-scraper/internal/httpclient"
	"github.com/rafadias/shopee-scraper/internal/models"
)

const defaultAPIBaseURL = "https://shopee.com.br"

// apiEndpoint is one known internal endpoint. Older endpoint versions are
// kept as fallbacks because item coverage differs between them.
type apiEndpoint struct {
	path    string
	params  map[string]string
	headers map[string]string
}

var itemEndpoints = []apiEndpoint{
	{
		path: "/api/v4/item/get",
		headers: map[string]string{
			"X-API-Source":     "pc",
			"X-Requested-With": "XMLHttpRequest",
		},
	},
	{
		path:   "/api/v2/item/get",
		params: map[string]string{"need_promotion": "true"},
		headers: map[string]string{
			"X-Shopee-Language": "pt-BR",
		},
	},
}

// APIStrategy queries the marketplace's internal item endpoints directly.
// Cheapest and most precise strategy, so it runs first.
type APIStrategy struct {
	client  *httpclient.Client
	logger  *slog.Logger
	BaseURL string
}

func NewAPIStrategy(client *httpclient.Client, logger *slog.Logger) *APIStrategy {
	return &APIStrategy{
		client:  client,
		logger:  logger.With("strategy", "official_api"),
		BaseURL: defaultAPIBaseURL,
	}
}

func (s *APIStrategy) Name() string { return string(models.KindOfficialAPI) }

func (s *APIStrategy) Attempt(ctx context.Context, ids Identifiers, productURL string) (*models.RawProduct, error) {
	for _, endpoint := range itemEndpoints {
		item, err := s.fetchItem(ctx, endpoint, ids, productURL)
		if err != nil {
			s.logger.Debug("endpoint failed", "path", endpoint.path, "error", err)
			continue
		}
		if item.Name == "" {
			continue
		}
		return &models.RawProduct{Kind: models.KindOfficialAPI, Item: item}, nil
	}

	return nil, fmt.Errorf("no item endpoint answered for item %s: %w", ids.ItemID, ErrNotFound)
}

func (s *APIStrategy) fetchItem(ctx context.Context, endpoint apiEndpoint, ids Identifiers, productURL string) (*models.ShopeeItem, error) {
	params := url.Values{}
	params.Set("itemid", ids.ItemID)
	params.Set("shopid", ids.ShopID)
	for key, value := range endpoint.params {
		params.Set(key, value)
	}

	headers := map[string]string{"Referer": productURL}
	for key, value := range endpoint.headers {
		headers[key] = value
	}

	resp, err := s.client.Get(ctx, s.BaseURL+endpoint.path, params, headers)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	// Endpoint versions disagree on where the item sits in the envelope.
	var envelope struct {
		Error *int            `json:"error"`
		Item  json.RawMessage `json:"item"`
		Data  struct {
			Item json.RawMessage `json:"item"`
		} `json:"data"`
	}
	if err := resp.JSON(&envelope); err != nil {
		return nil, err
	}
	if envelope.Error != nil && *envelope.Error != 0 {
		return nil, fmt.Errorf("API error code %d", *envelope.Error)
	}

	rawItem := envelope.Item
	if len(rawItem) == 0 || string(rawItem) == "null" {
		rawItem = envelope.Data.Item
	}
	if len(rawItem) == 0 || string(rawItem) == "null" {
		return nil, fmt.Errorf("response has no item object")
	}

	var item models.ShopeeItem
	if err := json.Unmarshal(rawItem, &item); err != nil {
		return nil, fmt.Errorf("failed to decode item: %w", err)
	}

	return &item, nil
}
