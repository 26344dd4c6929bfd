package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rafadias/shopee-scraper/internal/models"
)

// Selector priority lists shared by the static HTML scraper and the browser
// automation strategy. Both iterate in declared order and take the first
// candidate that passes the sanity filter; candidates are never merged.
var (
	NameSelectors = []string{
		"h1",
		`[data-testid*="title"]`,
		".product-name",
		`[class*="product-title"]`,
		`[class*="item-name"]`,
	}

	PriceSelectors = []string{
		`[class*="price"]`,
		`[data-testid*="price"]`,
		`[class*="amount"]`,
	}

	DescriptionSelectors = []string{
		`[class*="description"]`,
		`[data-testid*="description"]`,
		".product-detail",
	}
)

var (
	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)"name"\s*:\s*"([^"]+)"`),
		regexp.MustCompile(`(?is)<h1[^>]*>([^<]+)</h1>`),
		regexp.MustCompile(`(?is)<title>([^|<]+)`),
	}

	priceTextPattern = regexp.MustCompile(`R\$\s*[\d.,]+`)

	imageURLPattern = regexp.MustCompile(`https?://[^\s"']*(?:susercontent\.com|cf\.shopee)[^\s"']*`)
)

// PlausibleName filters out login walls, error pages and the marketplace's
// own branding masquerading as a product title.
func PlausibleName(name string) bool {
	name = strings.TrimSpace(name)
	if len(name) <= 5 {
		return false
	}
	lower := strings.ToLower(name)
	for _, bad := range []string{"shopee", "login", "entrar", "erro", "captcha"} {
		if strings.Contains(lower, bad) {
			return false
		}
	}
	return true
}

// PlausiblePriceText requires the currency marker so stray numbers on the
// page are not mistaken for prices.
func PlausiblePriceText(text string) bool {
	return priceTextPattern.MatchString(text)
}

// FirstPrice extracts the first well-formed price token from display text.
func FirstPrice(text string) string {
	return priceTextPattern.FindString(text)
}

// PageParser extracts product fields from static Shopee page HTML using the
// shared selector priority lists, with regex fallbacks for markup the
// selectors miss.
type PageParser struct{}

func NewPageParser() *PageParser {
	return &PageParser{}
}

// ParseProductPage scrapes name, prices, description and image URLs out of a
// rendered page body. It fails only when no name-bearing rule matches;
// every other field is best-effort.
func (p *PageParser) ParseProductPage(html string) (*models.PageProduct, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	name := p.extractName(doc, html)
	if name == "" {
		return nil, fmt.Errorf("no product name found in page")
	}

	product := &models.PageProduct{
		Name:        name,
		Description: p.extractDescription(doc),
		ImageURLs:   p.extractImageURLs(doc, html),
	}

	prices := p.extractPriceTexts(doc)
	if len(prices) > 0 {
		product.PriceText = prices[0]
	}
	if len(prices) > 1 {
		product.OriginalPriceText = prices[1]
	}

	return product, nil
}

func (p *PageParser) extractName(doc *goquery.Document, html string) string {
	for _, selector := range NameSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if PlausibleName(text) {
			return text
		}
	}

	for _, pattern := range namePatterns {
		if matches := pattern.FindStringSubmatch(html); len(matches) > 1 {
			candidate := strings.TrimSpace(matches[1])
			if PlausibleName(candidate) {
				return candidate
			}
		}
	}

	return ""
}

// extractPriceTexts collects distinct price tokens in selector priority
// order. The first is the current price, the second (when present) the
// pre-discount price, matching how the page lays them out.
func (p *PageParser) extractPriceTexts(doc *goquery.Document) []string {
	var prices []string
	seen := make(map[string]bool)

	for _, selector := range PriceSelectors {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if !PlausiblePriceText(text) {
				return
			}
			price := FirstPrice(text)
			if price != "" && !seen[price] {
				seen[price] = true
				prices = append(prices, price)
			}
		})
	}

	return prices
}

func (p *PageParser) extractDescription(doc *goquery.Document) string {
	for _, selector := range DescriptionSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if len(text) > 20 {
			return text
		}
	}
	return ""
}

func (p *PageParser) extractImageURLs(doc *goquery.Document, html string) []string {
	var urls []string
	seen := make(map[string]bool)

	add := func(url string) {
		if url != "" && !seen[url] {
			seen[url] = true
			urls = append(urls, url)
		}
	}

	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok || src == "" {
			src, _ = sel.Attr("data-src")
		}
		if imageURLPattern.MatchString(src) {
			add(src)
		}
	})

	// CDN URLs referenced outside img tags (preload hints, inline JSON).
	for _, url := range imageURLPattern.FindAllString(html, -1) {
		if len(urls) >= 8 {
			break
		}
		add(url)
	}

	return urls
}
