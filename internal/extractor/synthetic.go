package extractor

import (
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rafadias/shopee-scraper/internal/models"
	"github.com/rafadias/shopee-scraper/internal/normalize"
)

// SyntheticGenerator derives a plausible-looking record from the URL text
// alone. Its output is always flagged provenance=synthetic; the chain only
// reaches it after every real strategy has failed.
type SyntheticGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSyntheticGenerator() *SyntheticGenerator {
	return &SyntheticGenerator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type categoryProfile struct {
	name        string
	keywords    []string
	priceMin    float64
	priceMax    float64
	imageURLs   []string
	colorLabels []string
	sizeLabels  []string
}

var categoryProfiles = []categoryProfile{
	{
		name:     "Calçados",
		keywords: []string{"sapato", "calçado", "calcado", "tênis", "tenis", "sandália", "sandalia", "bota", "loafer"},
		priceMin: 80, priceMax: 300,
		imageURLs: []string{
			"https://images.unsplash.com/photo-1549298916-b41d501d3772?w=600&h=600&fit=crop",
			"https://images.unsplash.com/photo-1560769629-975ec94e6a86?w=600&h=600&fit=crop",
			"https://images.unsplash.com/photo-1582897085656-c636d006a246?w=600&h=600&fit=crop",
		},
		colorLabels: []string{"Preto", "Marrom", "Branco"},
		sizeLabels:  []string{"39", "40", "41", "42", "43", "44"},
	},
	{
		name:     "Tablets",
		keywords: []string{"tablet", "ipad"},
		priceMin: 200, priceMax: 800,
		imageURLs: []string{
			"https://images.unsplash.com/photo-1544244015-0df4b3ffc6b0?w=600&h=600&fit=crop",
			"https://images.unsplash.com/photo-1606741965326-cb61820f6482?w=600&h=600&fit=crop",
		},
		colorLabels: []string{"Preto", "Branco", "Azul"},
	},
	{
		name:     "Roupas",
		keywords: []string{"roupa", "camisa", "camiseta", "blusa", "vestido"},
		priceMin: 30, priceMax: 150,
		imageURLs: []string{
			"https://images.unsplash.com/photo-1523381210434-271e8be1f52b?w=600&h=600&fit=crop",
			"https://images.unsplash.com/photo-1571945153237-4929e783af4a?w=600&h=600&fit=crop",
		},
		colorLabels: []string{"Preto", "Branco", "Azul", "Vermelho"},
		sizeLabels:  []string{"P", "M", "G", "GG"},
	},
}

var genericProfile = categoryProfile{
	name:     "Produtos Gerais",
	priceMin: 50, priceMax: 200,
	imageURLs: []string{
		"https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=600&h=600&fit=crop",
		"https://images.unsplash.com/photo-1542291026-7eec264c27ff?w=600&h=600&fit=crop",
	},
}

// Generate builds a synthetic record for a URL whose real data could not be
// extracted. The name comes from the URL slug; everything else is plausible
// filler inferred from it.
func (g *SyntheticGenerator) Generate(rawURL string, ids Identifiers) *models.ProductRecord {
	name := SlugToName(ExtractSlug(rawURL))
	if name == "" {
		name = "Produto Shopee"
	}

	profile := inferProfile(name)

	g.mu.Lock()
	current := profile.priceMin + g.rng.Float64()*(profile.priceMax-profile.priceMin)
	before := current * (1.2 + g.rng.Float64()*0.2)
	rating := 4.2 + g.rng.Float64()*0.7
	reviews := 150 + g.rng.Intn(2351)
	g.mu.Unlock()

	current = roundCents(current)
	before = roundCents(before)

	rec := &models.ProductRecord{
		ShopID:              ids.ShopID,
		ItemID:              ids.ItemID,
		URL:                 rawURL,
		Name:                name,
		PriceCurrent:        current,
		PriceMin:            current,
		PriceMax:            current,
		PriceBeforeDiscount: before,
		DiscountPercent:     normalize.DeriveDiscountPercent(before, current),
		Rating:              float64(int(rating*10)) / 10,
		RatingCountTotal:    reviews,
		Description:         fmt.Sprintf("%s. Produto de alta qualidade disponível na Shopee com excelente custo-benefício.", name),
		Category:            profile.name,
		Provenance:          models.ProvenanceSynthetic,
		ExtractedAt:         time.Now(),
	}

	for _, imageURL := range profile.imageURLs {
		rec.Images = append(rec.Images, models.ImageRef{
			SourceLocator:   imageURL,
			ResolvedURL:     imageURL,
			IsAuthoritative: false,
		})
	}

	for _, label := range profile.colorLabels {
		rec.Variations = append(rec.Variations, models.VariationOption{Label: label})
	}
	for _, label := range profile.sizeLabels {
		rec.Variations = append(rec.Variations, models.VariationOption{Label: label})
	}

	return rec
}

// ExtractSlug pulls the product slug out of a URL like
// ".../Produto-Exemplo-i.123.456": the path segment before the "-i." marker.
func ExtractSlug(rawURL string) string {
	for _, part := range strings.Split(rawURL, "/") {
		if idx := strings.Index(part, "-i."); idx > 0 {
			return part[:idx]
		}
	}
	return ""
}

// SlugToName converts a URL slug into a readable product name: words longer
// than two characters are capitalized, the rest upper-cased.
func SlugToName(slug string) string {
	if slug == "" {
		return ""
	}

	decoded, err := url.PathUnescape(slug)
	if err != nil {
		decoded = slug
	}

	words := strings.Fields(strings.ReplaceAll(decoded, "-", " "))
	for i, word := range words {
		if len([]rune(word)) > 2 {
			runes := []rune(strings.ToLower(word))
			runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
			words[i] = string(runes)
		} else {
			words[i] = strings.ToUpper(word)
		}
	}

	return strings.Join(words, " ")
}

func inferProfile(name string) categoryProfile {
	lower := strings.ToLower(name)
	for _, profile := range categoryProfiles {
		for _, keyword := range profile.keywords {
			if strings.Contains(lower, keyword) {
				return profile
			}
		}
	}
	return genericProfile
}

func roundCents(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
