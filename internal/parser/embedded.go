package parser

import (
	"regexp"
)

// Textual markers for JSON state blobs embedded in rendered Shopee pages.
// Ordered by how often each marker carried product data; the first pattern
// that parses and contains an item-shaped object wins.
var blobPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)window\.__INITIAL_STATE__\s*=\s*(\{.+?\});`),
	regexp.MustCompile(`(?s)window\.__APOLLO_STATE__\s*=\s*(\{.+?\});`),
	regexp.MustCompile(`(?s)window\.__APP_CONTEXT__\s*=\s*(\{.+?\});`),
	regexp.MustCompile(`(?s)<script[^>]*id="__NEXT_DATA__"[^>]*>(\{.+?\})</script>`),
	regexp.MustCompile(`(?s)<script[^>]*type="application/(?:ld\+)?json"[^>]*>(\{.+?\})</script>`),
}

// ExtractJSONBlobs returns every embedded JSON candidate found in the page
// body, deduplicated, in marker priority order. Candidates are raw text;
// callers decide whether each one actually parses.
func ExtractJSONBlobs(html string) []string {
	var blobs []string
	seen := make(map[string]bool)
	for _, pattern := range blobPatterns {
		for _, match := range pattern.FindAllStringSubmatch(html, -1) {
			if !seen[match[1]] {
				seen[match[1]] = true
				blobs = append(blobs, match[1])
			}
		}
	}
	return blobs
}
