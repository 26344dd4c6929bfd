package parser

import (
	"sort"
)

// DefaultDepthLimit bounds the recursive item search. Embedded page state
// documents nest deeply but product data has never been observed below this.
const DefaultDepthLimit = 15

// Keys that usually wrap the product object in embedded page state. They are
// descended into before any other key so the expected path wins over
// lookalike objects elsewhere in the document.
var containerKeys = []string{"item", "product", "data", "props", "pageProps"}

// Fields whose presence marks an object as item-shaped. The predicate is
// deliberately permissive: the source schema is undocumented and varies by
// endpoint version, so a name plus any two indicators is accepted. False
// positives are tolerated because the chain behind the finder fails closed.
var indicatorFields = []string{
	"itemid", "item_id", "shopid", "shop_id",
	"price_min", "price_max", "price",
	"sold", "stock", "rating",
	"images", "description",
}

// FindItem walks a decoded JSON document depth-first and returns the first
// object that looks like a product record. Recursion beyond depthLimit is
// treated as not found, never as an error.
func FindItem(doc any, depthLimit int) (map[string]any, bool) {
	if depthLimit < 0 {
		return nil, false
	}

	switch node := doc.(type) {
	case map[string]any:
		if LooksLikeItem(node) {
			return node, true
		}

		for _, key := range containerKeys {
			if child, ok := node[key]; ok {
				if found, ok := FindItem(child, depthLimit-1); ok {
					return found, true
				}
			}
		}

		// Remaining keys in sorted order so traversal is deterministic.
		keys := make([]string, 0, len(node))
		for key := range node {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			if isContainerKey(key) {
				continue
			}
			if found, ok := FindItem(node[key], depthLimit-1); ok {
				return found, true
			}
		}

	case []any:
		for _, child := range node {
			if found, ok := FindItem(child, depthLimit-1); ok {
				return found, true
			}
		}
	}

	return nil, false
}

// LooksLikeItem reports whether an object has a populated name field plus at
// least two of the product indicator fields.
func LooksLikeItem(obj map[string]any) bool {
	if !present(obj["name"]) {
		return false
	}

	indicators := 0
	for _, field := range indicatorFields {
		if present(obj[field]) {
			indicators++
			if indicators >= 2 {
				return true
			}
		}
	}

	return false
}

func isContainerKey(key string) bool {
	for _, k := range containerKeys {
		if k == key {
			return true
		}
	}
	return false
}

// present mirrors truthiness on decoded JSON values: nil, empty strings,
// zero numbers and empty collections all count as absent.
func present(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case float64:
		return val != 0
	case map[string]any:
		return len(val) > 0
	case []any:
		return len(val) > 0
	default:
		return true
	}
}
