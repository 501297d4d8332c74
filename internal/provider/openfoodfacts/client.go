// Package openfoodfacts queries the Open Food Facts free-text search and
// normalizes candidate products to the fields the tracker needs. The raw
// wire format never leaves this package.
package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL  = "https://world.openfoodfacts.org"
	defaultPageSize = 10
	userAgent       = "caffeine-tracker/1.0 (+https://github.com/steadylab/caffeine-tracker)"
)

// Product is a normalized search candidate. CaffeinePer100ml and SizeMl are
// nil when the source data does not carry them.
type Product struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Brand            string `json:"brand"`
	Quantity         string `json:"quantity"`
	CaffeinePer100ml *int   `json:"caffeinePer100ml"`
	SizeMl           *int   `json:"sizeMl"`
}

// Client calls the Open Food Facts search endpoint. The zero value uses the
// public instance with a 12 second timeout.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	PageSize   int
}

var mlPattern = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*ml`)

// Search runs a free-text product search. A blank query returns no results
// without a network call.
func (c *Client) Search(ctx context.Context, query string) ([]Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Product{}, nil
	}

	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	pageSize := c.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	endpoint := fmt.Sprintf("%s/cgi/search.pl?search_terms=%s&search_simple=1&action=process&json=1&page_size=%d",
		base, url.QueryEscape(query), pageSize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("openfoodfacts: create search request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openfoodfacts: execute search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openfoodfacts: read search response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openfoodfacts: search failed with status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("openfoodfacts: decode search response: %w", err)
	}

	out := make([]Product, 0, len(parsed.Products))
	for i, p := range parsed.Products {
		out = append(out, normalize(p, i))
	}
	return out, nil
}

func normalize(p rawProduct, index int) Product {
	id := firstNonEmpty(p.ID, p.Code, strconv.Itoa(index))
	name := firstNonEmpty(strings.TrimSpace(p.ProductName), strings.TrimSpace(p.GenericName), "Unknown drink")
	quantity := firstNonEmpty(p.Quantity, p.ServingSize)

	sizeMl := parseMl(quantity)
	if sizeMl == nil {
		sizeMl = parseMl(p.ServingSize)
	}

	return Product{
		ID:               id,
		Name:             name,
		Brand:            strings.TrimSpace(p.Brands),
		Quantity:         quantity,
		CaffeinePer100ml: caffeinePer100ml(p.Nutriments),
		SizeMl:           sizeMl,
	}
}

// caffeinePer100ml prefers the explicit per-100g figure over the bare
// caffeine nutrient, rounding to whole milligrams.
func caffeinePer100ml(nutriments map[string]any) *int {
	for _, key := range []string{"caffeine_100g", "caffeine"} {
		if value, ok := parseFloatAny(nutriments[key]); ok {
			rounded := int(math.Round(value))
			return &rounded
		}
	}
	return nil
}

// parseMl extracts a millilitre volume from free text like "250 ml" or
// "0,33l Dose (330ml)".
func parseMl(value string) *int {
	if value == "" {
		return nil
	}
	match := mlPattern.FindStringSubmatch(strings.ToLower(value))
	if match == nil {
		return nil
	}
	parsed, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", "."), 64)
	if err != nil {
		return nil
	}
	rounded := int(math.Round(parsed))
	return &rounded
}

func parseFloatAny(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

type rawProduct struct {
	ID          string         `json:"_id"`
	Code        string         `json:"code"`
	ProductName string         `json:"product_name"`
	GenericName string         `json:"generic_name"`
	Brands      string         `json:"brands"`
	Quantity    string         `json:"quantity"`
	ServingSize string         `json:"serving_size"`
	Nutriments  map[string]any `json:"nutriments"`
}

type searchResponse struct {
	Products []rawProduct `json:"products"`
}
