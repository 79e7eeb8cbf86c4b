package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/phuslu/log"
	"github.com/shopspring/decimal"

	"github.com/julianjca/op-portfolio-tracker/internal/metrics"
)

const (
	priceChartingSource         = "pricecharting"
	priceChartingBaseURL        = "https://www.pricecharting.com/api"
	priceChartingDefaultTimeout = 15 * time.Second
	priceChartingCategory       = "one piece"
	defaultSearchCacheSize      = 512
)

// PriceChartingClient looks up graded slab prices. Every failure is soft: it is
// logged and reported as "no result" so a loop over many cards keeps going.
// Callers are responsible for spacing calls (see Throttle).
type PriceChartingClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	cache   *lru.Cache[string, Product]
}

// PriceChartingOption configures a PriceChartingClient
type PriceChartingOption func(*PriceChartingClient)

func WithPriceChartingBaseURL(baseURL string) PriceChartingOption {
	return func(c *PriceChartingClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithPriceChartingTimeout(timeout time.Duration) PriceChartingOption {
	return func(c *PriceChartingClient) {
		if timeout > 0 {
			c.client.Timeout = timeout
		}
	}
}

// WithSearchCacheSize bounds the number of remembered product matches
func WithSearchCacheSize(size int) PriceChartingOption {
	return func(c *PriceChartingClient) {
		if size <= 0 {
			c.cache = nil
			return
		}
		c.cache, _ = lru.New[string, Product](size)
	}
}

// NewPriceChartingClient creates a client. An empty key is allowed; jobs check Configured.
func NewPriceChartingClient(apiKey string, opts ...PriceChartingOption) *PriceChartingClient {
	cache, _ := lru.New[string, Product](defaultSearchCacheSize)
	c := &PriceChartingClient{
		client:  &http.Client{Timeout: priceChartingDefaultTimeout},
		baseURL: priceChartingBaseURL,
		apiKey:  strings.TrimSpace(apiKey),
		cache:   cache,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API key is present
func (c *PriceChartingClient) Configured() bool {
	return c != nil && c.apiKey != ""
}

// Product is a search hit
type Product struct {
	ID          productID `json:"id"`
	ProductName string    `json:"product-name"`
	ConsoleName string    `json:"console-name"`
}

// productID accepts the id as either a JSON string or number
type productID string

func (p *productID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = productID(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	*p = productID(data)
	return nil
}

// GradedPrices holds the graded price fields of a product in currency units.
// A nil field means the source had no price for it.
type GradedPrices struct {
	PSA10  *decimal.Decimal
	BGS10  *decimal.Decimal
	Graded *decimal.Decimal
}

type searchResponse struct {
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error-message"`
	Products     []Product `json:"products"`
}

type productResponse struct {
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error-message"`
	PSA10Price   ExternalNumber `json:"psa-10-price"`
	BGS10Price   ExternalNumber `json:"bgs-10-price"`
	GradedPrice  ExternalNumber `json:"graded-price"`
}

// SearchQuery is the free-text query used for a card
func SearchQuery(name, number string) string {
	return strings.Join(strings.Fields("One Piece "+number+" "+name), " ")
}

// SearchProduct returns the first One Piece product for the card, or nil
func (c *PriceChartingClient) SearchProduct(ctx context.Context, name, number string) *Product {
	query := SearchQuery(name, number)

	if c.cache != nil {
		if p, ok := c.cache.Get(query); ok {
			metrics.PriceSearchCacheHits.Inc()
			return &p
		}
		metrics.PriceSearchCacheMisses.Inc()
	}

	params := url.Values{}
	params.Set("t", c.apiKey)
	params.Set("q", query)

	var resp searchResponse
	if !c.get(ctx, "/products", params, &resp) {
		return nil
	}
	if resp.Status == "error" {
		metrics.UpstreamRequestsTotal.WithLabelValues(priceChartingSource, "error").Inc()
		log.Warn().Str("query", query).Str("error", resp.ErrorMessage).Msg("PriceCharting search rejected")
		return nil
	}

	match := firstCategoryMatch(resp.Products, priceChartingCategory)
	if match == nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(priceChartingSource, "no_match").Inc()
		return nil
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(priceChartingSource, "ok").Inc()
	if c.cache != nil {
		c.cache.Add(query, *match)
	}
	return match
}

// firstCategoryMatch returns the first product whose console name contains category,
// ignoring case. Results keep the source's ranking; nothing is re-scored.
func firstCategoryMatch(products []Product, category string) *Product {
	category = strings.ToLower(category)
	for i := range products {
		if strings.Contains(strings.ToLower(products[i].ConsoleName), category) {
			p := products[i]
			return &p
		}
	}
	return nil
}

// GetProductPrices fetches graded prices for a product, or nil on any failure
func (c *PriceChartingClient) GetProductPrices(ctx context.Context, id string) *GradedPrices {
	params := url.Values{}
	params.Set("t", c.apiKey)
	params.Set("id", id)

	var resp productResponse
	if !c.get(ctx, "/product", params, &resp) {
		return nil
	}
	if resp.Status == "error" {
		metrics.UpstreamRequestsTotal.WithLabelValues(priceChartingSource, "error").Inc()
		log.Warn().Str("product_id", id).Str("error", resp.ErrorMessage).Msg("PriceCharting product rejected")
		return nil
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(priceChartingSource, "ok").Inc()
	return &GradedPrices{
		PSA10:  centsToCurrency(resp.PSA10Price),
		BGS10:  centsToCurrency(resp.BGS10Price),
		Graded: centsToCurrency(resp.GradedPrice),
	}
}

// centsToCurrency converts minor units to currency. Zero and absent stay absent.
func centsToCurrency(n ExternalNumber) *decimal.Decimal {
	n = n.NonZero()
	if !n.Valid || n.Value < 0 {
		return nil
	}
	d := decimal.NewFromFloat(n.Value).Div(decimal.NewFromInt(100)).Round(2)
	return &d
}

// get performs the request and decodes the body. It returns false after logging
// on transport, status or decode failures.
func (c *PriceChartingClient) get(ctx context.Context, path string, params url.Values, out any) bool {
	start := time.Now()
	defer func() {
		metrics.UpstreamLatency.WithLabelValues(priceChartingSource).Observe(time.Since(start).Seconds())
	}()

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("PriceCharting request not built")
		return false
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(priceChartingSource, "error").Inc()
		log.Warn().Err(err).Str("path", path).Msg("PriceCharting fetch failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamRequestsTotal.WithLabelValues(priceChartingSource, "error").Inc()
		log.Warn().Str("path", path).Int("status", resp.StatusCode).Msg("PriceCharting API error")
		return false
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(priceChartingSource, "error").Inc()
		log.Warn().Err(err).Str("path", path).Msg("PriceCharting response not decoded")
		return false
	}
	return true
}
