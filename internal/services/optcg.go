package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phuslu/log"
	"github.com/shopspring/decimal"

	"github.com/julianjca/op-portfolio-tracker/internal/metrics"
)

const (
	optcgSource         = "optcg"
	optcgBaseURL        = "https://optcgapi.com/api"
	optcgDefaultTimeout = 30 * time.Second
)

// CatalogClient fetches sets, starter decks and cards from the public OPTCG API.
// It never retries; callers decide what a failed fetch means for their batch.
type CatalogClient struct {
	client  *http.Client
	baseURL string
}

// CatalogOption configures a CatalogClient
type CatalogOption func(*CatalogClient)

// WithCatalogBaseURL points the client at another host (tests, mirrors)
func WithCatalogBaseURL(baseURL string) CatalogOption {
	return func(c *CatalogClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithCatalogTimeout sets the per-request timeout
func WithCatalogTimeout(timeout time.Duration) CatalogOption {
	return func(c *CatalogClient) {
		if timeout > 0 {
			c.client.Timeout = timeout
		}
	}
}

// NewCatalogClient creates a new OPTCG API client
func NewCatalogClient(opts ...CatalogOption) *CatalogClient {
	c := &CatalogClient{
		client:  &http.Client{Timeout: optcgDefaultTimeout},
		baseURL: optcgBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OPTCGSet is a booster set as listed by /allSets/
type OPTCGSet struct {
	SetName string `json:"set_name"`
	SetID   string `json:"set_id"`
}

// OPTCGDeck is a starter deck as listed by /allDecks/
type OPTCGDeck struct {
	DeckName string `json:"deck_name"`
	DeckID   string `json:"deck_id"`
}

// OPTCGCard is one card printing. Numeric fields arrive as numbers, numeric
// strings or the "NULL" sentinel depending on the endpoint.
type OPTCGCard struct {
	CardName      string         `json:"card_name"`
	SetID         string         `json:"set_id"`
	CardSetID     string         `json:"card_set_id"`
	CardImageID   string         `json:"card_image_id"` // carries _p1/_p2 suffix for parallel art
	CardImage     string         `json:"card_image"`
	CardText      string         `json:"card_text"`
	Rarity        string         `json:"rarity"`
	CardType      string         `json:"card_type"`
	CardColor     string         `json:"card_color"`
	CardCost      ExternalNumber `json:"card_cost"`
	CardPower     ExternalNumber `json:"card_power"`
	CounterAmount ExternalNumber `json:"counter_amount"`
	Attribute     string         `json:"attribute"`
	MarketPrice   ExternalNumber `json:"market_price"`
}

// FetchSets returns every booster set
func (c *CatalogClient) FetchSets(ctx context.Context) ([]OPTCGSet, error) {
	var sets []OPTCGSet
	if err := c.get(ctx, "/allSets/", &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

// FetchSetCards returns the cards of one booster set by code (e.g. "OP-01")
func (c *CatalogClient) FetchSetCards(ctx context.Context, setCode string) ([]OPTCGCard, error) {
	var cards []OPTCGCard
	if err := c.get(ctx, "/sets/"+url.PathEscape(setCode)+"/", &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// FetchStarterDecks returns every starter deck
func (c *CatalogClient) FetchStarterDecks(ctx context.Context) ([]OPTCGDeck, error) {
	var decks []OPTCGDeck
	if err := c.get(ctx, "/allDecks/", &decks); err != nil {
		return nil, err
	}
	return decks, nil
}

// FetchStarterDeckCards returns the cards of one starter deck by id (e.g. "ST-01")
func (c *CatalogClient) FetchStarterDeckCards(ctx context.Context, deckID string) ([]OPTCGCard, error) {
	var cards []OPTCGCard
	if err := c.get(ctx, "/decks/"+url.PathEscape(deckID)+"/", &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// FetchPromoCards returns every promo card
func (c *CatalogClient) FetchPromoCards(ctx context.Context) ([]OPTCGCard, error) {
	var cards []OPTCGCard
	if err := c.get(ctx, "/allPromoCards/", &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// FetchCardsFor picks the set or deck endpoint from the code prefix
func (c *CatalogClient) FetchCardsFor(ctx context.Context, code string) ([]OPTCGCard, error) {
	if IsStarterDeckCode(code) {
		return c.FetchStarterDeckCards(ctx, code)
	}
	return c.FetchSetCards(ctx, code)
}

// IsStarterDeckCode reports whether code names a starter deck ("ST-01")
func IsStarterDeckCode(code string) bool {
	return strings.HasPrefix(strings.ToUpper(code), "ST-")
}

func (c *CatalogClient) get(ctx context.Context, path string, out any) error {
	start := time.Now()
	defer func() {
		metrics.UpstreamLatency.WithLabelValues(optcgSource).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(optcgSource, "error").Inc()
		return &SourceUnavailableError{Source: optcgSource, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamRequestsTotal.WithLabelValues(optcgSource, "error").Inc()
		log.Warn().Str("path", path).Int("status", resp.StatusCode).Msg("OPTCG API returned non-2xx")
		return &SourceUnavailableError{Source: optcgSource, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(optcgSource, "error").Inc()
		return &SourceUnavailableError{Source: optcgSource, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(optcgSource, "ok").Inc()
	return nil
}

// CanonicalSet is a set or starter deck in storage shape
type CanonicalSet struct {
	Code        string  `validate:"required,max=32"`
	Name        string  `validate:"required"`
	ReleaseDate *string `validate:"omitempty,datetime=2006-01-02"`
	ImageURL    *string `validate:"omitempty,url"`
}

// CanonicalCard is a card printing in storage shape
type CanonicalCard struct {
	ExternalID  string `validate:"required,max=64"`
	CardNumber  string `validate:"required,max=64"`
	SetCode     string
	Name        string `validate:"required"`
	Rarity      *string
	CardType    *string
	Color       *string
	Cost        *int `validate:"omitempty,gte=0"`
	Power       *int `validate:"omitempty,gte=0"`
	Counter     *int `validate:"omitempty,gte=0"`
	Attribute   *string
	Effect      *string
	ImageURL    *string
	MarketPrice *decimal.Decimal
}

// Key identifies the card in error reports even when the external id is missing
func (c CanonicalCard) Key() string {
	if c.ExternalID != "" {
		return c.ExternalID
	}
	if c.CardNumber != "" {
		return c.CardNumber
	}
	return c.Name
}

// NormalizeSet maps a booster set and attaches known release metadata
func NormalizeSet(s OPTCGSet) CanonicalSet {
	return withSetMetadata(CanonicalSet{
		Code: strings.TrimSpace(s.SetID),
		Name: strings.TrimSpace(s.SetName),
	})
}

// NormalizeDeck maps a starter deck to a set
func NormalizeDeck(d OPTCGDeck) CanonicalSet {
	return withSetMetadata(CanonicalSet{
		Code: strings.TrimSpace(d.DeckID),
		Name: strings.TrimSpace(d.DeckName),
	})
}

// NormalizeCard maps provider field names to storage ones. Identity comes from
// the image id so parallel-art variants sharing a card number stay distinct.
func NormalizeCard(c OPTCGCard) CanonicalCard {
	card := CanonicalCard{
		ExternalID: strings.TrimSpace(c.CardImageID),
		CardNumber: strings.TrimSpace(c.CardSetID),
		SetCode:    strings.TrimSpace(c.SetID),
		Name:       strings.TrimSpace(c.CardName),
		Rarity:     optionalString(c.Rarity),
		CardType:   optionalString(c.CardType),
		Color:      optionalString(c.CardColor),
		Cost:       c.CardCost.IntPtr(),
		Power:      c.CardPower.IntPtr(),
		Counter:    c.CounterAmount.NonZero().IntPtr(),
		Attribute:  optionalString(c.Attribute),
		Effect:     optionalString(c.CardText),
		ImageURL:   optionalString(c.CardImage),
	}

	if price := c.MarketPrice.NonZero(); price.Valid && price.Value > 0 {
		d := decimal.NewFromFloat(price.Value).Round(2)
		card.MarketPrice = &d
	}

	if card.CardNumber == "" {
		// Some deck payloads omit card_set_id; the image id minus its variant suffix is the number
		card.CardNumber = baseCardNumber(card.ExternalID)
	}

	return card
}

// baseCardNumber strips a parallel-art suffix: "OP01-001_p1" -> "OP01-001"
func baseCardNumber(externalID string) string {
	if i := strings.Index(externalID, "_"); i > 0 {
		return externalID[:i]
	}
	return externalID
}
