package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const op01Payload = `[
	{"card_name": "Roronoa Zoro", "set_id": "OP-01", "card_set_id": "OP01-001", "card_image_id": "OP01-001",
	 "card_image": "https://img/OP01-001.png", "card_text": "[DON!! x1] Your Characters gain +1000 power.",
	 "rarity": "L", "card_type": "Leader", "card_color": "Red", "card_cost": "NULL", "card_power": "5000",
	 "counter_amount": 0, "attribute": "Slash", "market_price": 1.25},
	{"card_name": "Roronoa Zoro", "set_id": "OP-01", "card_set_id": "OP01-001", "card_image_id": "OP01-001_p1",
	 "card_image": "", "card_text": "", "rarity": "L", "card_type": "Leader", "card_color": "Red",
	 "card_cost": "", "card_power": 5000, "counter_amount": 1000, "attribute": "", "market_price": "NULL"}
]`

func newCatalogServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCatalogFetchSetCards(t *testing.T) {
	srv := newCatalogServer(t, map[string]string{"/sets/OP-01/": op01Payload})
	client := NewCatalogClient(WithCatalogBaseURL(srv.URL + "/"))

	cards, err := client.FetchSetCards(context.Background(), "OP-01")
	if err != nil {
		t.Fatalf("FetchSetCards failed: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}

	leader := NormalizeCard(cards[0])
	if leader.ExternalID != "OP01-001" || leader.CardNumber != "OP01-001" || leader.SetCode != "OP-01" {
		t.Errorf("unexpected identity: %+v", leader)
	}
	if leader.Cost != nil {
		t.Errorf("NULL cost should be nil, got %d", *leader.Cost)
	}
	if leader.Power == nil || *leader.Power != 5000 {
		t.Errorf("expected power 5000, got %v", leader.Power)
	}
	if leader.Counter != nil {
		t.Errorf("zero counter should be nil, got %d", *leader.Counter)
	}
	if leader.MarketPrice == nil || leader.MarketPrice.StringFixed(2) != "1.25" {
		t.Errorf("expected market price 1.25, got %v", leader.MarketPrice)
	}
	if leader.Rarity == nil || *leader.Rarity != "L" {
		t.Errorf("expected rarity L, got %v", leader.Rarity)
	}

	parallel := NormalizeCard(cards[1])
	if parallel.ExternalID != "OP01-001_p1" {
		t.Errorf("parallel art must keep its own identity, got %s", parallel.ExternalID)
	}
	if parallel.Cost != nil || parallel.MarketPrice != nil {
		t.Error("empty cost and NULL price must be absent")
	}
	if parallel.Counter == nil || *parallel.Counter != 1000 {
		t.Errorf("expected counter 1000, got %v", parallel.Counter)
	}
	if parallel.ImageURL != nil || parallel.Effect != nil || parallel.Attribute != nil {
		t.Error("empty strings should normalize to nil")
	}
}

func TestCatalogSourceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewCatalogClient(WithCatalogBaseURL(srv.URL))
	_, err := client.FetchSets(context.Background())

	var unavailable *SourceUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected SourceUnavailableError, got %v", err)
	}
	if unavailable.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", unavailable.StatusCode)
	}
}

func TestCatalogNonJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()

	client := NewCatalogClient(WithCatalogBaseURL(srv.URL))
	_, err := client.FetchPromoCards(context.Background())

	var unavailable *SourceUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected SourceUnavailableError, got %v", err)
	}
}

func TestFetchCardsForStarterDeck(t *testing.T) {
	srv := newCatalogServer(t, map[string]string{
		"/decks/ST-01/": `[{"card_name": "Monkey.D.Luffy", "set_id": "ST-01", "card_set_id": "ST01-001", "card_image_id": "ST01-001"}]`,
	})
	client := NewCatalogClient(WithCatalogBaseURL(srv.URL))

	cards, err := client.FetchCardsFor(context.Background(), "ST-01")
	if err != nil {
		t.Fatalf("FetchCardsFor failed: %v", err)
	}
	if len(cards) != 1 || cards[0].CardImageID != "ST01-001" {
		t.Errorf("unexpected cards: %+v", cards)
	}
}

func TestNormalizeSetMetadata(t *testing.T) {
	set := NormalizeSet(OPTCGSet{SetName: "Romance Dawn", SetID: "OP-01"})
	if set.ReleaseDate == nil || *set.ReleaseDate != "2022-12-02" {
		t.Errorf("expected OP-01 release date, got %v", set.ReleaseDate)
	}
	if set.ImageURL == nil {
		t.Error("expected OP-01 image")
	}

	unannounced := NormalizeSet(OPTCGSet{SetName: "Future", SetID: "OP-13"})
	if unannounced.ReleaseDate != nil {
		t.Errorf("unannounced set should have nil release date, got %s", *unannounced.ReleaseDate)
	}

	deck := NormalizeDeck(OPTCGDeck{DeckName: "Straw Hat Crew", DeckID: "ST-01"})
	if deck.Code != "ST-01" || deck.Name != "Straw Hat Crew" || deck.ReleaseDate == nil {
		t.Errorf("unexpected deck: %+v", deck)
	}

	unknown := NormalizeSet(OPTCGSet{SetName: "Mystery", SetID: "XX-99"})
	if unknown.ReleaseDate != nil || unknown.ImageURL != nil {
		t.Error("unknown set should carry no metadata")
	}
}

func TestBaseCardNumber(t *testing.T) {
	tests := map[string]string{
		"OP01-001_p1": "OP01-001",
		"OP01-001":    "OP01-001",
		"":            "",
	}
	for in, want := range tests {
		if got := baseCardNumber(in); got != want {
			t.Errorf("baseCardNumber(%q) = %q, want %q", in, got, want)
		}
	}
}
