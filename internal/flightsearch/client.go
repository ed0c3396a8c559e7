package flightsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultBaseURL = "https://api.tequila.kiwi.com/v2/search"
	httpTimeout    = 10 * time.Second
	resultLimit    = 10
)

// Query describes one route search against the external API. Dates are
// calendar-date strings in YYYY-MM-DD format.
type Query struct {
	FlyFrom  string
	FlyTo    string
	DateFrom string
	DateTo   string
	Adults   int
	Currency string
}

// Itinerary is a single priced flight candidate returned by the search API.
type Itinerary struct {
	FlyFrom        string
	FlyTo          string
	LocalDeparture time.Time
	LocalArrival   time.Time
	Price          float64
	Airline        string
	DeepLink       string
}

// Client wraps the Tequila-style flight-search HTTP API. The API key is sent
// in the apikey header on every request.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient constructs a Client against the production search endpoint.
func NewClient(apiKey string) *Client {
	return NewClientWithURL(defaultBaseURL, apiKey)
}

// NewClientWithURL constructs a Client pointing at a custom base URL (for tests).
func NewClientWithURL(baseURL, apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

type searchResponse struct {
	Data []struct {
		FlyFrom        string   `json:"flyFrom"`
		FlyTo          string   `json:"flyTo"`
		LocalDeparture string   `json:"local_departure"`
		LocalArrival   string   `json:"local_arrival"`
		Price          float64  `json:"price"`
		Airlines       []string `json:"airlines"`
		DeepLink       string   `json:"deep_link"`
	} `json:"data"`
}

// Search retrieves itineraries for one route within the query's date window.
// Network failures, non-200 responses, and malformed payloads all surface as
// an error for this route only; the caller decides how to aggregate.
func (c *Client) Search(ctx context.Context, q Query) ([]Itinerary, error) {
	params := url.Values{}
	params.Set("fly_from", q.FlyFrom)
	params.Set("fly_to", q.FlyTo)
	params.Set("date_from", q.DateFrom)
	params.Set("date_to", q.DateTo)
	params.Set("adults", strconv.Itoa(q.Adults))
	params.Set("curr", q.Currency)
	params.Set("limit", strconv.Itoa(resultLimit))

	endpoint := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s-%s: %w", q.FlyFrom, q.FlyTo, err)
	}
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searching flights %s-%s: %w", q.FlyFrom, q.FlyTo, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("searching flights %s-%s: status %d", q.FlyFrom, q.FlyTo, resp.StatusCode)
	}

	var raw searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding search response for %s-%s: %w", q.FlyFrom, q.FlyTo, err)
	}

	itineraries := make([]Itinerary, 0, len(raw.Data))
	for _, d := range raw.Data {
		departure, err := time.Parse(time.RFC3339, d.LocalDeparture)
		if err != nil {
			return nil, fmt.Errorf("parsing departure time %q for %s-%s: %w", d.LocalDeparture, q.FlyFrom, q.FlyTo, err)
		}
		arrival, err := time.Parse(time.RFC3339, d.LocalArrival)
		if err != nil {
			return nil, fmt.Errorf("parsing arrival time %q for %s-%s: %w", d.LocalArrival, q.FlyFrom, q.FlyTo, err)
		}

		airline := "Unknown"
		if len(d.Airlines) > 0 {
			airline = d.Airlines[0]
		}

		itineraries = append(itineraries, Itinerary{
			FlyFrom:        d.FlyFrom,
			FlyTo:          d.FlyTo,
			LocalDeparture: departure,
			LocalArrival:   arrival,
			Price:          d.Price,
			Airline:        airline,
			DeepLink:       d.DeepLink,
		})
	}

	return itineraries, nil
}
