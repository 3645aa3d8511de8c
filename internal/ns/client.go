package ns

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ns-bridge/internal/config"

	"go.uber.org/zap"
)

const (
	stationsEndpoint   = "/nsapp-stations/v2"
	tripsEndpoint      = "/reisinformatie-api/api/v3/trips"
	departuresEndpoint = "/reisinformatie-api/api/v2/departures"

	// Upstream error bodies can be large; keep messages readable.
	maxErrorBodyBytes = 512
)

// API is the NS API surface the tool and resource handlers depend on.
type API interface {
	SearchStations(ctx context.Context, params StationSearchParams) ([]Station, error)
	SearchTrips(ctx context.Context, params TripSearchParams) (*TripSearchResponse, error)
	GetDepartures(ctx context.Context, params DeparturesParams) (*DeparturesResponse, error)
}

// StationSearchParams are the station search inputs.
type StationSearchParams struct {
	Query        string
	CountryCodes []string
	Limit        int
}

// TripSearchParams are the trip planner inputs. Either the station code or
// the UIC code must be set for both ends; codes are passed through to the
// upstream planner, which owns their validation.
type TripSearchParams struct {
	Origin           string
	Destination      string
	OriginUIC        string
	DestinationUIC   string
	DateTime         time.Time
	SearchForArrival bool
	Via              string
	TravelClass      TravelClass
	Discount         DiscountType
}

// DeparturesParams are the departure board inputs.
type DeparturesParams struct {
	Station     string
	UICCode     string
	MaxJourneys int
	DateTime    time.Time
}

// Client talks to the NS API. The embedded http.Client pools connections
// and is safe for concurrent use; Client itself holds no mutable state.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	log        *zap.SugaredLogger
}

// NewClient creates an NS API client from the application configuration.
func NewClient(cfg *config.Config, log *zap.SugaredLogger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.API.Timeout},
		baseURL:    strings.TrimRight(cfg.API.BaseURL, "/"),
		apiKey:     cfg.API.Key,
		log:        log,
	}
}

// get performs a single GET against an NS endpoint and decodes the JSON
// body into out. One best-effort attempt per call; retry policy, if any,
// belongs to the caller.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	c.log.Debugw("NS API request", "endpoint", endpoint, "params", params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &APIError{Message: err.Error()}
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warnw("NS API request error", "endpoint", endpoint, "error", err)
		return &APIError{Message: err.Error()}
	}
	defer resp.Body.Close()

	c.log.Debugw("NS API response", "endpoint", endpoint, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode NS API response: %w", err)
	}

	return nil
}

// SearchStations searches stations by name or country. An empty query with
// no country filter lists all known stations, which is allowed but
// expensive upstream. Empty results are not an error.
func (c *Client) SearchStations(ctx context.Context, params StationSearchParams) ([]Station, error) {
	values := url.Values{}

	if params.Query != "" {
		if len([]rune(params.Query)) < MinQueryLength {
			return nil, ErrQueryTooShort
		}
		values.Set("q", params.Query)
	}

	if len(params.CountryCodes) > 0 {
		values.Set("countryCodes", strings.Join(params.CountryCodes, ","))
	}

	if params.Limit > 0 {
		values.Set("limit", strconv.Itoa(params.Limit))
	}

	var envelope stationsEnvelope
	if err := c.get(ctx, stationsEndpoint, values, &envelope); err != nil {
		return nil, err
	}

	// Stations the upstream ships incomplete are skipped, not fatal.
	stations := make([]Station, 0, len(envelope.Payload))
	for _, station := range envelope.Payload {
		if err := station.Validate(); err != nil {
			c.log.Warnw("skipping malformed station", "error", err)
			continue
		}
		stations = append(stations, station)
	}

	return stations, nil
}

// SearchTrips plans journeys between two stations. Trip options come back
// in the upstream planner's order, which this client does not re-rank.
func (c *Client) SearchTrips(ctx context.Context, params TripSearchParams) (*TripSearchResponse, error) {
	if params.Origin == "" && params.OriginUIC == "" {
		return nil, ErrMissingOrigin
	}
	if params.Destination == "" && params.DestinationUIC == "" {
		return nil, ErrMissingDestination
	}

	values := url.Values{}

	travelClass := params.TravelClass
	if travelClass == "" {
		travelClass = TravelClassSecond
	}
	values.Set("travelClass", strconv.Itoa(travelClass.Int()))

	// The upstream default is NO_DISCOUNT; only send a deviation.
	if params.Discount != "" && params.Discount != DiscountNone {
		values.Set("discount", string(params.Discount))
	}

	if params.Origin != "" {
		values.Set("fromStation", params.Origin)
	} else {
		values.Set("originUicCode", params.OriginUIC)
	}

	if params.Destination != "" {
		values.Set("toStation", params.Destination)
	} else {
		values.Set("destinationUicCode", params.DestinationUIC)
	}

	if !params.DateTime.IsZero() {
		values.Set("dateTime", params.DateTime.Format(time.RFC3339))
	}

	if params.SearchForArrival {
		values.Set("searchForArrival", "true")
	}

	if params.Via != "" {
		values.Set("viaStation", params.Via)
	}

	var result TripSearchResponse
	if err := c.get(ctx, tripsEndpoint, values, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// GetDepartures fetches the departure board for a station. Departures come
// back in upstream chronological order and are not reordered or filtered;
// cancellations stay in the list as a flag.
func (c *Client) GetDepartures(ctx context.Context, params DeparturesParams) (*DeparturesResponse, error) {
	if params.Station == "" && params.UICCode == "" {
		return nil, ErrMissingStation
	}

	values := url.Values{}

	if params.MaxJourneys > 0 {
		values.Set("maxJourneys", strconv.Itoa(params.MaxJourneys))
	}

	if params.Station != "" {
		values.Set("station", params.Station)
	} else {
		values.Set("uicCode", params.UICCode)
	}

	if !params.DateTime.IsZero() {
		values.Set("dateTime", params.DateTime.Format(time.RFC3339))
	}

	var result DeparturesResponse
	if err := c.get(ctx, departuresEndpoint, values, &result); err != nil {
		return nil, err
	}

	return &result, nil
}
