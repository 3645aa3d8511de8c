package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ns-bridge/internal/ns"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// ToolManager manages the MCP tools wrapping the NS travel API
type ToolManager struct {
	api    ns.API
	config *Config
	log    *zap.SugaredLogger

	// now supplies the default timestamp for time-sensitive searches.
	// Injected so tests are deterministic.
	now func() time.Time
}

// NewToolManager creates a new tool manager
func NewToolManager(api ns.API, config *Config, log *zap.SugaredLogger) *ToolManager {
	return &ToolManager{
		api:    api,
		config: config,
		log:    log,
		now:    time.Now,
	}
}

// RegisterTools registers all available tools with the MCP server
func (tm *ToolManager) RegisterTools(s *server.MCPServer) error {
	searchStationsTool := mcp.NewTool("search_stations",
		mcp.WithDescription("Search for train stations by name or filter by country. Use this to find the station codes needed for trip planning."),
		mcp.WithString("query",
			mcp.Description("Search query for the station name (minimum 2 characters). Leave empty to list all stations."),
		),
		mcp.WithString("country_codes",
			mcp.Description("Comma-separated ISO country codes to filter, e.g. \"nl,de,be\""),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return (default 10, max 100)"),
		),
	)
	s.AddTool(searchStationsTool, tm.handleSearchStationsTool)

	searchTripsTool := mcp.NewTool("search_trips",
		mcp.WithDescription("Search for train trips between two stations, with connections, travel times and pricing."),
		mcp.WithString("origin",
			mcp.Required(),
			mcp.Description("Origin station code, e.g. \"ut\" for Utrecht. Use search_stations to find codes."),
		),
		mcp.WithString("destination",
			mcp.Required(),
			mcp.Description("Destination station code, e.g. \"asd\" for Amsterdam Centraal"),
		),
		mcp.WithString("date_time",
			mcp.Description("Departure or arrival time in ISO 8601 format, e.g. \"2025-11-18T14:30:00\". Defaults to now."),
		),
		mcp.WithBoolean("search_for_arrival",
			mcp.Description("Treat date_time as the intended arrival time instead of the departure time"),
		),
		mcp.WithString("via_station",
			mcp.Description("Optional intermediate station code to route through"),
		),
		mcp.WithString("travel_class",
			mcp.Description("Travel class: \"first\" or \"second\" (default \"second\")"),
		),
		mcp.WithString("discount",
			mcp.Description("Discount type: \"none\", \"20_percent\" or \"40_percent\" (default \"none\")"),
		),
		mcp.WithNumber("num_trips",
			mcp.Description("Number of trip options to return (default 5)"),
		),
	)
	s.AddTool(searchTripsTool, tm.handleSearchTripsTool)

	getDeparturesTool := mcp.NewTool("get_departures",
		mcp.WithDescription("Get upcoming train departures for a station, including delays, platform changes and cancellations."),
		mcp.WithString("station",
			mcp.Required(),
			mcp.Description("Station code, e.g. \"ut\" for Utrecht Centraal"),
		),
		mcp.WithNumber("max_journeys",
			mcp.Description("Maximum number of departures to return (default 10, max 40)"),
		),
		mcp.WithString("date_time",
			mcp.Description("Show departures from this time in ISO 8601 format. Defaults to now."),
		),
	)
	s.AddTool(getDeparturesTool, tm.handleGetDeparturesTool)

	return nil
}

// Tool handlers

func (tm *ToolManager) handleSearchStationsTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(request.GetString("query", ""))
	countryCodes := request.GetString("country_codes", "")

	limit := int(request.GetFloat("limit", 0))
	if limit <= 0 {
		limit = tm.config.DefaultStationResults
	}
	if limit > tm.config.MaxStationResults {
		limit = tm.config.MaxStationResults
	}

	if query != "" && len([]rune(query)) < ns.MinQueryLength {
		return mcp.NewToolResultError(ns.ErrQueryTooShort.Error()), nil
	}

	var countries []string
	for _, code := range strings.Split(countryCodes, ",") {
		if code = strings.ToLower(strings.TrimSpace(code)); code != "" {
			countries = append(countries, code)
		}
	}

	stations, err := tm.api.SearchStations(ctx, ns.StationSearchParams{
		Query:        query,
		CountryCodes: countries,
		Limit:        limit,
	})
	if err != nil {
		return tm.upstreamError("search stations", err), nil
	}

	// Upstream relevance order is preserved as-is.
	formatted := make([]map[string]interface{}, 0, len(stations))
	for _, station := range stations {
		entry := map[string]interface{}{
			"name":     station.Name(),
			"code":     station.Code,
			"uic_code": station.UICCode,
			"country":  station.CountryCode(),
		}
		if station.HasLocation() {
			entry["location"] = map[string]float64{
				"lat": station.Lat,
				"lng": station.Lng,
			}
		}
		formatted = append(formatted, entry)
	}

	return tm.jsonResult(map[string]interface{}{
		"count":    len(formatted),
		"stations": formatted,
	})
}

func (tm *ToolManager) handleSearchTripsTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	origin, err := request.RequireString("origin")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	destination, err := request.RequireString("destination")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	origin = strings.TrimSpace(origin)
	destination = strings.TrimSpace(destination)
	if err := validateTripEndpoints(origin, destination); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	travelClass, err := parseTravelClass(request.GetString("travel_class", "second"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	discount, err := parseDiscount(request.GetString("discount", "none"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// An absent date_time means "now", taken from the injected clock so
	// the upstream query is always explicit about the search time.
	dateTime := tm.now()
	if raw := request.GetString("date_time", ""); raw != "" {
		dateTime, err = parseDateTime(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	numTrips := int(request.GetFloat("num_trips", 0))
	if numTrips <= 0 {
		numTrips = tm.config.DefaultTrips
	}
	if numTrips > tm.config.MaxTrips {
		numTrips = tm.config.MaxTrips
	}

	result, err := tm.api.SearchTrips(ctx, ns.TripSearchParams{
		Origin:           origin,
		Destination:      destination,
		DateTime:         dateTime,
		SearchForArrival: request.GetBool("search_for_arrival", false),
		Via:              strings.TrimSpace(request.GetString("via_station", "")),
		TravelClass:      travelClass,
		Discount:         discount,
	})
	if err != nil {
		return tm.upstreamError("search trips", err), nil
	}

	// Trips keep the upstream planner's ordering; zero trips is a valid,
	// empty answer rather than an error.
	trips := result.Trips
	if len(trips) > numTrips {
		trips = trips[:numTrips]
	}

	formatted := make([]map[string]interface{}, 0, len(trips))
	for _, trip := range trips {
		formatted = append(formatted, formatTrip(trip))
	}

	return tm.jsonResult(map[string]interface{}{
		"origin":      origin,
		"destination": destination,
		"count":       len(formatted),
		"trips":       formatted,
	})
}

func (tm *ToolManager) handleGetDeparturesTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	station, err := request.RequireString("station")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	station = strings.TrimSpace(station)
	if station == "" {
		return mcp.NewToolResultError("station code must not be empty"), nil
	}

	maxJourneys := int(request.GetFloat("max_journeys", 0))
	if maxJourneys <= 0 {
		maxJourneys = tm.config.DefaultDepartures
	}
	if maxJourneys > tm.config.MaxDepartures {
		maxJourneys = tm.config.MaxDepartures
	}

	var dateTime time.Time
	if raw := request.GetString("date_time", ""); raw != "" {
		dateTime, err = parseDateTime(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	result, err := tm.api.GetDepartures(ctx, ns.DeparturesParams{
		Station:     station,
		MaxJourneys: maxJourneys,
		DateTime:    dateTime,
	})
	if err != nil {
		return tm.upstreamError("get departures", err), nil
	}

	// Departures stay in upstream chronological order, cancellations
	// included; cancellation is a reported field, not a filter.
	formatted := make([]map[string]interface{}, 0, len(result.Payload.Departures))
	for _, departure := range result.Payload.Departures {
		formatted = append(formatted, formatDeparture(departure))
	}

	return tm.jsonResult(map[string]interface{}{
		"station":    station,
		"count":      len(formatted),
		"departures": formatted,
	})
}

// Argument validation

func validateTripEndpoints(origin, destination string) error {
	if origin == "" {
		return fmt.Errorf("origin station code must not be empty")
	}
	if destination == "" {
		return fmt.Errorf("destination station code must not be empty")
	}
	if strings.EqualFold(origin, destination) {
		return fmt.Errorf("origin and destination must be different stations")
	}
	return nil
}

func parseTravelClass(value string) (ns.TravelClass, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "second":
		return ns.TravelClassSecond, nil
	case "first":
		return ns.TravelClassFirst, nil
	default:
		return "", fmt.Errorf("invalid travel_class %q: must be \"first\" or \"second\"", value)
	}
}

func parseDiscount(value string) (ns.DiscountType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none":
		return ns.DiscountNone, nil
	case "20_percent":
		return ns.Discount20Percent, nil
	case "40_percent":
		return ns.Discount40Percent, nil
	default:
		return "", fmt.Errorf("invalid discount %q: must be \"none\", \"20_percent\" or \"40_percent\"", value)
	}
}

// parseDateTime accepts RFC 3339 or a local timestamp without an offset.
func parseDateTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", value, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date_time %q: must be ISO 8601, e.g. \"2025-11-18T14:30:00\"", value)
}

// Result mapping

func formatTrip(trip ns.Trip) map[string]interface{} {
	data := map[string]interface{}{
		"duration_minutes": trip.PlannedDurationInMinutes,
		"transfers":        trip.Transfers,
		"status":           trip.Status,
	}

	if trip.ActualDurationInMinutes != nil {
		data["actual_duration_minutes"] = *trip.ActualDurationInMinutes
	}

	if first := trip.FirstLeg(); first != nil {
		addStopTimes(data, "departure", first.Origin)
	}
	if last := trip.LastLeg(); last != nil {
		addStopTimes(data, "arrival", last.Destination)
	}

	legs := make([]map[string]interface{}, 0, len(trip.Legs))
	for _, leg := range trip.Legs {
		legs = append(legs, formatLeg(leg))
	}
	data["legs"] = legs

	if fare := trip.Fare(); fare != nil {
		data["price"] = formatFare(fare)
	}

	return data
}

// addStopTimes records the planned and realtime times and tracks of a trip
// boundary stop under planned_<kind>_time style keys.
func addStopTimes(data map[string]interface{}, kind string, stop ns.Stop) {
	if stop.PlannedDateTime != nil && !stop.PlannedDateTime.IsZero() {
		data["planned_"+kind+"_time"] = stop.PlannedDateTime.Format(time.RFC3339)
	}
	if stop.ActualDateTime != nil && !stop.ActualDateTime.IsZero() {
		data["actual_"+kind+"_time"] = stop.ActualDateTime.Format(time.RFC3339)
	}
	if stop.PlannedTrack != "" {
		data["planned_"+kind+"_track"] = stop.PlannedTrack
	}
	if stop.ActualTrack != "" {
		data["actual_"+kind+"_track"] = stop.ActualTrack
	}
}

func formatLeg(leg ns.Leg) map[string]interface{} {
	data := map[string]interface{}{
		"transport":   leg.Name,
		"direction":   leg.Direction,
		"cancelled":   leg.Cancelled,
		"origin":      formatLegStop(leg.Origin),
		"destination": formatLegStop(leg.Destination),
	}

	if leg.Product != nil {
		data["operator"] = leg.Product.OperatorName
		data["type"] = leg.Product.LongCategoryName
	}

	return data
}

func formatLegStop(stop ns.Stop) map[string]interface{} {
	data := map[string]interface{}{
		"name": stop.Name,
	}
	if stop.PlannedDateTime != nil && !stop.PlannedDateTime.IsZero() {
		data["planned_time"] = stop.PlannedDateTime.Format(time.RFC3339)
	}
	if stop.ActualDateTime != nil && !stop.ActualDateTime.IsZero() {
		data["actual_time"] = stop.ActualDateTime.Format(time.RFC3339)
	}
	if stop.PlannedTrack != "" {
		data["planned_track"] = stop.PlannedTrack
	}
	if stop.ActualTrack != "" {
		data["actual_track"] = stop.ActualTrack
	}
	return data
}

func formatFare(fare *ns.Price) map[string]interface{} {
	data := map[string]interface{}{
		"total_cents":     fare.PriceInCents,
		"total_formatted": ns.FormatPrice(fare.PriceInCents),
	}

	if fare.Product != "" {
		data["product"] = fare.Product
	}
	if fare.TravelClass != "" {
		data["travel_class"] = fare.TravelClass
	}
	if fare.DiscountType != "" {
		data["discount_type"] = fare.DiscountType
	}

	if fare.PriceInCentsExcludingSupplement != nil {
		data["base_cents"] = *fare.PriceInCentsExcludingSupplement
		data["base_formatted"] = ns.FormatPrice(*fare.PriceInCentsExcludingSupplement)
	}
	if fare.SupplementInCents != nil && *fare.SupplementInCents > 0 {
		data["supplement_cents"] = *fare.SupplementInCents
		data["supplement_formatted"] = ns.FormatPrice(*fare.SupplementInCents)
	}

	return data
}

func formatDeparture(departure ns.Departure) map[string]interface{} {
	data := map[string]interface{}{
		"direction":     departure.Direction,
		"name":          departure.Name,
		"planned_time":  departure.PlannedDateTime.Format(time.RFC3339),
		"planned_track": departure.PlannedTrack,
		"cancelled":     departure.Cancelled,
	}

	if departure.ActualDateTime != nil && !departure.ActualDateTime.IsZero() {
		data["actual_time"] = departure.ActualDateTime.Format(time.RFC3339)
		if delay := departure.DelayMinutes(); delay > 0 {
			data["delay_minutes"] = delay
		}
	}

	if departure.TrackChanged() {
		data["actual_track"] = departure.ActualTrack
		data["track_changed"] = true
	}

	if departure.Product != nil {
		data["operator"] = departure.Product.OperatorName
		data["type"] = departure.Product.LongCategoryName
	}

	return data
}

// Shared result helpers

// jsonResult marshals a tool response map into a text result.
func (tm *ToolManager) jsonResult(response map[string]interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// upstreamError translates NS API failures into tool errors. The message
// stays human-readable and never contains the subscription key.
func (tm *ToolManager) upstreamError(action string, err error) *mcp.CallToolResult {
	var apiErr *ns.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.IsAuthError():
			return mcp.NewToolResultError(fmt.Sprintf(
				"NS API rejected the subscription key (status %d); check the NS_API_KEY configuration", apiErr.StatusCode))
		case apiErr.IsNotFound():
			return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: not found upstream: %v", action, apiErr))
		case apiErr.IsServerError():
			tm.log.Warnw("NS API unavailable", "action", action, "status", apiErr.StatusCode, "error", err)
			return mcp.NewToolResultError(fmt.Sprintf(
				"Failed to %s: the NS API is temporarily unavailable, try again later: %v", action, apiErr))
		}
	}
	tm.log.Warnw("upstream call failed", "action", action, "error", err)
	return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err))
}
