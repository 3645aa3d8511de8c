package ns

import (
	"fmt"
	"strings"
	"time"
)

// TravelClass is the NS wire value for a ticket class.
type TravelClass string

const (
	TravelClassFirst  TravelClass = "FIRST_CLASS"
	TravelClassSecond TravelClass = "SECOND_CLASS"
)

// Int returns the numeric form the trips endpoint expects (1 or 2).
func (tc TravelClass) Int() int {
	if tc == TravelClassFirst {
		return 1
	}
	return 2
}

// DiscountType is the NS wire value for a fare discount.
type DiscountType string

const (
	DiscountNone      DiscountType = "NO_DISCOUNT"
	Discount20Percent DiscountType = "DISCOUNT_20_PERCENT"
	Discount40Percent DiscountType = "DISCOUNT_40_PERCENT"
)

// Timestamp wraps time.Time to accept the NS wire format. The API emits
// offsets without a colon ("2019-05-08T10:16:00+0200"), which RFC 3339
// parsing rejects. Times are always upstream-supplied and zone-aware;
// nothing in this package fabricates one.
type Timestamp struct {
	time.Time
}

const nsTimeLayout = "2006-01-02T15:04:05Z0700"

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}

	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		parsed, err = time.Parse(nsTimeLayout, s)
	}
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", s, err)
	}

	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(time.RFC3339) + `"`), nil
}

// StationNames holds the name variants NS publishes per station.
type StationNames struct {
	Lang   string `json:"lang"`
	Middel string `json:"middel,omitempty"`
	Kort   string `json:"kort,omitempty"`
}

// Station describes a single station from the stations endpoint.
type Station struct {
	Namen   StationNames `json:"namen"`
	Code    string       `json:"code,omitempty"`
	UICCode string       `json:"UICCode,omitempty"`
	Lat     float64      `json:"lat,omitempty"`
	Lng     float64      `json:"lng,omitempty"`
	Land    string       `json:"land,omitempty"`
}

// Name returns the full station name.
func (s Station) Name() string {
	return s.Namen.Lang
}

// CountryCode returns the ISO country code ("land" on the wire).
func (s Station) CountryCode() string {
	return s.Land
}

// HasLocation reports whether the station carries coordinates.
func (s Station) HasLocation() bool {
	return s.Lat != 0 && s.Lng != 0
}

// Validate checks the fields every parsed station must carry.
func (s Station) Validate() error {
	if s.Namen.Lang == "" {
		return fmt.Errorf("station is missing a name")
	}
	return nil
}

// stationsEnvelope is the payload wrapper around station search results.
type stationsEnvelope struct {
	Payload []Station `json:"payload"`
}

// Stop is one end of a journey leg, with planned and realtime data.
type Stop struct {
	Name            string     `json:"name"`
	PlannedDateTime *Timestamp `json:"plannedDateTime,omitempty"`
	ActualDateTime  *Timestamp `json:"actualDateTime,omitempty"`
	PlannedTrack    string     `json:"plannedTrack,omitempty"`
	ActualTrack     string     `json:"actualTrack,omitempty"`
	Lat             float64    `json:"lat,omitempty"`
	Lng             float64    `json:"lng,omitempty"`
	CountryCode     string     `json:"countryCode,omitempty"`
	UICCode         string     `json:"uicCode,omitempty"`
	StationCode     string     `json:"stationCode,omitempty"`
}

// Product identifies the transport operating a leg or departure.
type Product struct {
	Number            string `json:"number,omitempty"`
	CategoryCode      string `json:"categoryCode,omitempty"`
	ShortCategoryName string `json:"shortCategoryName,omitempty"`
	LongCategoryName  string `json:"longCategoryName,omitempty"`
	OperatorCode      string `json:"operatorCode,omitempty"`
	OperatorName      string `json:"operatorName,omitempty"`
	Type              string `json:"type,omitempty"`
}

// Leg is one continuous ride within a trip.
type Leg struct {
	Idx         string   `json:"idx"`
	Name        string   `json:"name"`
	Direction   string   `json:"direction,omitempty"`
	Cancelled   bool     `json:"cancelled"`
	Origin      Stop     `json:"origin"`
	Destination Stop     `json:"destination"`
	Product     *Product `json:"product,omitempty"`
	Stops       []Stop   `json:"stops,omitempty"`
}

// Price holds fare information in euro cents.
type Price struct {
	PriceInCents                    int    `json:"priceInCents"`
	PriceInCentsExcludingSupplement *int   `json:"priceInCentsExcludingSupplement,omitempty"`
	SupplementInCents               *int   `json:"supplementInCents,omitempty"`
	BuyableTicketPriceInCents       *int   `json:"buyableTicketPriceInCents,omitempty"`
	Product                         string `json:"product,omitempty"`
	TravelClass                     string `json:"travelClass,omitempty"`
	DiscountType                    string `json:"discountType,omitempty"`
}

// Trip is a complete journey option from origin to destination.
type Trip struct {
	Idx                      int     `json:"idx"`
	UID                      string  `json:"uid"`
	PlannedDurationInMinutes int     `json:"plannedDurationInMinutes"`
	ActualDurationInMinutes  *int    `json:"actualDurationInMinutes,omitempty"`
	Transfers                int     `json:"transfers"`
	Status                   string  `json:"status"`
	Legs                     []Leg   `json:"legs"`
	ProductFare              *Price  `json:"productFare,omitempty"`
	Fares                    []Price `json:"fares,omitempty"`
	Price                    *Price  `json:"price,omitempty"`
}

// Fare returns the price matching the requested class and discount,
// falling back to the legacy price field.
func (t Trip) Fare() *Price {
	if t.ProductFare != nil {
		return t.ProductFare
	}
	return t.Price
}

// FirstLeg returns the opening leg of the trip, or nil for an empty trip.
func (t Trip) FirstLeg() *Leg {
	if len(t.Legs) == 0 {
		return nil
	}
	return &t.Legs[0]
}

// LastLeg returns the closing leg of the trip, or nil for an empty trip.
func (t Trip) LastLeg() *Leg {
	if len(t.Legs) == 0 {
		return nil
	}
	return &t.Legs[len(t.Legs)-1]
}

// TripSearchResponse is the trips endpoint response.
type TripSearchResponse struct {
	Source string `json:"source"`
	Trips  []Trip `json:"trips"`
}

// RouteStation is an intermediate stop listed on a departure.
type RouteStation struct {
	UICCode    string `json:"uicCode"`
	MediumName string `json:"mediumName"`
}

// Departure is one entry on a station departure board.
type Departure struct {
	Direction       string         `json:"direction"`
	Name            string         `json:"name"`
	PlannedDateTime Timestamp      `json:"plannedDateTime"`
	ActualDateTime  *Timestamp     `json:"actualDateTime,omitempty"`
	PlannedTrack    string         `json:"plannedTrack,omitempty"`
	ActualTrack     string         `json:"actualTrack,omitempty"`
	Product         *Product       `json:"product,omitempty"`
	Cancelled       bool           `json:"cancelled"`
	RouteStations   []RouteStation `json:"routeStations,omitempty"`
}

// Validate checks the fields every parsed departure must carry.
func (d Departure) Validate() error {
	if d.Direction == "" {
		return fmt.Errorf("departure is missing a direction")
	}
	if d.Name == "" {
		return fmt.Errorf("departure is missing a name")
	}
	if d.PlannedDateTime.IsZero() {
		return fmt.Errorf("departure is missing a planned time")
	}
	return nil
}

// DelayMinutes returns the realtime delay in whole minutes. Zero when the
// departure is on time or no realtime update exists yet; never negative.
func (d Departure) DelayMinutes() int {
	if d.ActualDateTime == nil || d.ActualDateTime.IsZero() {
		return 0
	}
	minutes := int(d.ActualDateTime.Sub(d.PlannedDateTime.Time).Minutes())
	if minutes < 0 {
		return 0
	}
	return minutes
}

// TrackChanged reports whether the departure moved to a different platform.
func (d Departure) TrackChanged() bool {
	return d.ActualTrack != "" && d.ActualTrack != d.PlannedTrack
}

// DeparturesPayload wraps the departure list in the departures response.
type DeparturesPayload struct {
	Source     string      `json:"source"`
	Departures []Departure `json:"departures"`
}

// DeparturesResponse is the departures endpoint response.
type DeparturesResponse struct {
	Payload DeparturesPayload `json:"payload"`
}

// FormatPrice renders euro cents as a display string, e.g. "€12.50".
func FormatPrice(cents int) string {
	return fmt.Sprintf("€%.2f", float64(cents)/100)
}
