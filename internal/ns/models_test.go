package ns

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "RFC 3339 with colon offset",
			input: `"2025-11-18T14:30:00+02:00"`,
			want:  "2025-11-18T14:30:00+02:00",
		},
		{
			name:  "NS wire format without colon offset",
			input: `"2025-11-18T14:30:00+0200"`,
			want:  "2025-11-18T14:30:00+02:00",
		},
		{
			name:  "UTC",
			input: `"2025-11-18T12:30:00Z"`,
			want:  "2025-11-18T12:30:00Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.input), &ts))
			assert.Equal(t, tt.want, ts.Format(time.RFC3339))
		})
	}
}

func TestTimestamp_UnmarshalJSONInvalid(t *testing.T) {
	var ts Timestamp
	err := json.Unmarshal([]byte(`"18-11-2025 14:30"`), &ts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timestamp")
}

func TestTimestamp_MarshalJSON(t *testing.T) {
	var zero Timestamp
	data, err := json.Marshal(zero)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	ts := Timestamp{Time: time.Date(2025, 11, 18, 14, 30, 0, 0, time.UTC)}
	data, err = json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2025-11-18T14:30:00Z"`, string(data))
}

func TestStation_Accessors(t *testing.T) {
	station := Station{
		Namen:   StationNames{Lang: "Utrecht Centraal", Middel: "Utrecht C.", Kort: "Ut"},
		Code:    "ut",
		UICCode: "8400621",
		Lat:     52.089199,
		Lng:     5.110168,
		Land:    "NL",
	}

	assert.Equal(t, "Utrecht Centraal", station.Name())
	assert.Equal(t, "NL", station.CountryCode())
	assert.True(t, station.HasLocation())
	assert.NoError(t, station.Validate())
}

func TestStation_ValidateMissingName(t *testing.T) {
	station := Station{Code: "ut"}
	assert.Error(t, station.Validate())

	assert.False(t, station.HasLocation())
}

func TestStation_ParseUpstreamJSON(t *testing.T) {
	raw := `{
		"namen": {"lang": "Utrecht Centraal", "middel": "Utrecht C.", "kort": "Ut"},
		"code": "ut",
		"UICCode": "8400621",
		"lat": 52.089199,
		"lng": 5.110168,
		"land": "NL"
	}`

	var station Station
	require.NoError(t, json.Unmarshal([]byte(raw), &station))

	assert.Equal(t, "Utrecht Centraal", station.Name())
	assert.Equal(t, "ut", station.Code)
	assert.Equal(t, "8400621", station.UICCode)
}

func TestDeparture_Validate(t *testing.T) {
	departure := Departure{
		Direction:       "Amsterdam Centraal",
		Name:            "Intercity 2800",
		PlannedDateTime: Timestamp{Time: time.Now()},
	}
	assert.NoError(t, departure.Validate())

	assert.Error(t, Departure{Name: "IC", PlannedDateTime: departure.PlannedDateTime}.Validate())
	assert.Error(t, Departure{Direction: "Asd", PlannedDateTime: departure.PlannedDateTime}.Validate())
	assert.Error(t, Departure{Direction: "Asd", Name: "IC"}.Validate())
}

func TestDeparture_DelayMinutes(t *testing.T) {
	planned := time.Date(2025, 11, 18, 14, 30, 0, 0, time.UTC)

	onTime := Departure{PlannedDateTime: Timestamp{Time: planned}}
	assert.Equal(t, 0, onTime.DelayMinutes())

	delayed := Departure{
		PlannedDateTime: Timestamp{Time: planned},
		ActualDateTime:  &Timestamp{Time: planned.Add(7 * time.Minute)},
	}
	assert.Equal(t, 7, delayed.DelayMinutes())

	// An early departure never reports a negative delay.
	early := Departure{
		PlannedDateTime: Timestamp{Time: planned},
		ActualDateTime:  &Timestamp{Time: planned.Add(-2 * time.Minute)},
	}
	assert.Equal(t, 0, early.DelayMinutes())
}

func TestDeparture_TrackChanged(t *testing.T) {
	assert.False(t, Departure{PlannedTrack: "5b"}.TrackChanged())
	assert.False(t, Departure{PlannedTrack: "5b", ActualTrack: "5b"}.TrackChanged())
	assert.True(t, Departure{PlannedTrack: "5b", ActualTrack: "5a"}.TrackChanged())
}

func TestTrip_Fare(t *testing.T) {
	productFare := &Price{PriceInCents: 1250}
	legacy := &Price{PriceInCents: 999}

	assert.Equal(t, productFare, Trip{ProductFare: productFare, Price: legacy}.Fare())
	assert.Equal(t, legacy, Trip{Price: legacy}.Fare())
	assert.Nil(t, Trip{}.Fare())
}

func TestTrip_Legs(t *testing.T) {
	empty := Trip{}
	assert.Nil(t, empty.FirstLeg())
	assert.Nil(t, empty.LastLeg())

	trip := Trip{Legs: []Leg{
		{Idx: "0", Name: "IC 2800"},
		{Idx: "1", Name: "SPR 5632"},
	}}
	assert.Equal(t, "IC 2800", trip.FirstLeg().Name)
	assert.Equal(t, "SPR 5632", trip.LastLeg().Name)
}

func TestTravelClass_Int(t *testing.T) {
	assert.Equal(t, 1, TravelClassFirst.Int())
	assert.Equal(t, 2, TravelClassSecond.Int())
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "€12.50", FormatPrice(1250))
	assert.Equal(t, "€0.00", FormatPrice(0))
	assert.Equal(t, "€1.05", FormatPrice(105))
}

func TestDeparturesResponse_ParseUpstreamJSON(t *testing.T) {
	raw := `{
		"payload": {
			"source": "PPV",
			"departures": [
				{
					"direction": "Amsterdam Centraal",
					"name": "Intercity 2800",
					"plannedDateTime": "2025-11-18T14:30:00+0100",
					"actualDateTime": "2025-11-18T14:35:00+0100",
					"plannedTrack": "5b",
					"actualTrack": "7a",
					"cancelled": false,
					"product": {"operatorName": "NS", "longCategoryName": "Intercity"}
				}
			]
		}
	}`

	var resp DeparturesResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	require.Len(t, resp.Payload.Departures, 1)

	departure := resp.Payload.Departures[0]
	assert.NoError(t, departure.Validate())
	assert.Equal(t, 5, departure.DelayMinutes())
	assert.True(t, departure.TrackChanged())
	assert.Equal(t, "NS", departure.Product.OperatorName)
}
