package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestDecodeConstraints_Numeric(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want NumericConstraint
	}{
		{"bare number", 3.0, Exact(3)},
		{"int", 2, Exact(2)},
		{"numeric string with commas", "50,000", Exact(50000)},
		{"range", map[string]any{"min": 1.0, "max": 4.0}, Range(f(1), f(4))},
		{"half open", map[string]any{"max": "200000"}, Range(nil, f(200000))},
		{"exact wins", map[string]any{"min": 1.0, "max": 9.0, "exact": 3.0}, Exact(3)},
		{"empty object", map[string]any{}, NumericConstraint{}},
		{"null", nil, NumericConstraint{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, err := DecodeConstraints(RawExtraction{KeyBedrooms: tt.in})
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Bedrooms)
		})
	}
}

func TestDecodeConstraints_MalformedNumericDropped(t *testing.T) {
	for _, in := range []any{"lots", map[string]any{"min": "few"}, []any{1.0}} {
		c, dropped, err := DecodeConstraints(RawExtraction{KeyPrice: in, KeyLocation: "dha", KeyBathrooms: 2.0})
		require.NoError(t, err, "input %v", in)
		require.Len(t, dropped, 1)
		assert.Contains(t, dropped[0].Field, KeyPrice)
		assert.False(t, c.Price.IsSet())
		assert.Equal(t, []string{"dha"}, c.Location)
		assert.Equal(t, Exact(2), c.Bathrooms)
	}
}

func TestDecodeConstraints_Enums(t *testing.T) {
	c, _, err := DecodeConstraints(RawExtraction{
		KeyListingType:  "rent",
		KeyPropertyType: []any{"house", "flat"},
		KeyLocation:     "DHA Phase 5, Lahore",
		KeyFloorLevel:   "  ",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"rent"}, c.ListingType)
	assert.Equal(t, []string{"house", "flat"}, c.PropertyType)
	assert.Equal(t, []string{"DHA Phase 5, Lahore"}, c.Location)
	assert.Nil(t, c.FloorLevel)
}

func TestDecodeConstraints_ArrayFieldRejectsScalar(t *testing.T) {
	_, _, err := DecodeConstraints(RawExtraction{KeyAmenities: "pool"})
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, KeyAmenities, de.Field)

	_, _, err = DecodeConstraints(RawExtraction{KeyPlacesNearby: []any{"school", 4.0}})
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "places_nearby[1]", de.Field)
}

func TestDecodeConstraints_Radius(t *testing.T) {
	c, _, err := DecodeConstraints(RawExtraction{KeyRadiusInKm: 2.5})
	require.NoError(t, err)
	require.NotNil(t, c.RadiusKm)
	assert.InDelta(t, 2.5, *c.RadiusKm, 1e-9)

	for _, v := range []any{0.0, -1.0} {
		c, _, err = DecodeConstraints(RawExtraction{KeyRadiusInKm: v})
		require.NoError(t, err)
		assert.Nil(t, c.RadiusKm)
	}
}

func TestDecodeConstraints_IgnoresUnknownKeys(t *testing.T) {
	c, _, err := DecodeConstraints(RawExtraction{KeyQuery: "2 bed flat", "colour": "blue"})
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestConstraints_MarshalJSON(t *testing.T) {
	c := Constraints{
		ListingType: []string{"sale"},
		Price:       Range(nil, f(5e6)),
		Bedrooms:    Exact(3),
	}
	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"listing_type":["sale"],"price":{"max":5000000},"bedrooms":3}`, string(data))
}

func TestConstraints_JSONRoundTrip(t *testing.T) {
	in := Constraints{
		Location:     []string{"gulberg"},
		Price:        Range(f(1e6), f(5e6)),
		Area:         Range(f(5), nil),
		Bedrooms:     Exact(3),
		PlacesNearby: []string{"mosque"},
		RadiusKm:     f(1.5),
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Constraints
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestNumericConstraint_UnmarshalJSON(t *testing.T) {
	var n NumericConstraint
	require.NoError(t, json.Unmarshal([]byte(`{"min":1,"max":2,"exact":4}`), &n))
	assert.Equal(t, Exact(4), n)

	require.NoError(t, json.Unmarshal([]byte(`null`), &n))
	assert.False(t, n.IsSet())

	require.Error(t, json.Unmarshal([]byte(`"a lot"`), &n))
}

func TestConstraints_IsEmpty(t *testing.T) {
	assert.True(t, Constraints{}.IsEmpty())
	assert.False(t, Constraints{Bathrooms: Exact(1)}.IsEmpty())
	assert.False(t, Constraints{RadiusKm: f(1)}.IsEmpty())
	assert.False(t, Constraints{PlacesNotNear: []string{"graveyard"}}.IsEmpty())
}
