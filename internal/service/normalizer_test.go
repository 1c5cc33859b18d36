package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propsearch/internal/model"
)

func ptr[T any](v T) *T { return &v }

func TestNormalizer_RangeSwap(t *testing.T) {
	n := NewNormalizer(nil, nil)

	for _, key := range []string{
		model.KeyPrice, model.KeyBedrooms, model.KeyBathrooms, model.KeyAreaRange,
		model.KeyYearBuilt, model.KeySecurityDeposit, model.KeyMaintenance,
	} {
		t.Run(key, func(t *testing.T) {
			raw := model.RawExtraction{key: map[string]any{"min": 40000.0, "max": 20000.0}}
			c := n.Normalize(raw, "house")
			f := c.NumericFields()[key]

			require.Equal(t, model.NumericRange, f.Kind)
			assert.Equal(t, 20000.0, *f.Min)
			assert.Equal(t, 40000.0, *f.Max)
		})
	}
}

func TestNormalizer_ListingTypeStripping(t *testing.T) {
	n := NewNormalizer(nil, nil)
	raw := func() model.RawExtraction {
		return model.RawExtraction{model.KeyListingType: "rent", model.KeyBedrooms: 3.0}
	}

	c := n.Normalize(raw(), "3 bedroom house in DHA")
	assert.Empty(t, c.ListingType)
	assert.Equal(t, model.Exact(3), c.Bedrooms)

	c = n.Normalize(raw(), "3 bedroom house for rent in DHA")
	assert.Equal(t, []string{"rent"}, c.ListingType)

	c = n.Normalize(raw(), "DHA mein ghar kiraye par")
	assert.Equal(t, []string{"rent"}, c.ListingType)
}

func TestNormalizer_ArrayCleanup(t *testing.T) {
	n := NewNormalizer(nil, nil)
	raw := model.RawExtraction{
		model.KeyAmenities:     []any{"  Parking ", "SECURITY"},
		model.KeyPlacesNearby:  []any{" School"},
		model.KeyPlacesNotNear: []any{"Factory  "},
		model.KeyRadiusInKm:    2.0,
	}
	c := n.Normalize(raw, "house")

	assert.Equal(t, []string{"parking", "security"}, c.Amenities)
	assert.Equal(t, []string{"school"}, c.PlacesNearby)
	assert.Equal(t, []string{"factory"}, c.PlacesNotNear)
}

func TestNormalizer_RadiusInference(t *testing.T) {
	n := NewNormalizer(nil, nil)

	tests := []struct {
		name  string
		query string
		raw   model.RawExtraction
		want  *float64
	}{
		{
			name:  "driving minutes",
			query: "gym 10 minutes drive away",
			raw:   model.RawExtraction{model.KeyPlacesNearby: []any{"gym"}},
			want:  ptr(15.0),
		},
		{
			name:  "walking minutes",
			query: "house with a school 5 min walk",
			raw:   model.RawExtraction{model.KeyPlacesNearby: []any{"school"}},
			want:  ptr(0.5),
		},
		{
			name:  "fractional minutes round to two places",
			query: "park 7.5 minutes away",
			raw:   model.RawExtraction{model.KeyPlacesNearby: []any{"park"}},
			want:  ptr(11.25),
		},
		{
			name:  "vague phrase",
			query: "school walking distance",
			raw:   model.RawExtraction{model.KeyPlacesNearby: []any{"school"}},
			want:  ptr(1.0),
		},
		{
			name:  "not near also triggers",
			query: "house not near a factory",
			raw:   model.RawExtraction{model.KeyPlacesNotNear: []any{"factory"}},
			want:  ptr(1.0),
		},
		{
			name:  "explicit radius wins",
			query: "gym 10 minutes drive away",
			raw:   model.RawExtraction{model.KeyPlacesNearby: []any{"gym"}, model.KeyRadiusInKm: 3.0},
			want:  ptr(3.0),
		},
		{
			name:  "no places means no inference",
			query: "house 10 minutes from office",
			raw:   model.RawExtraction{},
			want:  nil,
		},
		{
			name:  "no phrasing leaves radius unset",
			query: "house with a mosque",
			raw:   model.RawExtraction{model.KeyPlacesNearby: []any{"mosque"}},
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := n.Normalize(tt.raw, tt.query)
			if tt.want == nil {
				assert.Nil(t, c.RadiusKm)
				return
			}
			require.NotNil(t, c.RadiusKm)
			assert.InDelta(t, *tt.want, *c.RadiusKm, 1e-9)
		})
	}
}

func TestNormalizer_AmenityReclassification(t *testing.T) {
	n := NewNormalizer(nil, nil)

	c := n.Normalize(model.RawExtraction{
		model.KeyAmenities: []any{"security", "mosque", "parking"},
	}, "house")
	assert.Equal(t, []string{"security", "parking"}, c.Amenities)
	assert.Equal(t, []string{"mosque"}, c.PlacesNearby)

	// Aliases move with their original spelling; existing entries stay.
	c = n.Normalize(model.RawExtraction{
		model.KeyAmenities:    []any{"Masjid", " Fitness  Center", "lift"},
		model.KeyPlacesNearby: []any{"school"},
		model.KeyRadiusInKm:   2.0,
	}, "house")
	assert.Equal(t, []string{"lift"}, c.Amenities)
	assert.Equal(t, []string{"school", "masjid", "fitness  center"}, c.PlacesNearby)
}

func TestNormalizer_InBuildingAmenitiesStay(t *testing.T) {
	n := NewNormalizer(nil, nil)

	c := n.Normalize(model.RawExtraction{
		model.KeyAmenities: []any{"car park", "school bus", "gym equipment", "bank guarantee", "jamia mosque", "mosque"},
	}, "house")
	assert.Equal(t, []string{"car park", "school bus", "gym equipment", "bank guarantee", "jamia mosque"}, c.Amenities)
	assert.Equal(t, []string{"mosque"}, c.PlacesNearby)

	params := Compile(c, model.Overrides{})
	assert.Equal(t, "car park,school bus,gym equipment,bank guarantee,jamia mosque", params[ParamAmenities])
}

func TestNormalizer_SoftFailure(t *testing.T) {
	n := NewNormalizer(nil, nil)

	tests := []struct {
		name string
		raw  model.RawExtraction
	}{
		{"array key holds a string", model.RawExtraction{model.KeyAmenities: "parking", model.KeyBedrooms: 3.0}},
		{"array key holds a number", model.RawExtraction{model.KeyPlacesNearby: 5.0}},
		{"array element is an object", model.RawExtraction{model.KeyPlacesNotNear: []any{map[string]any{"x": 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c model.Constraints
			require.NotPanics(t, func() { c = n.Normalize(tt.raw, "house") })
			assert.True(t, c.IsEmpty())

			_, err := n.NormalizeStrict(tt.raw, "house")
			require.ErrorIs(t, err, ErrNormalization)
		})
	}
}

func TestNormalizer_MalformedNumericDroppedAlone(t *testing.T) {
	n := NewNormalizer(nil, nil)
	raw := model.RawExtraction{
		model.KeyAreaRange:  "5 marla",
		model.KeyPrice:      map[string]any{"max": "cheap"},
		model.KeyLocation:   "dha",
		model.KeyBedrooms:   3.0,
		model.KeyRadiusInKm: "close",
	}

	c, err := n.NormalizeStrict(raw, "3 bed house in dha")
	require.NoError(t, err)
	assert.Equal(t, []string{"dha"}, c.Location)
	assert.Equal(t, model.Exact(3), c.Bedrooms)
	assert.False(t, c.Area.IsSet())
	assert.False(t, c.Price.IsSet())
	assert.Nil(t, c.RadiusKm)
	assert.False(t, n.Normalize(raw, "3 bed house in dha").IsEmpty())
}

func TestNormalizer_QueryKeyStripped(t *testing.T) {
	n := NewNormalizer(nil, nil)
	c := n.Normalize(model.RawExtraction{
		model.KeyQuery:       "house for rent",
		model.KeyListingType: "rent",
	}, "")

	// The embedded query serves as evidence, then disappears.
	assert.Equal(t, []string{"rent"}, c.ListingType)
	b, err := json.Marshal(c)
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"query"`)
}

func TestInferRadiusKm(t *testing.T) {
	phrases := []string{"nearby", "near"}

	r, ok := InferRadiusKm("20 mins", phrases)
	require.True(t, ok)
	assert.InDelta(t, 30.0, r, 1e-9)

	r, ok = InferRadiusKm("house nearest to a school", phrases)
	require.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-9)

	_, ok = InferRadiusKm("house with a garden", phrases)
	assert.False(t, ok)
}
