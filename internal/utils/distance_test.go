package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine_KnownDistances(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantKm                 float64
		tolerance              float64
	}{
		{"Lahore to Islamabad", 31.5204, 74.3587, 33.6844, 73.0479, 269.0, 3.0},
		{"Karachi to Lahore", 24.8607, 67.0011, 31.5204, 74.3587, 1030.0, 10.0},
		{"One degree of latitude", 0, 0, 1, 0, 111.19, 0.1},
		{"Antipodes", 0, 0, 0, 180, math.Pi * EarthRadiusKm, 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.wantKm, got, tt.tolerance)
		})
	}
}

func TestHaversine_Symmetry(t *testing.T) {
	points := [][2]float64{
		{31.5204, 74.3587},
		{33.6844, 73.0479},
		{-33.8688, 151.2093},
		{51.5074, -0.1278},
		{0, 0},
		{89.9, 179.9},
	}

	for _, a := range points {
		for _, b := range points {
			ab := Haversine(a[0], a[1], b[0], b[1])
			ba := Haversine(b[0], b[1], a[0], a[1])
			assert.InDelta(t, ab, ba, 1e-9, "haversine(%v, %v) not symmetric", a, b)
		}
		assert.Equal(t, 0.0, Haversine(a[0], a[1], a[0], a[1]))
	}
}

func TestHaversine_NaNPropagates(t *testing.T) {
	assert.True(t, math.IsNaN(Haversine(math.NaN(), 0, 1, 1)))
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 1.23, RoundTo(1.2345, 2))
	assert.Equal(t, 1.24, RoundTo(1.2351, 2))
	assert.Equal(t, 15.0, RoundTo(15, 2))
}
