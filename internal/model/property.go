package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Property is a candidate row returned by the search procedures.
// The search pipeline never mutates it.
type Property struct {
	ID               int64     `json:"id" db:"id"`
	Title            *string   `json:"title,omitempty" db:"title"`
	Description      *string   `json:"description,omitempty" db:"description"`
	Price            *float64  `json:"price,omitempty" db:"price"`
	ListingType      *string   `json:"listing_type,omitempty" db:"listing_type"`
	PropertyType     *string   `json:"property_type,omitempty" db:"property_type"`
	Bedrooms         *int      `json:"bedrooms,omitempty" db:"bedrooms"`
	Bathrooms        *int      `json:"bathrooms,omitempty" db:"bathrooms"`
	Area             *float64  `json:"area,omitempty" db:"area"`
	AreaUnit         *string   `json:"area_unit,omitempty" db:"area_unit"`
	Location         *string   `json:"location,omitempty" db:"location"`
	City             *string   `json:"city,omitempty" db:"city"`
	Latitude         *float64  `json:"latitude,omitempty" db:"latitude"`
	Longitude        *float64  `json:"longitude,omitempty" db:"longitude"`
	FurnishingStatus *string   `json:"furnishing_status,omitempty" db:"furnishing_status"`
	FloorLevel       *string   `json:"floor_level,omitempty" db:"floor_level"`
	YearBuilt        *int      `json:"year_built,omitempty" db:"year_built"`
	Amenities        JSONArray `json:"amenities,omitempty" db:"amenities"`
	Images           JSONArray `json:"images,omitempty" db:"images"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	// TotalCount is filled only by the admin procedure (window count).
	TotalCount *int64 `json:"-" db:"total_count"`
}

// Coordinates returns the property position, if both parts are known.
func (p Property) Coordinates() (Coordinates, bool) {
	if p.Latitude == nil || p.Longitude == nil {
		return Coordinates{}, false
	}
	return Coordinates{Lat: *p.Latitude, Lon: *p.Longitude}, true
}

// Coordinates is a WGS84 position in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Place is a point of interest returned by the places provider.
type Place struct {
	Name           string   `json:"name"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	DistanceMeters *float64 `json:"distance_meters,omitempty"`
}

// NearbyPlace is a place annotated with its distance to a property.
type NearbyPlace struct {
	Name        string      `json:"name"`
	Distance    float64     `json:"distance"` // km, 2 decimals
	Coordinates Coordinates `json:"coordinates"`
}

// NearbyGroup lists the places of one requested category within radius.
type NearbyGroup struct {
	PlaceType string        `json:"placeType"`
	Places    []NearbyPlace `json:"places"`
}

// AnnotatedProperty is a search result. NearbyPlaces is omitted when no
// requested category matched.
type AnnotatedProperty struct {
	Property     Property      `json:"property"`
	NearbyPlaces []NearbyGroup `json:"nearby_places,omitempty"`
}

// JSONArray represents a JSON array column
type JSONArray []string

// Value implements driver.Valuer interface
func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONArray) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
		return nil
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("JSONArray: unsupported type %T", value)
	}
}
