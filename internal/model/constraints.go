package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// RawExtraction is the untyped field map a language model returns for a
// query. Absent keys mean "not mentioned".
type RawExtraction map[string]any

// Field vocabulary shared by the extraction prompt and the decoder.
const (
	KeyLocation         = "location"
	KeyListingType      = "listing_type"
	KeyPrice            = "price"
	KeyBedrooms         = "bedrooms"
	KeyBathrooms        = "bathrooms"
	KeyPropertyType     = "property_type"
	KeyAreaRange        = "area_range"
	KeyYearBuilt        = "year_built"
	KeyFurnishingStatus = "furnishing_status"
	KeyFloorLevel       = "floor_level"
	KeyAvailability     = "availability"
	KeyLeaseDuration    = "lease_duration"
	KeySecurityDeposit  = "security_deposit"
	KeyMaintenance      = "monthly_maintenance"
	KeyPlacesNearby     = "places_nearby"
	KeyAmenities        = "amenities"
	KeyPlacesNotNear    = "places_not_near"
	KeyRadiusInKm       = "radiusInKm"
	KeyQuery            = "query"
)

// NumericKind tags the representation held by a NumericConstraint.
type NumericKind uint8

const (
	NumericUnset NumericKind = iota
	NumericExact
	NumericRange
)

// NumericConstraint is either an exact value, a (possibly half-open) range,
// or unset. The zero value is unset.
type NumericConstraint struct {
	Kind  NumericKind
	Exact float64
	Min   *float64
	Max   *float64
}

// Exact returns an exact-value constraint.
func Exact(v float64) NumericConstraint {
	return NumericConstraint{Kind: NumericExact, Exact: v}
}

// Range returns a range constraint; with both bounds nil it is unset.
func Range(lo, hi *float64) NumericConstraint {
	if lo == nil && hi == nil {
		return NumericConstraint{}
	}
	return NumericConstraint{Kind: NumericRange, Min: lo, Max: hi}
}

// IsSet reports whether the constraint carries any value.
func (n NumericConstraint) IsSet() bool { return n.Kind != NumericUnset }

// MarshalJSON renders exact values as bare numbers and ranges as objects.
func (n NumericConstraint) MarshalJSON() ([]byte, error) {
	switch n.Kind {
	case NumericExact:
		return json.Marshal(n.Exact)
	case NumericRange:
		return json.Marshal(struct {
			Min *float64 `json:"min,omitempty"`
			Max *float64 `json:"max,omitempty"`
		}{n.Min, n.Max})
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts the same shapes DecodeConstraints does for a
// numeric field, so MarshalJSON output decodes back to an equal value.
func (n *NumericConstraint) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	decoded, err := decodeNumeric(RawExtraction{"value": v}, "value")
	if err != nil {
		return err
	}
	*n = decoded
	return nil
}

// Constraints is the typed, normalized form of a RawExtraction.
type Constraints struct {
	Location         []string          `json:"location,omitempty"`
	ListingType      []string          `json:"listing_type,omitempty"`
	PropertyType     []string          `json:"property_type,omitempty"`
	FurnishingStatus []string          `json:"furnishing_status,omitempty"`
	FloorLevel       []string          `json:"floor_level,omitempty"`
	Availability     []string          `json:"availability,omitempty"`
	LeaseDuration    []string          `json:"lease_duration,omitempty"`
	Price            NumericConstraint `json:"price,omitzero"`
	Bedrooms         NumericConstraint `json:"bedrooms,omitzero"`
	Bathrooms        NumericConstraint `json:"bathrooms,omitzero"`
	Area             NumericConstraint `json:"area_range,omitzero"`
	YearBuilt        NumericConstraint `json:"year_built,omitzero"`
	SecurityDeposit  NumericConstraint `json:"security_deposit,omitzero"`
	Maintenance      NumericConstraint `json:"monthly_maintenance,omitzero"`
	Amenities        []string          `json:"amenities,omitempty"`
	PlacesNearby     []string          `json:"places_nearby,omitempty"`
	PlacesNotNear    []string          `json:"places_not_near,omitempty"`
	RadiusKm         *float64          `json:"radiusInKm,omitempty"`
}

// NumericFields returns pointers to every range-capable field, keyed by the
// raw vocabulary name.
func (c *Constraints) NumericFields() map[string]*NumericConstraint {
	return map[string]*NumericConstraint{
		KeyPrice:           &c.Price,
		KeyBedrooms:        &c.Bedrooms,
		KeyBathrooms:       &c.Bathrooms,
		KeyAreaRange:       &c.Area,
		KeyYearBuilt:       &c.YearBuilt,
		KeySecurityDeposit: &c.SecurityDeposit,
		KeyMaintenance:     &c.Maintenance,
	}
}

// IsEmpty reports whether no field is set.
func (c Constraints) IsEmpty() bool {
	for _, n := range c.NumericFields() {
		if n.IsSet() {
			return false
		}
	}
	return len(c.Location) == 0 && len(c.ListingType) == 0 && len(c.PropertyType) == 0 &&
		len(c.FurnishingStatus) == 0 && len(c.FloorLevel) == 0 && len(c.Availability) == 0 &&
		len(c.LeaseDuration) == 0 && len(c.Amenities) == 0 && len(c.PlacesNearby) == 0 &&
		len(c.PlacesNotNear) == 0 && c.RadiusKm == nil
}

// DecodeError reports a raw field whose value has the wrong shape.
type DecodeError struct {
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

// DecodeConstraints collapses a RawExtraction into typed Constraints.
// Numeric fields accept a bare number, a numeric string, or an object with
// min/max/exact (exact wins). A numeric field or radiusInKm that is not a
// number is left unset and reported in dropped. Enum fields accept a string
// or string array. Array fields must be arrays of strings; anything else is
// a fatal error. Unknown keys and "query" are ignored.
func DecodeConstraints(raw RawExtraction) (c Constraints, dropped []*DecodeError, err error) {

	if c.Location, err = decodeStringOrList(raw, KeyLocation); err != nil {
		return Constraints{}, nil, err
	}

	enums := map[string]*[]string{
		KeyListingType:      &c.ListingType,
		KeyPropertyType:     &c.PropertyType,
		KeyFurnishingStatus: &c.FurnishingStatus,
		KeyFloorLevel:       &c.FloorLevel,
		KeyAvailability:     &c.Availability,
		KeyLeaseDuration:    &c.LeaseDuration,
	}
	for key, dst := range enums {
		if *dst, err = decodeStringOrList(raw, key); err != nil {
			return Constraints{}, nil, err
		}
	}

	for key, dst := range c.NumericFields() {
		n, nerr := decodeNumeric(raw, key)
		if nerr != nil {
			dropped = append(dropped, asDecodeError(key, nerr))
			continue
		}
		*dst = n
	}

	arrays := map[string]*[]string{
		KeyAmenities:     &c.Amenities,
		KeyPlacesNearby:  &c.PlacesNearby,
		KeyPlacesNotNear: &c.PlacesNotNear,
	}
	for key, dst := range arrays {
		if *dst, err = decodeStringArray(raw, key); err != nil {
			return Constraints{}, nil, err
		}
	}

	if v, ok := raw[KeyRadiusInKm]; ok && v != nil {
		r, ferr := toFloat(v)
		switch {
		case ferr != nil:
			dropped = append(dropped, &DecodeError{Field: KeyRadiusInKm, Reason: ferr.Error()})
		case r > 0:
			c.RadiusKm = &r
		}
	}

	sort.Slice(dropped, func(i, j int) bool { return dropped[i].Field < dropped[j].Field })
	return c, dropped, nil
}

func asDecodeError(field string, err error) *DecodeError {
	var de *DecodeError
	if errors.As(err, &de) {
		return de
	}
	return &DecodeError{Field: field, Reason: err.Error()}
}

func decodeNumeric(raw RawExtraction, key string) (NumericConstraint, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return NumericConstraint{}, nil
	}

	obj, isObj := v.(map[string]any)
	if !isObj {
		f, err := toFloat(v)
		if err != nil {
			return NumericConstraint{}, &DecodeError{Field: key, Reason: err.Error()}
		}
		return Exact(f), nil
	}

	if ev, ok := obj["exact"]; ok && ev != nil {
		f, err := toFloat(ev)
		if err != nil {
			return NumericConstraint{}, &DecodeError{Field: key + ".exact", Reason: err.Error()}
		}
		return Exact(f), nil
	}

	bound := func(name string) (*float64, error) {
		bv, ok := obj[name]
		if !ok || bv == nil {
			return nil, nil
		}
		f, err := toFloat(bv)
		if err != nil {
			return nil, &DecodeError{Field: key + "." + name, Reason: err.Error()}
		}
		return &f, nil
	}
	lo, err := bound("min")
	if err != nil {
		return NumericConstraint{}, err
	}
	hi, err := bound("max")
	if err != nil {
		return NumericConstraint{}, err
	}
	return Range(lo, hi), nil
}

func decodeStringOrList(raw RawExtraction, key string) ([]string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return nil, nil
		}
		return []string{t}, nil
	case float64, int, int64, json.Number:
		f, _ := toFloat(t)
		return []string{strconv.FormatFloat(f, 'f', -1, 64)}, nil
	case []any, []string:
		return decodeStringArray(raw, key)
	default:
		return nil, &DecodeError{Field: key, Reason: fmt.Sprintf("unexpected type %T", v)}
	}
}

func decodeStringArray(raw RawExtraction, key string) ([]string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...), nil
	case []any:
		out := make([]string, 0, len(t))
		for i, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, &DecodeError{Field: fmt.Sprintf("%s[%d]", key, i), Reason: fmt.Sprintf("expected string, got %T", item)}
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, &DecodeError{Field: key, Reason: fmt.Sprintf("expected array, got %T", v)}
	}
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), ",", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", t)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}
