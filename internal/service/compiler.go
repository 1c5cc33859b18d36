package service

import (
	"math"
	"strings"

	"propsearch/internal/model"
)

// ParamCount is the arity of the search procedures.
const ParamCount = 28

// Positions of each value in QueryParameters. The store binds by position;
// never reorder.
const (
	ParamLocation = iota
	ParamBedroomsMin
	ParamBedroomsMax
	ParamBedroomsExact
	ParamBathroomsMin
	ParamBathroomsMax
	ParamBathroomsExact
	ParamAreaMin
	ParamAreaMax
	ParamAreaExact
	ParamPriceMin
	ParamPriceMax
	ParamPriceExact
	ParamListingType
	ParamPropertyType
	ParamFurnishingStatus
	ParamFloorLevel
	ParamLeaseDuration
	ParamMaintenanceMin
	ParamMaintenanceMax
	ParamMaintenanceExact
	ParamDepositMin
	ParamDepositMax
	ParamDepositExact
	ParamYearBuiltMin
	ParamYearBuiltMax
	ParamYearBuiltExact
	ParamAmenities
)

// QueryParameters is the fixed positional argument list of a search
// procedure. Unset slots are nil.
type QueryParameters [ParamCount]any

// Args returns the parameters as a slice for database/sql.
func (p QueryParameters) Args() []any {
	return p[:]
}

// Compile maps normalized constraints and request overrides onto the
// positional parameters. It never fails.
func Compile(c model.Constraints, o model.Overrides) QueryParameters {
	var p QueryParameters

	p[ParamLocation] = joinLower(c.Location)

	putNumeric(&p, ParamBedroomsMin, c.Bedrooms, true)
	putNumeric(&p, ParamBathroomsMin, c.Bathrooms, true)
	putNumeric(&p, ParamAreaMin, c.Area, false)

	price := c.Price
	if o.PriceMin != nil || o.PriceMax != nil {
		price = model.Range(o.PriceMin, o.PriceMax)
	}
	putNumeric(&p, ParamPriceMin, price, false)

	listing := joinTrimmed(c.ListingType)
	if o.Filter != "" && o.Filter != model.FilterAll {
		listing = o.Filter
	}
	p[ParamListingType] = listing
	p[ParamPropertyType] = joinTrimmed(c.PropertyType)
	p[ParamFurnishingStatus] = joinTrimmed(c.FurnishingStatus)
	p[ParamFloorLevel] = joinTrimmed(c.FloorLevel)
	p[ParamLeaseDuration] = joinTrimmed(c.LeaseDuration)

	putNumeric(&p, ParamMaintenanceMin, c.Maintenance, false)
	putNumeric(&p, ParamDepositMin, c.SecurityDeposit, false)
	putNumeric(&p, ParamYearBuiltMin, c.YearBuilt, true)

	p[ParamAmenities] = joinTrimmed(c.Amenities)
	return p
}

// putNumeric writes min, max, exact starting at pos. Exactly one
// representation is emitted.
func putNumeric(p *QueryParameters, pos int, n model.NumericConstraint, integral bool) {
	switch n.Kind {
	case model.NumericExact:
		p[pos+2] = numericValue(n.Exact, integral)
	case model.NumericRange:
		if n.Min != nil {
			p[pos] = numericValue(*n.Min, integral)
		}
		if n.Max != nil {
			p[pos+1] = numericValue(*n.Max, integral)
		}
	}
}

func numericValue(v float64, integral bool) any {
	if integral {
		return int64(math.Round(v))
	}
	return v
}

func joinLower(values []string) any {
	lowered := make([]string, 0, len(values))
	for _, v := range values {
		lowered = append(lowered, strings.ToLower(v))
	}
	return joinTrimmed(lowered)
}

// joinTrimmed comma-joins the non-empty trimmed values, or returns nil.
func joinTrimmed(values []string) any {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return strings.Join(parts, ",")
}
