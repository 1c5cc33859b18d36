package service

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"propsearch/internal/metrics"
	"propsearch/internal/model"
	"propsearch/internal/utils"
	"propsearch/internal/vocabulary"
)

var minutesPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:mins?|minutes?)\b`)

const (
	kmPerDrivingMinute = 1.5
	kmPerWalkingMinute = 0.1
	vagueRadiusKm      = 1.0
)

// Normalizer turns a RawExtraction into clean Constraints. It does no I/O.
type Normalizer struct {
	vocab  *vocabulary.Vocabulary
	logger *zap.Logger
}

// NewNormalizer creates a normalizer over the given vocabulary.
func NewNormalizer(vocab *vocabulary.Vocabulary, logger *zap.Logger) *Normalizer {
	if vocab == nil {
		vocab = vocabulary.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{vocab: vocab, logger: logger}
}

// Normalize never fails. A malformed numeric field is dropped on its own;
// a malformed array field or a panic yields empty Constraints. Either way
// the failure kind is logged and counted.
func (n *Normalizer) Normalize(raw model.RawExtraction, query string) model.Constraints {
	c, err := n.NormalizeStrict(raw, query)
	if err != nil {
		kind := "decode"
		var de *model.DecodeError
		if !errors.As(err, &de) {
			kind = "panic"
		}
		metrics.NormalizationFailuresTotal.WithLabelValues(kind).Inc()
		n.logger.Warn("Normalization failed, continuing without constraints",
			zap.String("kind", kind),
			zap.Error(err),
		)
		return model.Constraints{}
	}
	return c
}

// NormalizeStrict is Normalize with the failure returned. Errors wrap
// ErrNormalization.
func (n *Normalizer) NormalizeStrict(raw model.RawExtraction, query string) (c model.Constraints, err error) {
	defer func() {
		if r := recover(); r != nil {
			c = model.Constraints{}
			err = fmt.Errorf("%w: panic: %v", ErrNormalization, r)
		}
	}()

	if q, ok := raw[model.KeyQuery].(string); ok && query == "" {
		query = q
	}

	var dropped []*model.DecodeError
	c, dropped, err = model.DecodeConstraints(raw)
	if err != nil {
		return model.Constraints{}, fmt.Errorf("%w: %w", ErrNormalization, err)
	}
	for _, de := range dropped {
		metrics.NormalizationFailuresTotal.WithLabelValues("decode").Inc()
		n.logger.Warn("Dropping malformed constraint field",
			zap.String("field", de.Field),
			zap.String("reason", de.Reason),
		)
	}

	n.dropUnevidencedListingType(&c, query)
	swapInvertedRanges(&c)
	cleanArrays(&c)
	n.inferRadius(&c, query)
	n.reclassifyAmenities(&c)
	return c, nil
}

// Step 1: listing_type survives only if the text mentions rent or sale.
func (n *Normalizer) dropUnevidencedListingType(c *model.Constraints, query string) {
	if len(c.ListingType) == 0 {
		return
	}
	if !utils.ContainsAnySubstring(query, n.vocab.ListingKeywords) {
		c.ListingType = nil
	}
}

// Step 2.
func swapInvertedRanges(c *model.Constraints) {
	for _, f := range c.NumericFields() {
		if f.Kind == model.NumericRange && f.Min != nil && f.Max != nil && *f.Min > *f.Max {
			f.Min, f.Max = f.Max, f.Min
		}
	}
}

// Step 3.
func cleanArrays(c *model.Constraints) {
	for _, arr := range []*[]string{&c.Amenities, &c.PlacesNearby, &c.PlacesNotNear} {
		for i, s := range *arr {
			(*arr)[i] = strings.ToLower(strings.TrimSpace(s))
		}
	}
}

// Step 4.
func (n *Normalizer) inferRadius(c *model.Constraints, query string) {
	if c.RadiusKm != nil || (len(c.PlacesNearby) == 0 && len(c.PlacesNotNear) == 0) {
		return
	}
	if r, ok := InferRadiusKm(query, n.vocab.VagueProximityPhrases); ok {
		c.RadiusKm = &r
	}
}

// InferRadiusKm derives a search radius from phrasing: "<N> minutes" is
// N*1.5 km driving or N*0.1 km when "walk" appears, else a vague proximity
// phrase gives 1 km.
func InferRadiusKm(text string, vaguePhrases []string) (float64, bool) {
	if m := minutesPattern.FindStringSubmatch(text); m != nil {
		minutes, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			perMinute := kmPerDrivingMinute
			if strings.Contains(strings.ToLower(text), "walk") {
				perMinute = kmPerWalkingMinute
			}
			return utils.RoundTo(minutes*perMinute, 2), true
		}
	}
	if utils.ContainsAnySubstring(text, vaguePhrases) {
		return vagueRadiusKm, true
	}
	return 0, false
}

// Step 5. The original string moves, not the canonical category name.
func (n *Normalizer) reclassifyAmenities(c *model.Constraints) {
	if len(c.Amenities) == 0 {
		return
	}
	kept := c.Amenities[:0:0]
	for _, a := range c.Amenities {
		if _, ok := utils.MatchCategory(a, n.vocab.PlaceCategories); ok {
			c.PlacesNearby = append(c.PlacesNearby, a)
			continue
		}
		kept = append(kept, a)
	}
	if len(kept) == 0 {
		kept = nil
	}
	c.Amenities = kept
}

// radiusOr returns the constraint radius or def.
func radiusOr(c model.Constraints, def float64) float64 {
	if c.RadiusKm != nil && *c.RadiusKm > 0 && !math.IsInf(*c.RadiusKm, 0) {
		return *c.RadiusKm
	}
	return def
}
