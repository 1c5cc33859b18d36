package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"propsearch/internal/model"
)

// LocationResolver turns constraint locations into probe points.
type LocationResolver struct {
	geocoder Geocoder
	logger   *zap.Logger
}

// NewLocationResolver creates a resolver backed by a geocoder.
func NewLocationResolver(g Geocoder, logger *zap.Logger) *LocationResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocationResolver{geocoder: g, logger: logger}
}

// CandidateNames splits locations on commas, lower-cases and trims them and
// drops empty and repeated names, keeping first-seen order.
func CandidateNames(locations []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, loc := range locations {
		for _, part := range strings.Split(loc, ",") {
			name := strings.ToLower(strings.TrimSpace(part))
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

// Resolve geocodes every candidate name. Names that are not found or whose
// lookup fails are skipped; several locations form a union of probes.
func (r *LocationResolver) Resolve(ctx context.Context, locations []string) []model.Coordinates {
	var probes []model.Coordinates
	for _, name := range CandidateNames(locations) {
		pt, err := r.geocoder.Geocode(ctx, name)
		if err != nil {
			r.logger.Warn("Geocoding failed, skipping location", zap.String("location", name), zap.Error(err))
			continue
		}
		if pt == nil {
			r.logger.Debug("Location not found", zap.String("location", name))
			continue
		}
		probes = append(probes, *pt)
	}
	return probes
}
