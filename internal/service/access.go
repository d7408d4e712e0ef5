// Package service contains the core business logic for delivery-zone
// geofencing: access-level classification and the location-readiness
// pipeline.
package service

import (
	"context"
	"fmt"
	"log"

	"github.com/freshkart/geofence/internal/model"
	"github.com/freshkart/geofence/pkg/geo"
)

// ─── ZoneSource ─────────────────────────────────────────────

// ZoneSource supplies the active delivery zones to classify against.
// Implemented by repository.ZoneRepository; how or whether the source
// refreshes its data mid-call is its own concern and opaque here.
type ZoneSource interface {
	ActiveZones(ctx context.Context) ([]model.DeliveryZone, error)
}

// ─── AccessService ──────────────────────────────────────────

// AccessService classifies a coordinate's access level against the zone set.
//
// Policy (the geometry engine only supplies containment and distance facts;
// the tiering below is this service's decision):
//
//	contained in ≥1 active zone            → full_access
//	closest active zone ≤ viewing radius   → viewing_only
//	otherwise                              → no_access
type AccessService struct {
	zones           ZoneSource
	viewingRadiusKm float64
}

// NewAccessService creates an access classifier with the given policy radius.
func NewAccessService(zones ZoneSource, viewingRadiusKm float64) *AccessService {
	return &AccessService{zones: zones, viewingRadiusKm: viewingRadiusKm}
}

// DetectAccessLevel classifies the coordinate. It fails only when the zone
// set itself cannot be loaded; an empty zone set is a valid no_access answer.
func (s *AccessService) DetectAccessLevel(ctx context.Context, p model.Coordinate) (model.AccessLevel, error) {
	zones, err := s.zones.ActiveZones(ctx)
	if err != nil {
		return "", fmt.Errorf("load zones: %w", err)
	}

	for i := range zones {
		if geo.ContainsPoint(p, zones[i]) {
			log.Printf("[access] (%.4f,%.4f) inside zone %q → full access", p.Lat, p.Lng, zones[i].Name)
			return model.AccessFull, nil
		}
	}

	closest := geo.FindClosestZone(p, zones)
	if closest == nil {
		log.Printf("[access] (%.4f,%.4f) no active zones → no access", p.Lat, p.Lng)
		return model.AccessNone, nil
	}

	dist, ok := geo.DistanceToZoneKm(p, *closest)
	if ok && dist <= s.viewingRadiusKm {
		log.Printf("[access] (%.4f,%.4f) %.1f km from zone %q → viewing only", p.Lat, p.Lng, dist, closest.Name)
		return model.AccessViewingOnly, nil
	}

	log.Printf("[access] (%.4f,%.4f) %.1f km from nearest zone %q → no access", p.Lat, p.Lng, dist, closest.Name)
	return model.AccessNone, nil
}
