// Package model contains domain models for the delivery-zone geofencing
// service. Zone rows map to the PostgreSQL schema in
// migrations/001_create_schema.up.sql.
package model

import (
	"time"

	"github.com/google/uuid"
)

// ─── Enums ──────────────────────────────────────────────────

// ZoneType selects which shape payload of a DeliveryZone is populated.
type ZoneType string

const (
	ZonePolygon ZoneType = "polygon"
	ZoneCircle  ZoneType = "circle"
)

// AccessLevel classifies a coordinate's relationship to the zone set.
type AccessLevel string

const (
	// AccessFull: the point is contained in at least one active zone.
	AccessFull AccessLevel = "full_access"
	// AccessViewingOnly: not contained, but close enough to browse the catalog.
	AccessViewingOnly AccessLevel = "viewing_only"
	// AccessNone: not contained and not near any serviceable area.
	AccessNone AccessLevel = "no_access"
)

// PermissionStatus mirrors the device location-permission states.
//
// Denied and DeniedForever both route to the same readiness outcome today,
// but they stay distinct values: the UI paths for "ask again" vs "open
// settings" differ, and collapsing them here would lose that information.
type PermissionStatus string

const (
	PermissionWhileInUse    PermissionStatus = "while_in_use"
	PermissionAlways        PermissionStatus = "always"
	PermissionDenied        PermissionStatus = "denied"
	PermissionDeniedForever PermissionStatus = "denied_forever"
)

// Granted reports whether the status allows reading the device location.
func (p PermissionStatus) Granted() bool {
	return p == PermissionWhileInUse || p == PermissionAlways
}

// ReadinessStatus is the terminal state of one readiness check.
type ReadinessStatus string

const (
	StatusReady        ReadinessStatus = "ready"
	StatusNeedsSetup   ReadinessStatus = "needs_setup"
	StatusOutOfService ReadinessStatus = "out_of_service"
	StatusError        ReadinessStatus = "error"
	StatusTimeout      ReadinessStatus = "timeout"
)

// ─── Coordinate ─────────────────────────────────────────────

// Coordinate represents a WGS-84 geographic point (EPSG:4326) in decimal
// degrees. It is a plain value type: comparison and map keys work
// structurally.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ─── Domain Models ──────────────────────────────────────────

// DeliveryZone maps to the `delivery_zones` table.
//
// Exactly one shape payload is meaningful, selected by ZoneType:
//   - ZonePolygon: Boundary holds an ordered ring of ≥3 vertices, expected
//     closed (first ≈ last within ~10 m) but tolerated open.
//   - ZoneCircle: Center and RadiusKm hold the disc, 0.1 < RadiusKm ≤ 50.
//
// Consistency between ZoneType and the payload is enforced at ingestion
// (see geo.ValidatePolygon / geo.ValidateCircle); the geometry engine treats
// malformed zones as non-containing rather than erroring.
type DeliveryZone struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	ZoneType  ZoneType     `json:"zone_type"`
	IsActive  bool         `json:"is_active"`
	Boundary  []Coordinate `json:"boundary,omitempty"`
	Center    *Coordinate  `json:"center,omitempty"`
	RadiusKm  float64      `json:"radius_km,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// LocationData is a resolved device fix, optionally enriched with a
// human-readable address. The address is best effort and may be empty.
type LocationData struct {
	Coordinate Coordinate `json:"coordinate"`
	Address    string     `json:"address,omitempty"`
}

// ─── Readiness Result ───────────────────────────────────────

// LocationReadinessResult is the single terminal output of one readiness
// check. It is created fresh per check and never mutated after return.
//
// LocationData is populated whenever a fix was obtained, even when the
// overall status is not ready, so the UI can show "here is roughly where
// you are, but we don't deliver there".
type LocationReadinessResult struct {
	Status             ReadinessStatus `json:"status"`
	LocationData       *LocationData   `json:"location_data,omitempty"`
	ErrorMessage       string          `json:"error_message,omitempty"`
	IsServiceAvailable bool            `json:"is_service_available"`
}

// ShouldGoToLocationAccess reports whether the UI should route to the
// location-access/setup screen (GPS off, permission missing, or the check
// could not complete).
func (r *LocationReadinessResult) ShouldGoToLocationAccess() bool {
	switch r.Status {
	case StatusNeedsSetup, StatusError, StatusTimeout:
		return true
	}
	return false
}

// ShouldGoToServiceUnavailable reports whether the UI should route to the
// "we don't deliver here" screen. Only out_of_service maps there.
func (r *LocationReadinessResult) ShouldGoToServiceUnavailable() bool {
	return r.Status == StatusOutOfService
}
