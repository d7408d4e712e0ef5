// Package geo implements the delivery-zone geometry engine.
//
// All distance calculations use the Haversine formula on WGS-84 coordinates;
// point-in-polygon uses ray casting (even-odd rule). Everything here is pure
// and synchronous: no I/O, no hidden state, deterministic for given inputs.
//
// The engine never errors on malformed zones — a zone with the wrong shape
// arity is simply non-containing and infinitely far. Callers that need to
// reject bad zones must run ValidatePolygon/ValidateCircle at ingestion time.
//
// Known limitation: no special handling of the antimeridian (±180°) or the
// poles. Zones spanning the date line will compute incorrectly. Acceptable
// for a regional single-country delivery service.
package geo

import (
	"math"

	"github.com/freshkart/geofence/internal/model"
)

// ─── Constants ──────────────────────────────────────────────

const (
	// EarthRadiusKm is the mean radius of Earth in kilometers.
	EarthRadiusKm = 6371.0

	// RingClosureToleranceKm is how far apart a polygon ring's first and
	// last vertices may be while still counting as closed (~10 m).
	RingClosureToleranceKm = 0.01

	// MinCircleRadiusKm / MaxCircleRadiusKm bound a valid circle zone.
	// Below 100 m a zone is smaller than GPS accuracy; above 50 km it is
	// no longer a city delivery area.
	MinCircleRadiusKm = 0.1
	MaxCircleRadiusKm = 50.0
)

// ─── Distance ───────────────────────────────────────────────

// HaversineKm returns the great-circle distance between two points in
// kilometers.
//
// Complexity: O(1)
func HaversineKm(a, b model.Coordinate) float64 {
	dLat := degToRad(b.Lat - a.Lat)
	dLng := degToRad(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)

	h := sinLat*sinLat +
		math.Cos(degToRad(a.Lat))*math.Cos(degToRad(b.Lat))*sinLng*sinLng

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// ─── Containment ────────────────────────────────────────────

// ContainsPoint reports whether the point lies inside the zone.
//
// Dispatches on the zone's shape:
//   - circle: Haversine distance to center ≤ radius (boundary inclusive)
//   - polygon: ray casting, even-odd rule
//
// An inactive zone never contains anything, regardless of geometry.
// Malformed zones (missing center, <3 vertices) return false rather than
// erroring.
//
// Complexity: O(1) for circles, O(V) for polygons.
func ContainsPoint(p model.Coordinate, zone model.DeliveryZone) bool {
	if !zone.IsActive {
		return false
	}

	switch zone.ZoneType {
	case model.ZoneCircle:
		if zone.Center == nil || zone.RadiusKm <= 0 {
			return false
		}
		return HaversineKm(p, *zone.Center) <= zone.RadiusKm

	case model.ZonePolygon:
		return pointInPolygon(p, zone.Boundary)
	}

	return false
}

// pointInPolygon implements ray casting with the even-odd rule.
//
// For each edge (ring[i], ring[(i+1) mod n]) we count a crossing when the
// edge straddles the point's latitude AND the edge's longitude at that
// latitude (linear interpolation) lies east of the point. The point is
// inside iff the crossing count is odd.
//
// The ring may be open or closed: the modulo wrap supplies the closing edge
// either way (a duplicated last vertex contributes a degenerate edge that
// never straddles any latitude).
func pointInPolygon(p model.Coordinate, ring []model.Coordinate) bool {
	if len(ring) < 3 {
		return false
	}

	inside := false
	n := len(ring)
	for i := 0; i < n; i++ {
		a := ring[i]
		b := ring[(i+1)%n]

		if (a.Lat > p.Lat) == (b.Lat > p.Lat) {
			continue // edge does not straddle the point's latitude
		}

		lngAtLat := a.Lng + (p.Lat-a.Lat)/(b.Lat-a.Lat)*(b.Lng-a.Lng)
		if lngAtLat > p.Lng {
			inside = !inside
		}
	}
	return inside
}

// ─── Proximity ──────────────────────────────────────────────

// DistanceToZoneKm returns the distance from the point to the zone's
// reference geometry, in kilometers.
//
// Circles measure to the center; polygons measure to the NEAREST VERTEX,
// not the nearest edge. The vertex-only measure understates proximity for
// points near an edge midpoint but far from all vertices. It is preserved
// deliberately: ranking behavior stays identical to the shipped mobile app,
// and at the km scale the classifier operates on, the difference does not
// move any tier boundary.
//
// ok is false for inactive or malformed zones.
func DistanceToZoneKm(p model.Coordinate, zone model.DeliveryZone) (float64, bool) {
	if !zone.IsActive {
		return 0, false
	}

	switch zone.ZoneType {
	case model.ZoneCircle:
		if zone.Center == nil {
			return 0, false
		}
		return HaversineKm(p, *zone.Center), true

	case model.ZonePolygon:
		if len(zone.Boundary) == 0 {
			return 0, false
		}
		min := math.MaxFloat64
		for _, v := range zone.Boundary {
			if d := HaversineKm(p, v); d < min {
				min = d
			}
		}
		return min, true
	}

	return 0, false
}

// FindClosestZone returns the active zone nearest to the point, or nil when
// no active zone with a usable shape exists.
//
// Complexity: O(Z × V) over zones and their vertices.
func FindClosestZone(p model.Coordinate, zones []model.DeliveryZone) *model.DeliveryZone {
	best := math.MaxFloat64
	var closest *model.DeliveryZone

	for i := range zones {
		d, ok := DistanceToZoneKm(p, zones[i])
		if !ok {
			continue
		}
		if d < best {
			best = d
			closest = &zones[i]
		}
	}
	return closest
}

// ─── Validation ─────────────────────────────────────────────

// ValidatePolygon reports whether the points form an acceptable zone ring:
// at least 3 vertices, with first and last within RingClosureToleranceKm
// of each other (a triangle whose endpoints coincide passes).
func ValidatePolygon(points []model.Coordinate) bool {
	if len(points) < 3 {
		return false
	}
	return HaversineKm(points[0], points[len(points)-1]) < RingClosureToleranceKm
}

// ValidateCircle reports whether the center is a real coordinate and the
// radius lies in (MinCircleRadiusKm, MaxCircleRadiusKm].
func ValidateCircle(center model.Coordinate, radiusKm float64) bool {
	if center.Lat < -90 || center.Lat > 90 {
		return false
	}
	if center.Lng < -180 || center.Lng > 180 {
		return false
	}
	return radiusKm > MinCircleRadiusKm && radiusKm <= MaxCircleRadiusKm
}

// ─── Bounding Box ───────────────────────────────────────────

// Box is an axis-aligned latitude/longitude bounding box.
type Box struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLng float64 `json:"max_lng"`
}

// BoundingBox computes the axis-aligned bounds of a vertex set.
//
// Intended as a cheap pre-filter before the O(V) polygon test when scanning
// many zones; ContainsPoint does not apply it implicitly.
//
// Complexity: O(V)
func BoundingBox(points []model.Coordinate) Box {
	if len(points) == 0 {
		return Box{}
	}

	box := Box{
		MinLat: points[0].Lat, MaxLat: points[0].Lat,
		MinLng: points[0].Lng, MaxLng: points[0].Lng,
	}
	for _, pt := range points[1:] {
		box.MinLat = math.Min(box.MinLat, pt.Lat)
		box.MaxLat = math.Max(box.MaxLat, pt.Lat)
		box.MinLng = math.Min(box.MinLng, pt.Lng)
		box.MaxLng = math.Max(box.MaxLng, pt.Lng)
	}
	return box
}

// InBoundingBox reports whether the point lies inside the box, boundary
// inclusive.
//
// Complexity: O(1)
func InBoundingBox(p model.Coordinate, box Box) bool {
	return p.Lat >= box.MinLat && p.Lat <= box.MaxLat &&
		p.Lng >= box.MinLng && p.Lng <= box.MaxLng
}

// ─── Helpers ────────────────────────────────────────────────

func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
