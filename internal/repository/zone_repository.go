// Package repository provides data access for delivery zones.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/freshkart/geofence/internal/metrics"
	"github.com/freshkart/geofence/internal/model"
	"github.com/freshkart/geofence/pkg/geo"
)

// ─── Errors ─────────────────────────────────────────────────

var (
	ErrZoneNotFound = errors.New("delivery zone not found")
	ErrInvalidShape = errors.New("zone shape payload is inconsistent with its type")
)

// ─── ZoneRepository ─────────────────────────────────────────

const (
	// zoneCacheKey holds the JSON snapshot of active, shape-valid zones.
	zoneCacheKey = "zones:active"
)

// ZoneRepository reads and writes delivery zones in PostgreSQL and keeps a
// short-lived snapshot of the active set in Redis.
//
// The snapshot is what every readiness check classifies against, so the
// read path is: Redis fast path (<1ms) → PostgreSQL slow path → re-cache.
// The snapshot is immutable for the duration of one check; writers only
// invalidate, never mutate in place.
type ZoneRepository struct {
	pool     *pgxpool.Pool
	redis    *redis.Client
	cacheTTL time.Duration
	metrics  *metrics.Collector
}

// NewZoneRepository creates a zone repository. metrics may be nil.
func NewZoneRepository(pool *pgxpool.Pool, rdb *redis.Client, cacheTTL time.Duration, m *metrics.Collector) *ZoneRepository {
	return &ZoneRepository{pool: pool, redis: rdb, cacheTTL: cacheTTL, metrics: m}
}

// ─── Reads ──────────────────────────────────────────────────

// ActiveZones returns the active, shape-valid delivery zones.
//
// Strategy:
//  1. Try the Redis snapshot (fast path).
//  2. On miss, query PostgreSQL, drop rows that fail shape validation,
//     and cache the result (fire-and-forget, don't block on cache errors).
//
// Rows failing validation are logged and skipped here, at ingestion into
// the snapshot — the geometry engine never sees a malformed zone as
// anything but "non-containing", so dropping them early keeps query-time
// behavior boring.
func (r *ZoneRepository) ActiveZones(ctx context.Context) ([]model.DeliveryZone, error) {
	// ── Fast path: Redis snapshot ───────────────────────
	if raw, err := r.redis.Get(ctx, zoneCacheKey).Bytes(); err == nil {
		var zones []model.DeliveryZone
		if err := json.Unmarshal(raw, &zones); err == nil {
			r.metrics.CacheHit()
			return zones, nil
		}
		// Corrupt snapshot: fall through and rebuild it.
		log.Printf("[zones] WARNING: discarding corrupt cache snapshot")
	}
	r.metrics.CacheMiss()

	// ── Slow path: PostgreSQL ───────────────────────────
	all, err := r.queryZones(ctx, true)
	if err != nil {
		return nil, err
	}

	zones := make([]model.DeliveryZone, 0, len(all))
	for _, z := range all {
		if err := validateShape(z); err != nil {
			log.Printf("[zones] skipping zone %s (%q): %v", z.ID, z.Name, err)
			continue
		}
		zones = append(zones, z)
	}

	if raw, err := json.Marshal(zones); err == nil {
		_ = r.redis.Set(ctx, zoneCacheKey, raw, r.cacheTTL).Err()
	}

	return zones, nil
}

// ListZones returns every zone, active or not, straight from PostgreSQL.
// Used by the admin-facing listing endpoint, not by readiness checks.
func (r *ZoneRepository) ListZones(ctx context.Context) ([]model.DeliveryZone, error) {
	return r.queryZones(ctx, false)
}

// GetZone returns one zone by ID.
func (r *ZoneRepository) GetZone(ctx context.Context, id uuid.UUID) (*model.DeliveryZone, error) {
	rows, err := r.pool.Query(ctx, zoneSelect+` WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("query zone: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ErrZoneNotFound
	}
	z, err := scanZone(rows)
	if err != nil {
		return nil, err
	}
	return &z, nil
}

// ─── Writes ─────────────────────────────────────────────────

// CreateZone inserts a new zone after validating its shape payload.
// The active-zone snapshot is invalidated so the next check sees it.
func (r *ZoneRepository) CreateZone(ctx context.Context, z *model.DeliveryZone) error {
	if err := validateShape(*z); err != nil {
		return err
	}

	if z.ID == uuid.Nil {
		z.ID = uuid.New()
	}

	var boundary []byte
	if z.ZoneType == model.ZonePolygon {
		var err error
		boundary, err = json.Marshal(z.Boundary)
		if err != nil {
			return fmt.Errorf("encode boundary: %w", err)
		}
	}

	var centerLat, centerLng, radius *float64
	if z.ZoneType == model.ZoneCircle {
		centerLat, centerLng, radius = &z.Center.Lat, &z.Center.Lng, &z.RadiusKm
	}

	query := `
		INSERT INTO delivery_zones
			(id, name, zone_type, is_active, center_lat, center_lng, radius_km, boundary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		z.ID, z.Name, z.ZoneType, z.IsActive,
		centerLat, centerLng, radius, boundary,
	).Scan(&z.CreatedAt, &z.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert zone: %w", err)
	}

	r.InvalidateZoneCache(ctx)
	return nil
}

// InvalidateZoneCache drops the Redis snapshot. Call after any zone write.
func (r *ZoneRepository) InvalidateZoneCache(ctx context.Context) {
	_ = r.redis.Del(ctx, zoneCacheKey).Err()
}

// ─── Internals ──────────────────────────────────────────────

const zoneSelect = `
	SELECT id, name, zone_type, is_active,
	       center_lat, center_lng, radius_km, boundary,
	       created_at, updated_at
	FROM delivery_zones
`

type pgxRow interface {
	Scan(dest ...any) error
}

func (r *ZoneRepository) queryZones(ctx context.Context, activeOnly bool) ([]model.DeliveryZone, error) {
	query := zoneSelect
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query zones: %w", err)
	}
	defer rows.Close()

	var zones []model.DeliveryZone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

func scanZone(row pgxRow) (model.DeliveryZone, error) {
	var (
		z          model.DeliveryZone
		centerLat  *float64
		centerLng  *float64
		radius     *float64
		boundary   []byte
	)
	err := row.Scan(
		&z.ID, &z.Name, &z.ZoneType, &z.IsActive,
		&centerLat, &centerLng, &radius, &boundary,
		&z.CreatedAt, &z.UpdatedAt,
	)
	if err != nil {
		return z, fmt.Errorf("scan zone: %w", err)
	}

	if centerLat != nil && centerLng != nil {
		z.Center = &model.Coordinate{Lat: *centerLat, Lng: *centerLng}
	}
	if radius != nil {
		z.RadiusKm = *radius
	}
	if len(boundary) > 0 {
		if err := json.Unmarshal(boundary, &z.Boundary); err != nil {
			return z, fmt.Errorf("decode boundary for zone %s: %w", z.ID, err)
		}
	}
	return z, nil
}

// validateShape checks that the zone's type and payload agree, using the
// geometry engine's validators.
func validateShape(z model.DeliveryZone) error {
	switch z.ZoneType {
	case model.ZoneCircle:
		if z.Center == nil {
			return fmt.Errorf("%w: circle without center", ErrInvalidShape)
		}
		if !geo.ValidateCircle(*z.Center, z.RadiusKm) {
			return fmt.Errorf("%w: circle center/radius out of range", ErrInvalidShape)
		}
	case model.ZonePolygon:
		if !geo.ValidatePolygon(z.Boundary) {
			return fmt.Errorf("%w: polygon ring invalid (need ≥3 vertices, closed within ~10m)", ErrInvalidShape)
		}
	default:
		return fmt.Errorf("%w: unknown zone type %q", ErrInvalidShape, z.ZoneType)
	}
	return nil
}
