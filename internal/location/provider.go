// Package location adapts a device-state snapshot reported by a mobile
// client into the LocationProvider the readiness pipeline consumes.
//
// The server cannot read the phone's GPS itself: the app reports what its
// OS told it (service flag, permission, last fix) with each readiness
// request, and the only genuinely server-side concern — reverse geocoding —
// is layered on top.
package location

import (
	"context"

	"github.com/freshkart/geofence/internal/geocoder"
	"github.com/freshkart/geofence/internal/model"
)

// DeviceSnapshot is the device state one readiness request carries.
type DeviceSnapshot struct {
	ServiceEnabled bool
	Permission     model.PermissionStatus
	Fix            *model.Coordinate
}

// SnapshotProvider implements service.LocationProvider over a snapshot
// plus a reverse geocoder for address enrichment.
type SnapshotProvider struct {
	snap     DeviceSnapshot
	geocoder geocoder.ReverseGeocoder
}

// NewSnapshotProvider wraps one request's snapshot. geo may be nil, in
// which case address enrichment always reports no data and the pipeline
// proceeds with the bare coordinate.
func NewSnapshotProvider(snap DeviceSnapshot, geo geocoder.ReverseGeocoder) *SnapshotProvider {
	return &SnapshotProvider{snap: snap, geocoder: geo}
}

// ServiceEnabled reports the flag the device sent.
func (p *SnapshotProvider) ServiceEnabled(_ context.Context) (bool, error) {
	return p.snap.ServiceEnabled, nil
}

// PermissionStatus reports the permission the device sent.
func (p *SnapshotProvider) PermissionStatus(_ context.Context) (model.PermissionStatus, error) {
	return p.snap.Permission, nil
}

// RequestPermission cannot prompt anyone from the server side; the status
// stays whatever the device reported. The app prompts locally and re-runs
// the whole check, which is the caller-retries contract anyway.
func (p *SnapshotProvider) RequestPermission(_ context.Context) (model.PermissionStatus, error) {
	return p.snap.Permission, nil
}

// CoordinateOnly returns the reported fix, nil when the device had none.
func (p *SnapshotProvider) CoordinateOnly(_ context.Context) (*model.Coordinate, error) {
	return p.snap.Fix, nil
}

// CoordinateWithAddress enriches the reported fix with a reverse-geocoded
// address. Errors propagate so the pipeline can log and fall back to the
// bare coordinate.
func (p *SnapshotProvider) CoordinateWithAddress(ctx context.Context) (*model.LocationData, error) {
	if p.snap.Fix == nil || p.geocoder == nil {
		return nil, nil
	}
	addr, err := p.geocoder.ReverseGeocode(ctx, p.snap.Fix.Lat, p.snap.Fix.Lng)
	if err != nil {
		return nil, err
	}
	return &model.LocationData{Coordinate: *p.snap.Fix, Address: addr}, nil
}
