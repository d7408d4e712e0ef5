package location

import (
	"context"
	"errors"
	"testing"

	"github.com/freshkart/geofence/internal/model"
)

type fakeGeocoder struct {
	address string
	err     error
}

func (g *fakeGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (string, error) {
	return g.address, g.err
}

func TestSnapshotProvider_PassThrough(t *testing.T) {
	fix := model.Coordinate{Lat: 25.52, Lng: 90.22}
	p := NewSnapshotProvider(DeviceSnapshot{
		ServiceEnabled: true,
		Permission:     model.PermissionWhileInUse,
		Fix:            &fix,
	}, nil)

	enabled, err := p.ServiceEnabled(context.Background())
	if err != nil || !enabled {
		t.Errorf("ServiceEnabled = (%v, %v), want (true, nil)", enabled, err)
	}

	status, _ := p.PermissionStatus(context.Background())
	if status != model.PermissionWhileInUse {
		t.Errorf("PermissionStatus = %s", status)
	}

	coord, _ := p.CoordinateOnly(context.Background())
	if coord == nil || *coord != fix {
		t.Errorf("CoordinateOnly = %v, want reported fix", coord)
	}
}

func TestSnapshotProvider_RequestPermissionDoesNotEscalate(t *testing.T) {
	p := NewSnapshotProvider(DeviceSnapshot{Permission: model.PermissionDenied}, nil)
	status, err := p.RequestPermission(context.Background())
	if err != nil {
		t.Fatalf("RequestPermission error: %v", err)
	}
	if status != model.PermissionDenied {
		t.Errorf("RequestPermission = %s, want denied unchanged (server can't prompt)", status)
	}
}

func TestSnapshotProvider_AddressEnrichment(t *testing.T) {
	fix := model.Coordinate{Lat: 25.52, Lng: 90.22}
	p := NewSnapshotProvider(DeviceSnapshot{Fix: &fix}, &fakeGeocoder{address: "Tura Bazaar"})

	loc, err := p.CoordinateWithAddress(context.Background())
	if err != nil {
		t.Fatalf("CoordinateWithAddress error: %v", err)
	}
	if loc == nil || loc.Address != "Tura Bazaar" || loc.Coordinate != fix {
		t.Errorf("CoordinateWithAddress = %+v", loc)
	}
}

func TestSnapshotProvider_GeocoderErrorPropagates(t *testing.T) {
	fix := model.Coordinate{Lat: 25.52, Lng: 90.22}
	p := NewSnapshotProvider(DeviceSnapshot{Fix: &fix}, &fakeGeocoder{err: errors.New("rate limited")})

	if _, err := p.CoordinateWithAddress(context.Background()); err == nil {
		t.Errorf("CoordinateWithAddress error = nil, want geocoder failure to propagate")
	}
}

func TestSnapshotProvider_NoFixNoGeocodeCall(t *testing.T) {
	p := NewSnapshotProvider(DeviceSnapshot{}, &fakeGeocoder{address: "should not matter"})
	loc, err := p.CoordinateWithAddress(context.Background())
	if err != nil || loc != nil {
		t.Errorf("CoordinateWithAddress = (%v, %v), want (nil, nil) without a fix", loc, err)
	}
}
