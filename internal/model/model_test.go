package model

import "testing"

func TestShouldGoToLocationAccess(t *testing.T) {
	cases := []struct {
		status ReadinessStatus
		want   bool
	}{
		{StatusNeedsSetup, true},
		{StatusError, true},
		{StatusTimeout, true},
		{StatusReady, false},
		{StatusOutOfService, false},
	}
	for _, tc := range cases {
		r := LocationReadinessResult{Status: tc.status}
		if got := r.ShouldGoToLocationAccess(); got != tc.want {
			t.Errorf("ShouldGoToLocationAccess(%s) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestShouldGoToServiceUnavailable(t *testing.T) {
	for _, status := range []ReadinessStatus{StatusReady, StatusNeedsSetup, StatusError, StatusTimeout} {
		r := LocationReadinessResult{Status: status}
		if r.ShouldGoToServiceUnavailable() {
			t.Errorf("ShouldGoToServiceUnavailable(%s) = true, want false", status)
		}
	}
	r := LocationReadinessResult{Status: StatusOutOfService}
	if !r.ShouldGoToServiceUnavailable() {
		t.Errorf("ShouldGoToServiceUnavailable(out_of_service) = false, want true")
	}
}

func TestPermissionGranted(t *testing.T) {
	cases := []struct {
		status PermissionStatus
		want   bool
	}{
		{PermissionWhileInUse, true},
		{PermissionAlways, true},
		{PermissionDenied, false},
		{PermissionDeniedForever, false},
	}
	for _, tc := range cases {
		if got := tc.status.Granted(); got != tc.want {
			t.Errorf("Granted(%s) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestCoordinateStructuralEquality(t *testing.T) {
	a := Coordinate{Lat: 25.5138, Lng: 90.2172}
	b := Coordinate{Lat: 25.5138, Lng: 90.2172}
	if a != b {
		t.Errorf("identical coordinates compare unequal")
	}
	seen := map[Coordinate]bool{a: true}
	if !seen[b] {
		t.Errorf("coordinate not usable as a map key structurally")
	}
}
