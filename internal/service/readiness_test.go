package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/freshkart/geofence/internal/model"
)

// ─── Stubs ──────────────────────────────────────────────────

// stubProvider is a scriptable LocationProvider. Delays respect context
// cancellation so a losing race branch stops early, like a real SDK wrapper.
type stubProvider struct {
	enabled      bool
	enabledDelay time.Duration

	permission  model.PermissionStatus
	afterPrompt model.PermissionStatus

	fix      *model.Coordinate
	fixDelay time.Duration
	fixErr   error

	address      string
	addressErr   error
	addressDelay time.Duration

	coordinateCalls int
	promptCalls     int

	panicOn string // method name that should panic
}

func (p *stubProvider) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

func (p *stubProvider) ServiceEnabled(ctx context.Context) (bool, error) {
	if p.panicOn == "ServiceEnabled" {
		panic("stub exploded")
	}
	p.sleep(ctx, p.enabledDelay)
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	return p.enabled, nil
}

func (p *stubProvider) PermissionStatus(ctx context.Context) (model.PermissionStatus, error) {
	return p.permission, nil
}

func (p *stubProvider) RequestPermission(ctx context.Context) (model.PermissionStatus, error) {
	p.promptCalls++
	return p.afterPrompt, nil
}

func (p *stubProvider) CoordinateOnly(ctx context.Context) (*model.Coordinate, error) {
	p.coordinateCalls++
	p.sleep(ctx, p.fixDelay)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return p.fix, p.fixErr
}

func (p *stubProvider) CoordinateWithAddress(ctx context.Context) (*model.LocationData, error) {
	p.sleep(ctx, p.addressDelay)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if p.addressErr != nil {
		return nil, p.addressErr
	}
	if p.fix == nil {
		return nil, nil
	}
	return &model.LocationData{Coordinate: *p.fix, Address: p.address}, nil
}

// stubClassifier returns a fixed level or error.
type stubClassifier struct {
	level model.AccessLevel
	err   error
	delay time.Duration
}

func (c *stubClassifier) DetectAccessLevel(ctx context.Context, _ model.Coordinate) (model.AccessLevel, error) {
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return c.level, c.err
}

// testTimeouts keeps every stage budget small so timeout scenarios run in
// milliseconds. Delays used against them are 10x the budget.
func testTimeouts() ReadinessTimeouts {
	return ReadinessTimeouts{
		BasicChecks:    50 * time.Millisecond,
		CoordinateFix:  50 * time.Millisecond,
		AddressLookup:  30 * time.Millisecond,
		ZoneValidation: 50 * time.Millisecond,
	}
}

var testFix = model.Coordinate{Lat: 25.52, Lng: 90.22}

func grantedProvider() *stubProvider {
	return &stubProvider{
		enabled:    true,
		permission: model.PermissionWhileInUse,
		fix:        &testFix,
		address:    "Tura, Meghalaya",
	}
}

// ─── Stage 1 ────────────────────────────────────────────────

func TestCheck_ServiceDisabled(t *testing.T) {
	provider := grantedProvider()
	provider.enabled = false

	svc := NewReadinessService(provider, &stubClassifier{level: model.AccessFull}, testTimeouts())
	res := svc.CheckLocationReadiness(context.Background())

	if res.Status != model.StatusNeedsSetup {
		t.Errorf("status = %s, want needs_setup", res.Status)
	}
	if provider.coordinateCalls != 0 {
		t.Errorf("coordinate acquisition attempted %d times with service disabled, want 0", provider.coordinateCalls)
	}
	if !res.ShouldGoToLocationAccess() {
		t.Errorf("ShouldGoToLocationAccess = false, want true")
	}
}

func TestCheck_PermissionDeniedForever(t *testing.T) {
	provider := grantedProvider()
	provider.permission = model.PermissionDeniedForever

	svc := NewReadinessService(provider, &stubClassifier{level: model.AccessFull}, testTimeouts())
	res := svc.CheckLocationReadiness(context.Background())

	if res.Status != model.StatusNeedsSetup {
		t.Errorf("status = %s, want needs_setup", res.Status)
	}
	if provider.promptCalls != 0 {
		t.Errorf("prompted a permanently-denied user %d times, want 0", provider.promptCalls)
	}
}

func TestCheck_PermissionGrantedAfterPrompt(t *testing.T) {
	provider := grantedProvider()
	provider.permission = model.PermissionDenied
	provider.afterPrompt = model.PermissionWhileInUse

	svc := NewReadinessService(provider, &stubClassifier{level: model.AccessFull}, testTimeouts())
	res := svc.CheckLocationReadiness(context.Background())

	if res.Status != model.StatusReady {
		t.Errorf("status = %s, want ready after granted prompt", res.Status)
	}
	if provider.promptCalls != 1 {
		t.Errorf("promptCalls = %d, want 1", provider.promptCalls)
	}
}

func TestCheck_PermissionStillDeniedAfterPrompt(t *testing.T) {
	provider := grantedProvider()
	provider.permission = model.PermissionDenied
	provider.afterPrompt = model.PermissionDenied

	svc := NewReadinessService(provider, &stubClassifier{level: model.AccessFull}, testTimeouts())
	res := svc.CheckLocationReadiness(context.Background())

	if res.Status != model.StatusNeedsSetup {
		t.Errorf("status = %s, want needs_setup", res.Status)
	}
}

func TestCheck_BasicChecksTimeout(t *testing.T) {
	provider := grantedProvider()
	provider.enabledDelay = 500 * time.Millisecond // 10x the stage budget

	svc := NewReadinessService(provider, &stubClassifier{level: model.AccessFull}, testTimeouts())
	res := svc.CheckLocationReadiness(context.Background())

	if res.Status != model.StatusNeedsSetup {
		t.Errorf("status = %s, want needs_setup on hung permission query", res.Status)
	}
}

// ─── Stage 2 ────────────────────────────────────────────────

func TestCheck_CoordinateTimeout(t *testing.T) {
	provider := grantedProvider()
	provider.fixDelay = 500 * time.Millisecond

	svc := NewReadinessService(provider, &stubClassifier{level: model.AccessFull}, testTimeouts())
	res := svc.CheckLocationReadiness(context.Background())

	if res.Status != model.StatusTimeout {
		t.Errorf("status = %s, want timeout", res.Status)
	}
	if res.LocationData != nil {
		t.Errorf("LocationData = %+v, want nil when no fix was obtained", res.LocationData)
	}
}

func TestCheck_NilFix(t *testing.T) {
	provider := grantedProvider()
	provider.fix = nil

	svc := NewReadinessService(provider, &stubClassifier{level: model.AccessFull}, testTimeouts())
	res := svc.CheckLocationReadiness(context.Background())

	if res.Status != model.StatusTimeout {
		t.Errorf("status = %s, want timeout on nil fix", res.Status)
	}
}

func TestCheck_AddressEnrichmentFailureIsNotFatal(t *testing.T) {
	provider := grantedProvider()
	provider.addressErr = errors.New("geocoder unreachable")

	svc := NewReadinessService(provider, &stubClassifier{level: model.AccessFull}, testTimeouts())
	res := svc.CheckLocationReadiness(context.Background())

	if res.Status != model.StatusReady {
		t.Errorf("status = %s, want ready despite failed enrichment", res.Status)
	}
	if res.LocationData == nil || res.LocationData.Coordinate != testFix {
		t.Fatalf("LocationData = %+v, want bare coordinate", res.LocationData)
	}
	if res.LocationData.Address != "" {
		t.Errorf("Address = %q, want empty after failed enrichment", res.LocationData.Address)
	}
}

func TestCheck_SlowAddressLookupIsDiscarded(t *testing.T) {
	provider := grantedProvider()
	provider.addressDelay = 500 * time.Millisecond

	svc := NewReadinessService(provider, &stubClassifier{level: model.AccessFull}, testTimeouts())

	start := time.Now()
	res := svc.CheckLocationReadiness(context.Background())
	elapsed := time.Since(start)

	if res.Status != model.StatusReady {
		t.Errorf("status = %s, want ready", res.Status)
	}
	if res.LocationData.Address != "" {
		t.Errorf("Address = %q, want empty (late result discarded)", res.LocationData.Address)
	}
	// The check must not have waited out the full enrichment delay.
	if elapsed > 400*time.Millisecond {
		t.Errorf("check took %s, should have abandoned the slow lookup at its budget", elapsed)
	}
}

func TestCheck_AddressEnrichmentSuccess(t *testing.T) {
	provider := grantedProvider()

	svc := NewReadinessService(provider, &stubClassifier{level: model.AccessFull}, testTimeouts())
	res := svc.CheckLocationReadiness(context.Background())

	if res.LocationData == nil || res.LocationData.Address != "Tura, Meghalaya" {
		t.Errorf("LocationData = %+v, want enriched address", res.LocationData)
	}
}

// ─── Stage 3 ────────────────────────────────────────────────

func TestCheck_FullAccess(t *testing.T) {
	svc := NewReadinessService(grantedProvider(), &stubClassifier{level: model.AccessFull}, testTimeouts())
	res := svc.CheckLocationReadiness(context.Background())

	if res.Status != model.StatusReady {
		t.Errorf("status = %s, want ready", res.Status)
	}
	if !res.IsServiceAvailable {
		t.Errorf("IsServiceAvailable = false, want true")
	}
	if res.ShouldGoToLocationAccess() || res.ShouldGoToServiceUnavailable() {
		t.Errorf("ready result should not route to any fallback screen")
	}
}

func TestCheck_OutOfZoneKeepsLocation(t *testing.T) {
	for _, level := range []model.AccessLevel{model.AccessViewingOnly, model.AccessNone} {
		svc := NewReadinessService(grantedProvider(), &stubClassifier{level: level}, testTimeouts())
		res := svc.CheckLocationReadiness(context.Background())

		if res.Status != model.StatusOutOfService {
			t.Errorf("%s: status = %s, want out_of_service", level, res.Status)
		}
		if res.IsServiceAvailable {
			t.Errorf("%s: IsServiceAvailable = true, want false", level)
		}
		if res.LocationData == nil {
			t.Errorf("%s: LocationData = nil, want populated even when out of service", level)
		}
		if !res.ShouldGoToServiceUnavailable() {
			t.Errorf("%s: ShouldGoToServiceUnavailable = false, want true", level)
		}
	}
}

func TestCheck_ClassifierErrorIsOutOfService(t *testing.T) {
	svc := NewReadinessService(grantedProvider(), &stubClassifier{err: errors.New("zone backend down")}, testTimeouts())
	res := svc.CheckLocationReadiness(context.Background())

	if res.Status != model.StatusOutOfService {
		t.Errorf("status = %s, want out_of_service (failed zone check is not an application error)", res.Status)
	}
	if res.LocationData == nil {
		t.Errorf("LocationData = nil, want populated")
	}
	if !strings.Contains(res.ErrorMessage, "zone") {
		t.Errorf("ErrorMessage = %q, want a diagnostic mentioning the zone check", res.ErrorMessage)
	}
}

func TestCheck_ClassifierTimeoutIsOutOfService(t *testing.T) {
	classifier := &stubClassifier{level: model.AccessFull, delay: 500 * time.Millisecond}
	svc := NewReadinessService(grantedProvider(), classifier, testTimeouts())
	res := svc.CheckLocationReadiness(context.Background())

	if res.Status != model.StatusOutOfService {
		t.Errorf("status = %s, want out_of_service on classifier timeout", res.Status)
	}
}

// ─── Top level ──────────────────────────────────────────────

func TestCheck_PanicBecomesErrorStatus(t *testing.T) {
	provider := grantedProvider()
	provider.panicOn = "ServiceEnabled"

	svc := NewReadinessService(provider, &stubClassifier{level: model.AccessFull}, testTimeouts())
	res := svc.CheckLocationReadiness(context.Background())

	if res.Status != model.StatusError {
		t.Errorf("status = %s, want error", res.Status)
	}
	if res.ErrorMessage == "" {
		t.Errorf("ErrorMessage empty, want a diagnostic")
	}
	if !res.ShouldGoToLocationAccess() {
		t.Errorf("error status should route to the location-access screen")
	}
}

func TestCheck_Idempotent(t *testing.T) {
	svc := NewReadinessService(grantedProvider(), &stubClassifier{level: model.AccessFull}, testTimeouts())
	first := svc.CheckLocationReadiness(context.Background())
	second := svc.CheckLocationReadiness(context.Background())

	if first.Status != second.Status {
		t.Errorf("repeated checks disagree: %s vs %s", first.Status, second.Status)
	}
}
