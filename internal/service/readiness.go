package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/freshkart/geofence/internal/model"
)

// ─── Collaborators ──────────────────────────────────────────

// LocationProvider abstracts the device-side location state a readiness
// check consumes. Every method takes a context so a losing race branch is
// cooperatively cancelled rather than fired and abandoned; implementations
// may still complete late, in which case the result is discarded.
type LocationProvider interface {
	// ServiceEnabled reports whether the device location service is on.
	ServiceEnabled(ctx context.Context) (bool, error)

	// PermissionStatus returns the current location permission.
	PermissionStatus(ctx context.Context) (model.PermissionStatus, error)

	// RequestPermission prompts for permission where possible and returns
	// the resulting status. A previously refused-and-blocked user yields
	// PermissionDeniedForever.
	RequestPermission(ctx context.Context) (model.PermissionStatus, error)

	// CoordinateOnly returns a bare fix with no network dependency, or nil
	// when no fix is available.
	CoordinateOnly(ctx context.Context) (*model.Coordinate, error)

	// CoordinateWithAddress returns a fix enriched with a reverse-geocoded
	// address. May use the network; may be slow.
	CoordinateWithAddress(ctx context.Context) (*model.LocationData, error)
}

// AccessClassifier maps a coordinate to an access level.
// Implemented by AccessService.
type AccessClassifier interface {
	DetectAccessLevel(ctx context.Context, p model.Coordinate) (model.AccessLevel, error)
}

// ─── Timeouts ───────────────────────────────────────────────

// ReadinessTimeouts holds the per-stage budgets.
type ReadinessTimeouts struct {
	BasicChecks    time.Duration // GPS-service + permission queries
	CoordinateFix  time.Duration // bare coordinate fix (cold GPS is slow)
	AddressLookup  time.Duration // optional enrichment, much shorter
	ZoneValidation time.Duration // may include a backend round trip
}

// DefaultReadinessTimeouts returns the stage budgets used in production.
func DefaultReadinessTimeouts() ReadinessTimeouts {
	return ReadinessTimeouts{
		BasicChecks:    2 * time.Second,
		CoordinateFix:  7 * time.Second,
		AddressLookup:  2 * time.Second,
		ZoneValidation: 3 * time.Second,
	}
}

// errStageTimeout marks a stage that exceeded its budget.
var errStageTimeout = errors.New("stage deadline exceeded")

// ─── ReadinessService ───────────────────────────────────────

// ReadinessService runs the location-readiness pipeline: a linear,
// bounded-time state machine that turns ambient device state into exactly
// one terminal result per invocation.
//
//	BASIC_CHECKS  (service on? permission granted?)   fail/timeout → needs_setup
//	COORDINATE    (fix, then optional address)        timeout/nil  → timeout
//	ZONE_CHECK    (classify access level)             full → ready; else/fail → out_of_service
//	any stage panicking                                            → error
//
// States are terminal; there is no retry inside one invocation. The service
// holds no state between calls and is safe for concurrent use.
type ReadinessService struct {
	provider   LocationProvider
	classifier AccessClassifier
	timeouts   ReadinessTimeouts
}

// NewReadinessService wires the pipeline to its two collaborators.
func NewReadinessService(provider LocationProvider, classifier AccessClassifier, timeouts ReadinessTimeouts) *ReadinessService {
	return &ReadinessService{provider: provider, classifier: classifier, timeouts: timeouts}
}

// CheckLocationReadiness produces one LocationReadinessResult. It never
// returns an error and never panics outward: expected negative outcomes
// (GPS off, permission denied, no zone match, stage timeout) map to their
// own statuses, and anything truly unexpected is caught once here and
// reported as status error. Idempotent; safe to call repeatedly.
func (s *ReadinessService) CheckLocationReadiness(ctx context.Context) (result *model.LocationReadinessResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[readiness] PANIC: %v", r)
			result = &model.LocationReadinessResult{
				Status:       model.StatusError,
				ErrorMessage: fmt.Sprintf("unexpected failure: %v", r),
			}
		}
	}()

	// ── Stage 1: basic checks ───────────────────────────
	if !s.basicChecksPass(ctx) {
		return &model.LocationReadinessResult{
			Status:       model.StatusNeedsSetup,
			ErrorMessage: "location service disabled or permission not granted",
		}
	}

	// ── Stage 2: coordinate acquisition ─────────────────
	loc, ok := s.acquireLocation(ctx)
	if !ok {
		return &model.LocationReadinessResult{
			Status:       model.StatusTimeout,
			ErrorMessage: "could not obtain a location fix in time",
		}
	}

	// ── Stage 3: zone validation ────────────────────────
	level, err := await(ctx, s.timeouts.ZoneValidation, func(ctx context.Context) (model.AccessLevel, error) {
		return s.classifier.DetectAccessLevel(ctx, loc.Coordinate)
	})
	if err != nil {
		// A failed zone check is "service unavailable", not an application
		// error: the user can't act on it differently either way.
		log.Printf("[readiness] zone validation failed: %v", err)
		return &model.LocationReadinessResult{
			Status:       model.StatusOutOfService,
			LocationData: loc,
			ErrorMessage: fmt.Sprintf("zone validation failed: %v", err),
		}
	}

	if level == model.AccessFull {
		log.Printf("[readiness] ✓ ready at (%.4f,%.4f)", loc.Coordinate.Lat, loc.Coordinate.Lng)
		return &model.LocationReadinessResult{
			Status:             model.StatusReady,
			LocationData:       loc,
			IsServiceAvailable: true,
		}
	}

	// viewing_only and no_access both terminate out_of_service; the fix
	// stays in the result so the UI can still show where the user is.
	log.Printf("[readiness] out of service at (%.4f,%.4f): access=%s", loc.Coordinate.Lat, loc.Coordinate.Lng, level)
	return &model.LocationReadinessResult{
		Status:       model.StatusOutOfService,
		LocationData: loc,
	}
}

// ─── Stages ─────────────────────────────────────────────────

// basicChecksPass runs stage 1 under its budget: location service enabled,
// then permission granted. Denied permission gets one prompt attempt;
// denied-forever never prompts. Any error or timeout fails the stage —
// a hung permission query must not block app startup.
func (s *ReadinessService) basicChecksPass(ctx context.Context) bool {
	pass, err := await(ctx, s.timeouts.BasicChecks, func(ctx context.Context) (bool, error) {
		enabled, err := s.provider.ServiceEnabled(ctx)
		if err != nil || !enabled {
			return false, err
		}

		status, err := s.provider.PermissionStatus(ctx)
		if err != nil {
			return false, err
		}
		if status == model.PermissionDenied {
			// One prompt. Still denied afterwards → setup screen.
			status, err = s.provider.RequestPermission(ctx)
			if err != nil {
				return false, err
			}
		}
		return status.Granted(), nil
	})
	if err != nil {
		log.Printf("[readiness] basic checks failed: %v", err)
		return false
	}
	return pass
}

// acquireLocation runs stage 2: a mandatory coordinate-only fix under the
// generous GPS budget, then an opportunistic address enrichment under the
// short one. Enrichment failure or timeout never fails the stage.
func (s *ReadinessService) acquireLocation(ctx context.Context) (*model.LocationData, bool) {
	coord, err := await(ctx, s.timeouts.CoordinateFix, s.provider.CoordinateOnly)
	if err != nil || coord == nil {
		log.Printf("[readiness] coordinate fix unavailable: %v", err)
		return nil, false
	}

	loc := &model.LocationData{Coordinate: *coord}

	enriched, err := await(ctx, s.timeouts.AddressLookup, s.provider.CoordinateWithAddress)
	if err == nil && enriched != nil {
		loc = enriched
	} else if err != nil {
		log.Printf("[readiness] address enrichment skipped: %v", err)
	}

	return loc, true
}

// ─── Timeout racing ─────────────────────────────────────────

// await races op against the stage budget: first to settle wins.
//
// The op runs with a context that is cancelled when the budget expires, so
// well-behaved operations stop early instead of being fired and abandoned.
// The result channel is buffered: an op that settles after losing the race
// delivers into the buffer and is discarded with the goroutine, never
// leaked and never observed.
//
// A panic inside op is ferried back and re-raised on the caller's
// goroutine, where the pipeline's single top-level recover turns it into
// a status-error result. A panic that loses the race is discarded like any
// other late result.
func await[T any](ctx context.Context, budget time.Duration, op func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	type settled struct {
		val      T
		err      error
		panicked any
	}
	ch := make(chan settled, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- settled{panicked: r}
			}
		}()
		v, err := op(ctx)
		ch <- settled{val: v, err: err}
	}()

	select {
	case out := <-ch:
		if out.panicked != nil {
			panic(out.panicked)
		}
		return out.val, out.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%w: %v", errStageTimeout, ctx.Err())
	}
}
