package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/freshkart/geofence/internal/geocoder"
	"github.com/freshkart/geofence/internal/location"
	"github.com/freshkart/geofence/internal/metrics"
	"github.com/freshkart/geofence/internal/model"
	"github.com/freshkart/geofence/internal/service"
)

// ReadinessRequest is the JSON body for POST /api/v1/location/readiness.
// The mobile client reports its device state; lat/lng are pointers so a
// missing fix is distinguishable from coordinate (0,0).
type ReadinessRequest struct {
	ServiceEnabled bool     `json:"service_enabled"`
	Permission     string   `json:"permission"`
	Lat            *float64 `json:"lat"`
	Lng            *float64 `json:"lng"`
}

// ReadinessResponse wraps the pipeline result with the two UI-routing hints
// so clients don't re-derive screen routing from the status.
type ReadinessResponse struct {
	*model.LocationReadinessResult
	GoToLocationAccess     bool `json:"go_to_location_access"`
	GoToServiceUnavailable bool `json:"go_to_service_unavailable"`
}

// ReadinessHandler runs the location-readiness pipeline for reported
// device snapshots.
type ReadinessHandler struct {
	classifier service.AccessClassifier
	geocoder   geocoder.ReverseGeocoder
	timeouts   service.ReadinessTimeouts
	metrics    *metrics.Collector
}

// NewReadinessHandler creates the handler. metrics may be nil.
func NewReadinessHandler(
	classifier service.AccessClassifier,
	geo geocoder.ReverseGeocoder,
	timeouts service.ReadinessTimeouts,
	m *metrics.Collector,
) *ReadinessHandler {
	return &ReadinessHandler{classifier: classifier, geocoder: geo, timeouts: timeouts, metrics: m}
}

// CheckReadiness handles POST /api/v1/location/readiness
//
// Request body:
//
//	{
//	  "service_enabled": true,
//	  "permission": "while_in_use",
//	  "lat": 25.52, "lng": 90.22
//	}
//
// Always responds 200 with a terminal readiness result — a negative outcome
// (GPS off, out of zone, timeout) is a normal business answer, not an HTTP
// failure.
func (h *ReadinessHandler) CheckReadiness(w http.ResponseWriter, r *http.Request) {
	var req ReadinessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON body",
		})
		return
	}

	permission := model.PermissionStatus(req.Permission)
	switch permission {
	case model.PermissionWhileInUse, model.PermissionAlways,
		model.PermissionDenied, model.PermissionDeniedForever:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "permission must be one of while_in_use, always, denied, denied_forever",
		})
		return
	}

	snap := location.DeviceSnapshot{
		ServiceEnabled: req.ServiceEnabled,
		Permission:     permission,
	}
	if req.Lat != nil && req.Lng != nil {
		snap.Fix = &model.Coordinate{Lat: *req.Lat, Lng: *req.Lng}
	}

	provider := location.NewSnapshotProvider(snap, h.geocoder)
	pipeline := service.NewReadinessService(provider, h.classifier, h.timeouts)

	start := time.Now()
	result := pipeline.CheckLocationReadiness(r.Context())
	h.metrics.ObserveCheck(result.Status, time.Since(start))

	writeJSON(w, http.StatusOK, ReadinessResponse{
		LocationReadinessResult: result,
		GoToLocationAccess:      result.ShouldGoToLocationAccess(),
		GoToServiceUnavailable:  result.ShouldGoToServiceUnavailable(),
	})
}
