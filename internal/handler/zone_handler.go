package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/freshkart/geofence/internal/model"
	"github.com/freshkart/geofence/internal/repository"
	"github.com/freshkart/geofence/pkg/geo"
)

// ZoneHandler handles delivery-zone HTTP requests.
type ZoneHandler struct {
	repo *repository.ZoneRepository
}

// NewZoneHandler creates a new handler wired to the zone repository.
func NewZoneHandler(repo *repository.ZoneRepository) *ZoneHandler {
	return &ZoneHandler{repo: repo}
}

// ─── Requests ───────────────────────────────────────────────

// ZoneRequest is the JSON body for zone creation and dry-run validation.
type ZoneRequest struct {
	Name     string             `json:"name"`
	ZoneType model.ZoneType     `json:"zone_type"`
	IsActive bool               `json:"is_active"`
	Boundary []model.Coordinate `json:"boundary,omitempty"`
	Center   *model.Coordinate  `json:"center,omitempty"`
	RadiusKm float64            `json:"radius_km,omitempty"`
}

func (req *ZoneRequest) toZone() model.DeliveryZone {
	return model.DeliveryZone{
		Name:     req.Name,
		ZoneType: req.ZoneType,
		IsActive: req.IsActive,
		Boundary: req.Boundary,
		Center:   req.Center,
		RadiusKm: req.RadiusKm,
	}
}

// validate runs the geometry validators appropriate for the zone type.
// Returns a human-readable reason when invalid.
func (req *ZoneRequest) validate() (bool, string) {
	switch req.ZoneType {
	case model.ZoneCircle:
		if req.Center == nil {
			return false, "circle zone requires a center"
		}
		if !geo.ValidateCircle(*req.Center, req.RadiusKm) {
			return false, "circle center out of range or radius outside (0.1, 50.0] km"
		}
	case model.ZonePolygon:
		if !geo.ValidatePolygon(req.Boundary) {
			return false, "polygon requires ≥3 vertices with a ring closed within ~10m"
		}
	default:
		return false, "zone_type must be polygon or circle"
	}
	return true, ""
}

// ─── Endpoints ──────────────────────────────────────────────

// ListZones handles GET /api/v1/zones
func (h *ZoneHandler) ListZones(w http.ResponseWriter, r *http.Request) {
	zones, err := h.repo.ListZones(r.Context())
	if err != nil {
		log.Printf("[handler] list zones error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list zones",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"zones": zones,
		"count": len(zones),
	})
}

// GetZone handles GET /api/v1/zones/{id}
func (h *ZoneHandler) GetZone(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid zone id: must be a UUID",
		})
		return
	}

	zone, err := h.repo.GetZone(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrZoneNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error":   "not_found",
				"message": "Delivery zone not found.",
			})
			return
		}
		log.Printf("[handler] get zone error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load zone",
		})
		return
	}

	writeJSON(w, http.StatusOK, zone)
}

// CreateZone handles POST /api/v1/zones
//
// Shape validation happens here, at ingestion — the geometry engine treats
// malformed zones as non-containing rather than rejecting them, so this is
// the gate that keeps bad shapes out of the data set.
func (h *ZoneHandler) CreateZone(w http.ResponseWriter, r *http.Request) {
	var req ZoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON body",
		})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "name is required",
		})
		return
	}
	if ok, reason := req.validate(); !ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":   "invalid_zone",
			"message": reason,
		})
		return
	}

	zone := req.toZone()
	if err := h.repo.CreateZone(r.Context(), &zone); err != nil {
		if errors.Is(err, repository.ErrInvalidShape) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"error":   "invalid_zone",
				"message": err.Error(),
			})
			return
		}
		log.Printf("[handler] create zone error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to create zone",
		})
		return
	}

	writeJSON(w, http.StatusCreated, zone)
}

// ValidateZone handles POST /api/v1/zones/validate
//
// Dry-run shape validation for zone-authoring tools; nothing is persisted.
func (h *ZoneHandler) ValidateZone(w http.ResponseWriter, r *http.Request) {
	var req ZoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON body",
		})
		return
	}

	ok, reason := req.validate()
	resp := map[string]interface{}{"valid": ok}
	if !ok {
		resp["reason"] = reason
	}
	writeJSON(w, http.StatusOK, resp)
}

// ClosestZone handles GET /api/v1/zones/closest?lat=&lng=
//
// Returns the nearest active zone to the query point along with the
// distance, or 404 when no active zone exists.
func (h *ZoneHandler) ClosestZone(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if errLat != nil || errLng != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "lat and lng query parameters are required numbers",
		})
		return
	}

	zones, err := h.repo.ActiveZones(r.Context())
	if err != nil {
		log.Printf("[handler] closest zone error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load zones",
		})
		return
	}

	point := model.Coordinate{Lat: lat, Lng: lng}
	closest := geo.FindClosestZone(point, zones)
	if closest == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error":   "no_zones",
			"message": "No active delivery zones available.",
		})
		return
	}

	distance, _ := geo.DistanceToZoneKm(point, *closest)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"zone":        closest,
		"distance_km": distance,
		"contains":    geo.ContainsPoint(point, *closest),
	})
}
