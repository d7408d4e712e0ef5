// Package geocoder provides reverse geocoding for the optional
// address-enrichment step of the readiness pipeline.
package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// ReverseGeocoder resolves a coordinate to a human-readable address.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// NominatimClient talks to a Nominatim-compatible reverse-geocoding API.
// Address resolution is enrichment, never a correctness requirement, so
// callers are expected to race it against a short budget and shrug off
// failures.
type NominatimClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// New creates a Nominatim client. httpClient may be nil, in which case
// http.DefaultClient is used; the caller's context carries the deadline.
func New(baseURL, userAgent string, httpClient *http.Client) *NominatimClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &NominatimClient{baseURL: baseURL, userAgent: userAgent, http: httpClient}
}

// ReverseGeocode returns the display name for a coordinate.
func (c *NominatimClient) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", fmt.Sprintf("%.6f", lat))
	q.Set("lon", fmt.Sprintf("%.6f", lng))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	// Nominatim's usage policy requires an identifying User-Agent.
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("reverse endpoint %d: %s", resp.StatusCode, string(b))
	}

	var body struct {
		DisplayName string `json:"display_name"`
		Error       string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.Error != "" {
		return "", fmt.Errorf("reverse geocode: %s", body.Error)
	}
	if body.DisplayName == "" {
		return "", errors.New("reverse geocode: empty display name")
	}
	return body.DisplayName, nil
}
