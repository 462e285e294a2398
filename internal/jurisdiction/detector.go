// Package jurisdiction determines which regulatory jurisdiction a request
// originates from, combining token claims, HTTP headers and network hints.
package jurisdiction

import (
	"strings"

	id "sovereign/pkg/domain"
)

// Source identifies where a detection came from.
type Source string

const (
	SourceJWTClaim        Source = "jwt_claim"
	SourceHTTPHeader      Source = "http_header"
	SourceIPGeolocation   Source = "ip_geolocation"
	SourceDefaultFallback Source = "default_fallback"
)

// Confidence grades how trustworthy a detection is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// Detection is one candidate jurisdiction with its provenance.
type Detection struct {
	Jurisdiction id.Jurisdiction `json:"jurisdiction"`
	Source       Source          `json:"source"`
	Confidence   Confidence      `json:"confidence"`
	// Detail names the claim, header or prefix that produced the detection.
	Detail string `json:"detail"`
}

// claimKeys are inspected in order; the first usable claim wins.
var claimKeys = []string{"jurisdiction", "country", "locale", "region"}

// headerKeys are inspected in order. Matching is case-insensitive.
var headerKeys = []string{
	"X-Sovereign-Jurisdiction",
	"X-Tenant-Jurisdiction",
	"X-Country-Code",
	"CloudFront-Viewer-Country",
	"CF-IPCountry",
}

// JurisdictionInternal marks traffic from private address space.
const JurisdictionInternal id.Jurisdiction = "INTERNAL"

// ipPrefixes maps private network prefixes to the internal jurisdiction.
var ipPrefixes = map[string]id.Jurisdiction{
	"10.0.":    JurisdictionInternal,
	"192.168.": JurisdictionInternal,
	"172.16.":  JurisdictionInternal,
}

// Input carries the request signals detection draws from.
type Input struct {
	// Claims are the verified token claims, if the request carried a token.
	Claims map[string]any
	// Headers holds the request headers.
	Headers map[string]string
	// ClientIP is the remote address without port.
	ClientIP string
	// Default is the operator-configured fallback jurisdiction.
	Default id.Jurisdiction
}

// Detect gathers every candidate detection from the input, strongest source
// first. The default fallback is always present, so the result is never
// empty. This is pure domain logic - no I/O, no side effects.
func Detect(input Input) []Detection {
	var detections []Detection

	if d, ok := fromClaims(input.Claims); ok {
		detections = append(detections, d)
	}
	if d, ok := fromHeaders(input.Headers); ok {
		detections = append(detections, d)
	}
	if d, ok := fromIP(input.ClientIP); ok {
		detections = append(detections, d)
	}

	fallback := input.Default
	if fallback.IsNil() {
		fallback = id.JurisdictionUS
	}
	detections = append(detections, Detection{
		Jurisdiction: fallback,
		Source:       SourceDefaultFallback,
		Confidence:   ConfidenceNone,
		Detail:       "configured default",
	})
	return detections
}

func fromClaims(claims map[string]any) (Detection, bool) {
	for _, key := range claimKeys {
		raw, ok := claims[key]
		if !ok {
			continue
		}
		value, ok := raw.(string)
		if !ok || value == "" {
			continue
		}
		jurisdiction, ok := normalizeClaim(value)
		if !ok {
			continue
		}
		return Detection{
			Jurisdiction: jurisdiction,
			Source:       SourceJWTClaim,
			Confidence:   ConfidenceHigh,
			Detail:       key,
		}, true
	}
	return Detection{}, false
}

// normalizeClaim handles both bare codes ("EU", "de") and locales ("en-GB"),
// taking the region subtag of a locale.
func normalizeClaim(value string) (id.Jurisdiction, bool) {
	if len(value) == 5 && strings.Contains(value, "-") {
		parts := strings.SplitN(value, "-", 2)
		value = parts[1]
	}
	jurisdiction, err := id.ParseJurisdiction(value)
	if err != nil {
		return "", false
	}
	return jurisdiction, true
}

func fromHeaders(headers map[string]string) (Detection, bool) {
	normalized := make(map[string]string, len(headers))
	for key, value := range headers {
		normalized[strings.ToLower(key)] = value
	}
	for _, key := range headerKeys {
		value, ok := normalized[strings.ToLower(key)]
		if !ok || value == "" {
			continue
		}
		jurisdiction, err := id.ParseJurisdiction(value)
		if err != nil {
			continue
		}
		return Detection{
			Jurisdiction: jurisdiction,
			Source:       SourceHTTPHeader,
			Confidence:   ConfidenceMedium,
			Detail:       key,
		}, true
	}
	return Detection{}, false
}

func fromIP(clientIP string) (Detection, bool) {
	if clientIP == "" {
		return Detection{}, false
	}
	for prefix, jurisdiction := range ipPrefixes {
		if strings.HasPrefix(clientIP, prefix) {
			return Detection{
				Jurisdiction: jurisdiction,
				Source:       SourceIPGeolocation,
				Confidence:   ConfidenceLow,
				Detail:       prefix,
			}, true
		}
	}
	return Detection{}, false
}
