package routing

import (
	id "sovereign/pkg/domain"
	dErrors "sovereign/pkg/domain-errors"
)

// jurisdictionRegions maps a jurisdiction to its serving regions in
// preference order.
var jurisdictionRegions = map[id.Jurisdiction][]string{
	id.JurisdictionEU:     {"eu-west-1", "eu-central-1", "eu-north-1"},
	id.JurisdictionUS:     {"us-east-1", "us-west-2"},
	id.JurisdictionCN:     {"cn-north-1", "cn-northwest-1"},
	"SG":                  {"ap-southeast-1"},
	id.JurisdictionIN:     {"ap-south-1"},
	"JP":                  {"ap-northeast-1"},
	"AU":                  {"ap-southeast-2"},
	id.JurisdictionGB:     {"eu-west-2"},
	id.JurisdictionGlobal: {"us-east-1", "eu-west-1", "ap-southeast-1"},
}

// RegionsFor returns the serving regions of a jurisdiction, falling back to
// the global pool for jurisdictions without dedicated regions.
func RegionsFor(jurisdiction id.Jurisdiction) []string {
	if regions, ok := jurisdictionRegions[jurisdiction]; ok {
		return regions
	}
	return jurisdictionRegions[id.JurisdictionGlobal]
}

// RegionFallback is a substitute region chosen after a regional failure.
type RegionFallback struct {
	Region string `json:"region"`
	// CrossJurisdiction marks fallbacks served from the global pool rather
	// than the jurisdiction's own regions.
	CrossJurisdiction bool `json:"cross_jurisdiction"`
}

// FallbackRegion picks the next region for a jurisdiction after failedRegion
// became unavailable. Regions within the jurisdiction are tried in preference
// order first, then the global pool with the fallback marked
// cross-jurisdiction.
//
// Errors: CodeNotFound when no region remains.
func FallbackRegion(jurisdiction id.Jurisdiction, failedRegion string) (RegionFallback, error) {
	for _, region := range RegionsFor(jurisdiction) {
		if region != failedRegion {
			return RegionFallback{Region: region}, nil
		}
	}
	if jurisdiction != id.JurisdictionGlobal {
		for _, region := range jurisdictionRegions[id.JurisdictionGlobal] {
			if region != failedRegion {
				return RegionFallback{Region: region, CrossJurisdiction: true}, nil
			}
		}
	}
	return RegionFallback{}, dErrors.Newf(dErrors.CodeNotFound,
		"no fallback region available for %s after %s failed", jurisdiction, failedRegion)
}
