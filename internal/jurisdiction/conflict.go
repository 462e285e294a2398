package jurisdiction

import (
	"sort"

	dErrors "sovereign/pkg/domain-errors"
)

var confidenceRank = map[Confidence]int{
	ConfidenceHigh:   4,
	ConfidenceMedium: 3,
	ConfidenceLow:    2,
	ConfidenceNone:   1,
}

var sourceRank = map[Source]int{
	SourceJWTClaim:        4,
	SourceHTTPHeader:      3,
	SourceIPGeolocation:   2,
	SourceDefaultFallback: 1,
}

// Resolution is the winning detection plus whether the candidates disagreed.
type Resolution struct {
	Winner      Detection   `json:"winner"`
	HasConflict bool        `json:"has_conflict"`
	Candidates  []Detection `json:"candidates"`
}

// Resolve picks the strongest detection. Candidates are ordered by
// confidence, then by source trustworthiness; the ordering over both ranks is
// total, so resolution is deterministic. A conflict is flagged whenever two
// candidates name different jurisdictions.
func Resolve(detections []Detection) (Resolution, error) {
	if len(detections) == 0 {
		return Resolution{}, dErrors.New(dErrors.CodeInvalidInput, "no detections to resolve")
	}

	ordered := make([]Detection, len(detections))
	copy(ordered, detections)
	sort.SliceStable(ordered, func(i, j int) bool {
		if confidenceRank[ordered[i].Confidence] != confidenceRank[ordered[j].Confidence] {
			return confidenceRank[ordered[i].Confidence] > confidenceRank[ordered[j].Confidence]
		}
		return sourceRank[ordered[i].Source] > sourceRank[ordered[j].Source]
	})

	resolution := Resolution{Winner: ordered[0], Candidates: ordered}
	for _, d := range ordered[1:] {
		if d.Jurisdiction != ordered[0].Jurisdiction {
			resolution.HasConflict = true
			break
		}
	}
	return resolution, nil
}
