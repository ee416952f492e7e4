// Package matching holds the vendor scoring function and the rebuild
// orchestration that persists scores and notifies clients.
package matching

import "github.com/expansio/backend/internal/models"

// Score computes the compatibility score between a vendor and a project's
// required service set:
//
//	overlap*2 + rating + max(0, 10 - sla_hours/24)
//
// Rating counts as 0 when absent; so does the SLA weight. The second return
// is false when the vendor shares no services with the project, in which
// case the vendor is not a match at all (no score exists, not a zero).
// Values stay unrounded; formatting is a presentation concern.
func Score(v *models.Vendor, requiredServiceIDs []int64) (float64, bool) {
	overlap := overlapCount(v.ServiceIDs, requiredServiceIDs)
	if overlap == 0 {
		return 0, false
	}

	score := float64(overlap) * 2
	if v.Rating != nil {
		score += *v.Rating
	}
	if v.ResponseSLAHours != nil {
		if w := 10 - float64(*v.ResponseSLAHours)/24; w > 0 {
			score += w
		}
	}
	return score, true
}

func overlapCount(capabilities, required []int64) int {
	set := make(map[int64]struct{}, len(required))
	for _, id := range required {
		set[id] = struct{}{}
	}
	n := 0
	for _, id := range capabilities {
		if _, ok := set[id]; ok {
			n++
		}
	}
	return n
}
