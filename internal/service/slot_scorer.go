package service

import (
	"sort"
	"time"

	"github.com/noah-isme/consult-booking-api/internal/models"
)

// Scoring weights for ranking candidate slots.
const (
	scoreBase                = 100
	scorePreferredConsultant = 20
	scorePreferredTime       = 15
	scorePerSpareSession     = 5
	scoreLeadTimeSweetSpot   = 10

	leadTimeSweetSpotMin = 24 * time.Hour
	leadTimeSweetSpotMax = 168 * time.Hour
)

// ScoreSlot ranks a single slot against the preferences. Pure and
// deterministic for identical inputs.
func ScoreSlot(slot models.TimeSlot, prefs models.SlotPreferences, now time.Time) int {
	score := scoreBase

	if containsString(prefs.PreferredConsultants, slot.ConsultantID) {
		score += scorePreferredConsultant
	}
	if containsString(prefs.PreferredTimeSlots, slot.Start.Format("15:04")) {
		score += scorePreferredTime
	}

	score += scorePerSpareSession * slot.SpareCapacity()

	lead := slot.Start.Sub(now)
	if lead >= leadTimeSweetSpotMin && lead <= leadTimeSweetSpotMax {
		score += scoreLeadTimeSweetSpot
	}

	return score
}

// RankSlots filters out slots whose local start time the requester wants
// to avoid, then sorts the rest by descending score with earlier starts
// winning ties.
func RankSlots(slots []models.TimeSlot, prefs models.SlotPreferences, now time.Time) []models.TimeSlot {
	candidates := make([]models.TimeSlot, 0, len(slots))
	for _, slot := range slots {
		if containsString(prefs.AvoidTimes, slot.Start.Format("15:04")) {
			continue
		}
		candidates = append(candidates, slot)
	}

	scores := make(map[int]int, len(candidates))
	for i := range candidates {
		scores[i] = ScoreSlot(candidates[i], prefs, now)
	}

	indexes := make([]int, len(candidates))
	for i := range indexes {
		indexes[i] = i
	}
	sort.SliceStable(indexes, func(a, b int) bool {
		if scores[indexes[a]] != scores[indexes[b]] {
			return scores[indexes[a]] > scores[indexes[b]]
		}
		return candidates[indexes[a]].Start.Before(candidates[indexes[b]].Start)
	})

	ranked := make([]models.TimeSlot, len(candidates))
	for i, idx := range indexes {
		ranked[i] = candidates[idx]
	}
	return ranked
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
