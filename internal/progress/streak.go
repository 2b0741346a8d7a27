// Package progress derives dashboard read models from completion records.
// Everything here is pure; callers persist the results.
package progress

import (
	"time"

	"github.com/quantprep/challenge-service/internal/catalog"
	"github.com/quantprep/challenge-service/internal/models"
)

// maxStreakScan bounds the backward walk so malformed activity data can
// never loop unbounded.
const maxStreakScan = 365

// DayKey normalizes a timestamp to its calendar day in UTC.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Streak counts consecutive days with activity ending at today. Days absent
// from the map (or present with a zero count) break the streak; a quiet
// today yields 0 regardless of history. Capped at maxStreakScan days.
func Streak(dailyCounts map[string]int, today time.Time) int {
	day := today.UTC()
	streak := 0
	for i := 0; i < maxStreakScan; i++ {
		if dailyCounts[DayKey(day)] <= 0 {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// Ratio is one band's completion fraction.
type Ratio struct {
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Fraction  float64 `json:"fraction"`
}

// BandCompletion computes, per difficulty band, how much of the catalog the
// user has answered correctly. A band with no catalog questions reports a
// zero ratio rather than dividing by zero.
func BandCompletion(cat *catalog.Catalog, correctIDs map[string]bool) map[models.DifficultyBand]Ratio {
	totals := cat.CountByBand()
	completed := make(map[models.DifficultyBand]int, 4)
	for id, correct := range correctIDs {
		if !correct {
			continue
		}
		if q := cat.Get(id); q != nil {
			completed[q.Band()]++
		}
	}

	ratios := make(map[models.DifficultyBand]Ratio, 4)
	for _, band := range models.Bands() {
		r := Ratio{Completed: completed[band], Total: totals[band]}
		if r.Total > 0 {
			r.Fraction = float64(r.Completed) / float64(r.Total)
		}
		ratios[band] = r
	}
	return ratios
}
