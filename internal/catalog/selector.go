package catalog

import (
	"math/rand"

	"github.com/quantprep/challenge-service/internal/models"
)

// ChallengeSetSize is how many questions a challenge session serves.
const ChallengeSetSize = 3

// SelectChallengeSet draws the question set for a firm challenge: one
// uniformly random pick per non-empty band walking easy→extreme, then random
// fill from the remaining pool if some bands were empty. The result may be
// shorter than ChallengeSetSize when the firm/mode pool is too small; the
// caller must refuse to start a session in that case.
//
// The rng is injected so tests can seed it.
func (c *Catalog) SelectChallengeSet(firm string, mode models.ChallengeMode, rng *rand.Rand) []models.Question {
	wantType := mode.AnswerTypeFor()

	var pool []*models.Question
	for _, q := range c.byFirm[firm] {
		if q.AnswerType == wantType {
			pool = append(pool, q)
		}
	}

	banded := make(map[models.DifficultyBand][]*models.Question, 4)
	for _, q := range pool {
		banded[q.Band()] = append(banded[q.Band()], q)
	}

	selected := make([]models.Question, 0, ChallengeSetSize)
	taken := make(map[string]struct{}, ChallengeSetSize)

	for _, band := range models.Bands() {
		if len(selected) == ChallengeSetSize {
			break
		}
		candidates := banded[band]
		if len(candidates) == 0 {
			continue
		}
		pick := candidates[rng.Intn(len(candidates))]
		selected = append(selected, *pick)
		taken[pick.ID] = struct{}{}
	}

	// Random fill when some bands were empty.
	for len(selected) < ChallengeSetSize {
		var remaining []*models.Question
		for _, q := range pool {
			if _, ok := taken[q.ID]; !ok {
				remaining = append(remaining, q)
			}
		}
		if len(remaining) == 0 {
			break
		}
		pick := remaining[rng.Intn(len(remaining))]
		selected = append(selected, *pick)
		taken[pick.ID] = struct{}{}
	}

	return selected
}
