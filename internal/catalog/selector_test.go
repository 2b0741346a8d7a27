package catalog

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantprep/challenge-service/internal/models"
)

func TestSelectChallengeSetOnePerBand(t *testing.T) {
	cat, err := New([]models.Question{
		numericQuestion("e1", "Acme", 2),
		numericQuestion("e2", "Acme", 3),
		numericQuestion("m1", "Acme", 6),
		numericQuestion("h1", "Acme", 9),
		numericQuestion("x1", "Acme", 10),
	})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	set := cat.SelectChallengeSet("Acme", models.ModeProbability, rng)

	require.Len(t, set, ChallengeSetSize)

	// Walking easy to extreme, the first three non-empty bands fill the
	// set: one easy, one medium, one hard.
	bands := []models.DifficultyBand{set[0].Band(), set[1].Band(), set[2].Band()}
	assert.Equal(t, []models.DifficultyBand{models.BandEasy, models.BandMedium, models.BandHard}, bands)
}

func TestSelectChallengeSetDistinctQuestions(t *testing.T) {
	cat, err := New([]models.Question{
		numericQuestion("q1", "Acme", 2),
		numericQuestion("q2", "Acme", 3),
		numericQuestion("q3", "Acme", 4),
		numericQuestion("q4", "Acme", 4),
	})
	require.NoError(t, err)

	for seed := int64(0); seed < 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		set := cat.SelectChallengeSet("Acme", models.ModeProbability, rng)
		require.Len(t, set, ChallengeSetSize, "seed %d", seed)

		seen := map[string]bool{}
		for _, q := range set {
			assert.False(t, seen[q.ID], "seed %d repeated %s", seed, q.ID)
			seen[q.ID] = true
		}
	}
}

func TestSelectChallengeSetFillsFromSingleBand(t *testing.T) {
	// All questions easy: band walk picks one, random fill takes the rest.
	cat, err := New([]models.Question{
		numericQuestion("q1", "Acme", 1),
		numericQuestion("q2", "Acme", 2),
		numericQuestion("q3", "Acme", 3),
	})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	set := cat.SelectChallengeSet("Acme", models.ModeProbability, rng)
	assert.Len(t, set, ChallengeSetSize)
}

func TestSelectChallengeSetRespectsMode(t *testing.T) {
	cat, err := New([]models.Question{
		numericQuestion("n1", "Acme", 2),
		numericQuestion("n2", "Acme", 5),
		numericQuestion("n3", "Acme", 8),
		mcqQuestion("m1", "Acme", 2),
		mcqQuestion("m2", "Acme", 5),
		mcqQuestion("m3", "Acme", 8),
	})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	for _, q := range cat.SelectChallengeSet("Acme", models.ModeMarkets, rng) {
		assert.Equal(t, models.AnswerMCQ, q.AnswerType)
	}
	for _, q := range cat.SelectChallengeSet("Acme", models.ModeProbability, rng) {
		assert.Equal(t, models.AnswerNumber, q.AnswerType)
	}
}

func TestSelectChallengeSetShortPool(t *testing.T) {
	cat, err := New([]models.Question{
		numericQuestion("q1", "Acme", 2),
		numericQuestion("q2", "Acme", 5),
	})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(3))
	set := cat.SelectChallengeSet("Acme", models.ModeProbability, rng)
	assert.Len(t, set, 2, "pool smaller than the set size is returned as-is")
}

func TestSelectChallengeSetUnknownFirm(t *testing.T) {
	cat, err := New([]models.Question{numericQuestion("q1", "Acme", 2)})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(3))
	assert.Empty(t, cat.SelectChallengeSet("Nowhere", models.ModeProbability, rng))
}
