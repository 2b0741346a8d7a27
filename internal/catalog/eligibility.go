package catalog

import (
	"sort"

	"github.com/quantprep/challenge-service/internal/models"
)

// FreeFirm is the one firm whose challenge is open to unpaid users.
const FreeFirm = "Citadel"

// challengeMinQuestions is the structural floor: a firm can host a challenge
// when it spans at least this many distinct bands or carries this many
// questions outright.
const challengeMinQuestions = 3

// AccessibleFirms returns the sorted firm names the given user tier may
// start a challenge against. Questions without a firm tag never count.
func (c *Catalog) AccessibleFirms(isPaid bool) []string {
	var firms []string
	for firm, questions := range c.byFirm {
		if !structurallyEligible(questions) {
			continue
		}
		if firm != FreeFirm && !isPaid {
			continue
		}
		firms = append(firms, firm)
	}
	sort.Strings(firms)
	return firms
}

// EligibleFirms ignores the user tier; used by admin and diagnostics views.
func (c *Catalog) EligibleFirms() []string {
	var firms []string
	for firm, questions := range c.byFirm {
		if structurallyEligible(questions) {
			firms = append(firms, firm)
		}
	}
	sort.Strings(firms)
	return firms
}

func structurallyEligible(questions []*models.Question) bool {
	if len(questions) >= challengeMinQuestions {
		return true
	}
	bands := make(map[models.DifficultyBand]struct{}, 4)
	for _, q := range questions {
		bands[q.Band()] = struct{}{}
	}
	return len(bands) >= challengeMinQuestions
}
