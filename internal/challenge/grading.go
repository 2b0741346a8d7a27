package challenge

import (
	"math"

	"github.com/quantprep/challenge-service/internal/models"
)

// Numeric grading tolerances. Challenge mode is deliberately looser than
// general practice: answers are typed under time pressure.
const (
	PracticeTolerance  = 1e-4
	ChallengeTolerance = 1e-3
)

// Answer is a submitted answer for either modality. Exactly one of the two
// fields is meaningful, keyed off the question's answer type.
type Answer struct {
	NumericValue *float64 `json:"numeric_value,omitempty"`
	OptionID     string   `json:"option_id,omitempty"`
}

// Grade checks an answer against a question's grading contract. Numeric
// answers compare by absolute difference within tolerance; mcq answers
// compare by exact option id. A malformed answer (wrong modality) grades
// incorrect rather than erroring.
func Grade(q *models.Question, ans Answer, tolerance float64) bool {
	switch q.AnswerType {
	case models.AnswerNumber:
		if ans.NumericValue == nil || q.NumericAnswer == nil {
			return false
		}
		return math.Abs(*ans.NumericValue-*q.NumericAnswer) <= tolerance
	case models.AnswerMCQ:
		return ans.OptionID != "" && ans.OptionID == q.CorrectAnswerID
	default:
		return false
	}
}
