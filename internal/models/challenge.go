package models

import (
	"time"

	"gorm.io/datatypes"
)

// ChallengeMode narrows the question pool for a session by answer modality.
type ChallengeMode string

const (
	ModeProbability ChallengeMode = "probability" // numeric answers only
	ModeMarkets     ChallengeMode = "markets"     // multiple choice only
)

// AnswerTypeFor returns the answer modality a challenge mode admits.
func (m ChallengeMode) AnswerTypeFor() AnswerType {
	if m == ModeMarkets {
		return AnswerMCQ
	}
	return AnswerNumber
}

// ChallengeCompletion is the append-only record of one terminal challenge
// session. Exactly one row is written per session, win or lose.
type ChallengeCompletion struct {
	ID                 uint          `json:"id" gorm:"primaryKey"`
	UserID             string        `json:"user_id" gorm:"not null;size:255;index"`
	Firm               string        `json:"firm" gorm:"not null;size:100;index"`
	Mode               ChallengeMode `json:"mode" gorm:"not null;size:50"`
	Score              int           `json:"score" gorm:"not null"`
	QuestionsCompleted int           `json:"questions_completed" gorm:"not null"`
	TimeTaken          int           `json:"time_taken" gorm:"not null"` // seconds
	HintsUsed          int           `json:"hints_used" gorm:"not null"`
	LivesRemaining     int           `json:"lives_remaining" gorm:"not null"`
	Failed             bool          `json:"failed" gorm:"not null;index"`

	// QuestionIDs is the ordered set the session served, kept for audit.
	QuestionIDs datatypes.JSON `json:"question_ids" gorm:"type:jsonb"` // []string

	CreatedAt time.Time `json:"created_at"`
}

func (ChallengeCompletion) TableName() string {
	return "challenge_completions"
}
