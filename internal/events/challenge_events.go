package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/quantprep/challenge-service/internal/models"
)

// EventType identifies a challenge lifecycle event on the wire.
type EventType string

const (
	EventChallengeStarted   EventType = "challenge.started"
	EventChallengeCompleted EventType = "challenge.completed"
	EventChallengeFailed    EventType = "challenge.failed"

	EventStreakExtended EventType = "streak.extended"
)

// ChallengeEvent is the envelope shared by all published events.
type ChallengeEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type ChallengeStartedEvent struct {
	SessionID   string               `json:"session_id"`
	UserID      string               `json:"user_id"`
	Firm        string               `json:"firm"`
	Mode        models.ChallengeMode `json:"mode"`
	QuestionIDs []string             `json:"question_ids"`
	StartedAt   time.Time            `json:"started_at"`
}

type ChallengeCompletedEvent struct {
	SessionID      string               `json:"session_id"`
	UserID         string               `json:"user_id"`
	Firm           string               `json:"firm"`
	Mode           models.ChallengeMode `json:"mode"`
	Score          int                  `json:"score"`
	CorrectAnswers int                  `json:"correct_answers"`
	HintsUsed      int                  `json:"hints_used"`
	LivesRemaining int                  `json:"lives_remaining"`
	TimeTaken      int                  `json:"time_taken"`
	Failed         bool                 `json:"failed"`
	FailureReason  string               `json:"failure_reason,omitempty"`
	CompletedAt    time.Time            `json:"completed_at"`
}

type StreakExtendedEvent struct {
	UserID     string `json:"user_id"`
	StreakDays int    `json:"streak_days"`
}

const eventSource = "challenge-service"

func newEnvelope(eventType EventType, data interface{}) *ChallengeEvent {
	return &ChallengeEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   "1.0",
		Data:      data,
	}
}

func NewChallengeStartedEvent(sessionID, userID, firm string, mode models.ChallengeMode, questionIDs []string, startedAt time.Time) *ChallengeEvent {
	return newEnvelope(EventChallengeStarted, ChallengeStartedEvent{
		SessionID:   sessionID,
		UserID:      userID,
		Firm:        firm,
		Mode:        mode,
		QuestionIDs: questionIDs,
		StartedAt:   startedAt,
	})
}

func NewChallengeCompletedEvent(data ChallengeCompletedEvent) *ChallengeEvent {
	eventType := EventChallengeCompleted
	if data.Failed {
		eventType = EventChallengeFailed
	}
	return newEnvelope(eventType, data)
}

func NewStreakExtendedEvent(userID string, streakDays int) *ChallengeEvent {
	return newEnvelope(EventStreakExtended, StreakExtendedEvent{
		UserID:     userID,
		StreakDays: streakDays,
	})
}
