package challenge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantprep/challenge-service/internal/models"
)

func sessionQuestions() []models.Question {
	return []models.Question{
		{
			ID:            "q1",
			AnswerType:    models.AnswerNumber,
			NumericAnswer: floatPtr(3.5),
			Hints:         []string{"hint one", "hint two"},
		},
		{
			ID:            "q2",
			AnswerType:    models.AnswerNumber,
			NumericAnswer: floatPtr(6),
			Hints:         []string{"only hint"},
		},
		{
			ID:            "q3",
			AnswerType:    models.AnswerNumber,
			NumericAnswer: floatPtr(0.25),
		},
	}
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession("user-1", "Citadel", models.ModeProbability, sessionQuestions(), time.Now())
	require.NoError(t, err)
	return s
}

func answer(v float64) Answer {
	return Answer{NumericValue: floatPtr(v)}
}

func TestNewSessionRequiresFullSet(t *testing.T) {
	_, err := NewSession("user-1", "Citadel", models.ModeProbability, sessionQuestions()[:2], time.Now())
	assert.ErrorIs(t, err, ErrInsufficientQuestions)

	_, err = NewSession("user-1", "Citadel", models.ModeProbability, nil, time.Now())
	assert.ErrorIs(t, err, ErrInsufficientQuestions)
}

func TestSessionPerfectRun(t *testing.T) {
	s := newTestSession(t)

	out, err := s.SubmitAnswer("q1", answer(3.5))
	require.NoError(t, err)
	assert.True(t, out.Correct)
	assert.Nil(t, out.Result)
	assert.Equal(t, 1, out.CurrentIndex)

	out, err = s.SubmitAnswer("q2", answer(6))
	require.NoError(t, err)
	assert.True(t, out.Correct)
	assert.Nil(t, out.Result)

	out, err = s.SubmitAnswer("q3", answer(0.25))
	require.NoError(t, err)
	assert.True(t, out.Correct)
	require.NotNil(t, out.Result)

	result := out.Result
	assert.Equal(t, StateSucceeded, s.State())
	assert.False(t, result.Failed)
	assert.Equal(t, ReasonAllCorrect, result.Reason)
	assert.Equal(t, 3, result.QuestionsCompleted)
	assert.Equal(t, StartingLives, result.LivesRemaining)
	// 3*100 points, no hint penalty, full 30 minutes of time bonus.
	assert.Equal(t, 360, result.Score)
	assert.Equal(t, []string{"q1", "q2", "q3"}, result.QuestionIDs)
}

func TestSessionScoreHintPenalty(t *testing.T) {
	s := newTestSession(t)

	_, err := s.RevealHint("q1")
	require.NoError(t, err)
	_, err = s.RevealHint("q1")
	require.NoError(t, err)

	mustSubmit(t, s, "q1", answer(3.5))
	mustSubmit(t, s, "q2", answer(6))
	out, err := s.SubmitAnswer("q3", answer(0.25))
	require.NoError(t, err)
	require.NotNil(t, out.Result)

	// Two hints cost 20 points off the perfect 360.
	assert.Equal(t, 340, out.Result.Score)
	assert.Equal(t, 2, out.Result.HintsUsed)
}

func TestSessionScoreTimeBonusDecays(t *testing.T) {
	s := newTestSession(t)

	for i := 0; i < 60; i++ {
		require.Nil(t, s.Tick())
	}

	mustSubmit(t, s, "q1", answer(3.5))
	mustSubmit(t, s, "q2", answer(6))
	out, err := s.SubmitAnswer("q3", answer(0.25))
	require.NoError(t, err)
	require.NotNil(t, out.Result)

	assert.Equal(t, 358, out.Result.Score)
	assert.Equal(t, 60, out.Result.TimeTaken)
}

func TestSessionChallengeToleranceApplies(t *testing.T) {
	s := newTestSession(t)

	// Off by 5e-4: inside the challenge tolerance, outside practice's.
	out, err := s.SubmitAnswer("q1", answer(3.5005))
	require.NoError(t, err)
	assert.True(t, out.Correct)
}

func TestSessionWrongAnswerCostsLife(t *testing.T) {
	s := newTestSession(t)

	out, err := s.SubmitAnswer("q1", answer(99))
	require.NoError(t, err)
	assert.False(t, out.Correct)
	assert.Equal(t, 2, out.Lives)
	// The question stays current for resubmission.
	assert.Equal(t, 0, out.CurrentIndex)
	assert.Nil(t, out.Result)

	out, err = s.SubmitAnswer("q1", answer(3.5))
	require.NoError(t, err)
	assert.True(t, out.Correct)
	assert.Equal(t, 2, out.Lives)
	assert.Equal(t, 1, out.CurrentIndex)
}

func TestSessionOutOfLives(t *testing.T) {
	s := newTestSession(t)

	mustSubmit(t, s, "q1", answer(3.5))

	for i := 0; i < 2; i++ {
		out, err := s.SubmitAnswer("q2", answer(99))
		require.NoError(t, err)
		assert.Nil(t, out.Result)
	}
	out, err := s.SubmitAnswer("q2", answer(99))
	require.NoError(t, err)
	require.NotNil(t, out.Result)

	result := out.Result
	assert.Equal(t, StateFailed, s.State())
	assert.True(t, result.Failed)
	assert.Equal(t, ReasonOutOfLives, result.Reason)
	assert.Equal(t, 0, result.LivesRemaining)
	// Failure forces the score to zero regardless of answered questions.
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, 1, result.QuestionsCompleted)
}

func TestSessionTimeout(t *testing.T) {
	s := newTestSession(t)

	mustSubmit(t, s, "q1", answer(3.5))

	var result *Result
	for i := 0; i < SessionDuration; i++ {
		result = s.Tick()
		if result != nil {
			break
		}
	}
	require.NotNil(t, result)

	assert.Equal(t, StateFailed, s.State())
	assert.True(t, result.Failed)
	assert.Equal(t, ReasonTimeout, result.Reason)
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, SessionDuration, result.TimeTaken)
	assert.Equal(t, 0, s.TimeRemaining())
}

func TestSessionExactlyOneTerminalResult(t *testing.T) {
	s := newTestSession(t)

	for i := 0; i < 3; i++ {
		_, err := s.SubmitAnswer("q1", answer(99))
		require.NoError(t, err)
	}
	require.Equal(t, StateFailed, s.State())

	// Later terminal paths are no-ops.
	assert.Nil(t, s.Tick())
	_, err := s.SubmitAnswer("q1", answer(3.5))
	assert.ErrorIs(t, err, ErrSessionNotActive)
	_, err = s.RevealHint("q1")
	assert.ErrorIs(t, err, ErrSessionNotActive)
	require.NotNil(t, s.Result())
	assert.Equal(t, ReasonOutOfLives, s.Result().Reason)
}

func TestSessionRejectsNonCurrentQuestion(t *testing.T) {
	s := newTestSession(t)

	_, err := s.SubmitAnswer("q2", answer(6))
	assert.ErrorIs(t, err, ErrNotCurrentQuestion)
	_, err = s.RevealHint("q3")
	assert.ErrorIs(t, err, ErrNotCurrentQuestion)
}

func TestSessionHintExhaustion(t *testing.T) {
	s := newTestSession(t)

	first, err := s.RevealHint("q1")
	require.NoError(t, err)
	assert.Equal(t, "hint one", first)

	second, err := s.RevealHint("q1")
	require.NoError(t, err)
	assert.Equal(t, "hint two", second)

	_, err = s.RevealHint("q1")
	assert.ErrorIs(t, err, ErrAllHintsRevealed)
	// The refused reveal is not charged.
	assert.Equal(t, 2, s.HintsUsed())

	mustSubmit(t, s, "q1", answer(3.5))
	mustSubmit(t, s, "q2", answer(6))

	// q3 has no hints at all.
	_, err = s.RevealHint("q3")
	assert.ErrorIs(t, err, ErrAllHintsRevealed)
}

func TestSessionCurrentQuestion(t *testing.T) {
	s := newTestSession(t)

	require.NotNil(t, s.CurrentQuestion())
	assert.Equal(t, "q1", s.CurrentQuestion().ID)

	mustSubmit(t, s, "q1", answer(3.5))
	assert.Equal(t, "q2", s.CurrentQuestion().ID)

	mustSubmit(t, s, "q2", answer(6))
	mustSubmit(t, s, "q3", answer(0.25))
	assert.Nil(t, s.CurrentQuestion())
}

func mustSubmit(t *testing.T, s *Session, questionID string, ans Answer) {
	t.Helper()
	out, err := s.SubmitAnswer(questionID, ans)
	require.NoError(t, err)
	require.True(t, out.Correct)
}
