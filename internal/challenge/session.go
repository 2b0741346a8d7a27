package challenge

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/quantprep/challenge-service/internal/models"
)

type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// TerminalReason records which path ended a session.
type TerminalReason string

const (
	ReasonAllCorrect TerminalReason = "all_correct"
	ReasonTimeout    TerminalReason = "timeout"
	ReasonOutOfLives TerminalReason = "out_of_lives"
)

const (
	SessionDuration     = 1800 // seconds
	StartingLives       = 3
	QuestionsPerSession = 3

	pointsPerQuestion = 100
	hintPenalty       = 10
	minuteBonus       = 2
)

var (
	ErrInsufficientQuestions = errors.New("not enough questions for this firm and mode")
	ErrSessionNotActive      = errors.New("challenge session is not active")
	ErrNotCurrentQuestion    = errors.New("answer targets a question that is not current")
	ErrAllHintsRevealed      = errors.New("all hints already revealed for this question")
)

// Result is the single terminal report of a session. It is produced exactly
// once, by whichever terminal transition fires first.
type Result struct {
	SessionID          string               `json:"session_id"`
	Firm               string               `json:"firm"`
	Mode               models.ChallengeMode `json:"mode"`
	Score              int                  `json:"score"`
	QuestionsCompleted int                  `json:"questions_completed"`
	TimeTaken          int                  `json:"time_taken"`
	HintsUsed          int                  `json:"hints_used"`
	LivesRemaining     int                  `json:"lives_remaining"`
	Failed             bool                 `json:"failed"`
	Reason             TerminalReason       `json:"reason"`
	QuestionIDs        []string             `json:"question_ids"`
}

// SubmitOutcome is what a single answer submission produced.
type SubmitOutcome struct {
	Correct       bool
	Lives         int
	CurrentIndex  int
	HintsRevealed int
	// Result is non-nil when this submission terminated the session.
	Result *Result
}

// Session is the timed, lives-limited quiz state machine. It is not
// concurrency-safe on its own; the Manager serializes access.
type Session struct {
	id        string
	userID    string
	firm      string
	mode      models.ChallengeMode
	questions []models.Question

	state         State
	currentIndex  int
	lives         int
	hintsUsed     int
	timeRemaining int
	hintsRevealed map[string]int
	answers       map[string]Answer
	startedAt     time.Time

	result *Result
}

// NewSession validates the selected question set and starts the clock.
// Fewer than the required number of questions is the one fatal start-time
// condition; no session is created.
func NewSession(userID, firm string, mode models.ChallengeMode, questions []models.Question, now time.Time) (*Session, error) {
	if len(questions) != QuestionsPerSession {
		return nil, ErrInsufficientQuestions
	}
	qs := make([]models.Question, len(questions))
	copy(qs, questions)

	return &Session{
		id:            uuid.NewString(),
		userID:        userID,
		firm:          firm,
		mode:          mode,
		questions:     qs,
		state:         StateInProgress,
		lives:         StartingLives,
		timeRemaining: SessionDuration,
		hintsRevealed: make(map[string]int, len(qs)),
		answers:       make(map[string]Answer, len(qs)),
		startedAt:     now,
	}, nil
}

func (s *Session) ID() string                 { return s.id }
func (s *Session) UserID() string             { return s.userID }
func (s *Session) Firm() string               { return s.firm }
func (s *Session) Mode() models.ChallengeMode { return s.mode }
func (s *Session) State() State               { return s.state }
func (s *Session) Lives() int                 { return s.lives }
func (s *Session) HintsUsed() int             { return s.hintsUsed }
func (s *Session) TimeRemaining() int         { return s.timeRemaining }
func (s *Session) CurrentIndex() int          { return s.currentIndex }
func (s *Session) StartedAt() time.Time       { return s.startedAt }

// Result returns the terminal report, or nil while in progress.
func (s *Session) Result() *Result { return s.result }

// Questions returns a copy of the fixed question set.
func (s *Session) Questions() []models.Question {
	qs := make([]models.Question, len(s.questions))
	copy(qs, s.questions)
	return qs
}

// CurrentQuestion returns the question awaiting an answer, or nil once the
// session is terminal.
func (s *Session) CurrentQuestion() *models.Question {
	if s.state != StateInProgress || s.currentIndex >= len(s.questions) {
		return nil
	}
	q := s.questions[s.currentIndex]
	return &q
}

// HintsRevealedFor reports how many hints have been shown for a question.
// Hints are revealed progressively and never re-hidden.
func (s *Session) HintsRevealedFor(questionID string) int {
	return s.hintsRevealed[questionID]
}

// Tick consumes one second of the clock. On reaching zero the session fails
// by timeout, even mid-question. Returns the terminal result on the tick
// that ended the session, nil otherwise.
func (s *Session) Tick() *Result {
	if s.state != StateInProgress {
		return nil
	}
	s.timeRemaining--
	if s.timeRemaining > 0 {
		return nil
	}
	s.timeRemaining = 0
	return s.transitionToTerminal(ReasonTimeout)
}

// RevealHint reveals the next hint for the current question and returns its
// text. Exhausted hints surface ErrAllHintsRevealed as an informational
// signal; nothing is counted in that case.
func (s *Session) RevealHint(questionID string) (string, error) {
	if s.state != StateInProgress {
		return "", ErrSessionNotActive
	}
	current := s.questions[s.currentIndex]
	if questionID != current.ID {
		return "", ErrNotCurrentQuestion
	}
	revealed := s.hintsRevealed[questionID]
	if revealed >= len(current.Hints) {
		return "", ErrAllHintsRevealed
	}
	s.hintsRevealed[questionID] = revealed + 1
	s.hintsUsed++
	return current.Hints[revealed], nil
}

// SubmitAnswer grades an answer to the current question. A wrong answer
// costs a life and leaves the same question current for resubmission; the
// last correct answer re-verifies the whole set before declaring success.
func (s *Session) SubmitAnswer(questionID string, ans Answer) (*SubmitOutcome, error) {
	if s.state != StateInProgress {
		return nil, ErrSessionNotActive
	}
	current := s.questions[s.currentIndex]
	if questionID != current.ID {
		return nil, ErrNotCurrentQuestion
	}

	correct := Grade(&current, ans, ChallengeTolerance)
	outcome := &SubmitOutcome{
		Correct:       correct,
		HintsRevealed: s.hintsRevealed[questionID],
	}

	if correct {
		s.answers[questionID] = ans
		if s.currentIndex == len(s.questions)-1 && s.allCorrect() {
			outcome.Result = s.transitionToTerminal(ReasonAllCorrect)
		} else {
			s.currentIndex++
		}
	} else {
		s.lives--
		if s.lives <= 0 {
			s.lives = 0
			outcome.Result = s.transitionToTerminal(ReasonOutOfLives)
		}
	}

	outcome.Lives = s.lives
	outcome.CurrentIndex = s.currentIndex
	return outcome, nil
}

// allCorrect independently re-grades every stored answer. On the success
// path this is the one authoritative check before the terminal transition.
func (s *Session) allCorrect() bool {
	for i := range s.questions {
		q := s.questions[i]
		ans, ok := s.answers[q.ID]
		if !ok || !Grade(&q, ans, ChallengeTolerance) {
			return false
		}
	}
	return true
}

func (s *Session) correctCount() int {
	count := 0
	for i := range s.questions {
		q := s.questions[i]
		if ans, ok := s.answers[q.ID]; ok && Grade(&q, ans, ChallengeTolerance) {
			count++
		}
	}
	return count
}

// transitionToTerminal is the only way a session ends. The state guard makes
// it idempotent: whichever of the timeout, out-of-lives, or all-correct
// paths arrives first wins, and later calls return nil.
func (s *Session) transitionToTerminal(reason TerminalReason) *Result {
	if s.state != StateInProgress {
		return nil
	}

	correct := s.correctCount()
	failed := reason != ReasonAllCorrect || correct != len(s.questions)

	score := 0
	if !failed {
		score = correct*pointsPerQuestion - s.hintsUsed*hintPenalty + (s.timeRemaining/60)*minuteBonus
		if score < 0 {
			score = 0
		}
	}

	if failed {
		s.state = StateFailed
	} else {
		s.state = StateSucceeded
	}

	ids := make([]string, len(s.questions))
	for i := range s.questions {
		ids[i] = s.questions[i].ID
	}

	s.result = &Result{
		SessionID:          s.id,
		Firm:               s.firm,
		Mode:               s.mode,
		Score:              score,
		QuestionsCompleted: correct,
		TimeTaken:          SessionDuration - s.timeRemaining,
		HintsUsed:          s.hintsUsed,
		LivesRemaining:     s.lives,
		Failed:             failed,
		Reason:             reason,
		QuestionIDs:        ids,
	}
	return s.result
}
