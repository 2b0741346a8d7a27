package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/quantprep/challenge-service/internal/cache"
	"github.com/quantprep/challenge-service/internal/catalog"
	"github.com/quantprep/challenge-service/internal/challenge"
	"github.com/quantprep/challenge-service/internal/events"
	"github.com/quantprep/challenge-service/internal/models"
	"github.com/quantprep/challenge-service/internal/repositories"
	"github.com/quantprep/challenge-service/internal/utils"
)

// ===== REQUEST/RESPONSE DTOS =====

type StartChallengeRequest struct {
	Firm string               `json:"firm" validate:"required"`
	Mode models.ChallengeMode `json:"mode" validate:"required,challenge_mode"`
}

type SubmitChallengeAnswerRequest struct {
	QuestionID   string   `json:"question_id" validate:"required"`
	NumericValue *float64 `json:"numeric_value,omitempty"`
	OptionID     string   `json:"option_id,omitempty"`
}

type HintRequest struct {
	QuestionID string `json:"question_id" validate:"required"`
}

type HintResponse struct {
	Hint          string `json:"hint"`
	HintsRevealed int    `json:"hints_revealed"`
}

// ChallengeStateResponse is the client-facing snapshot of a live session.
// Grading material never appears in it.
type ChallengeStateResponse struct {
	SessionID     string               `json:"session_id"`
	Firm          string               `json:"firm"`
	Mode          models.ChallengeMode `json:"mode"`
	State         challenge.State      `json:"state"`
	Lives         int                  `json:"lives"`
	TimeRemaining int                  `json:"time_remaining"`
	HintsUsed     int                  `json:"hints_used"`
	CurrentIndex  int                  `json:"current_index"`
	Questions     []QuestionView       `json:"questions"`
	Result        *challenge.Result    `json:"result,omitempty"`
}

type SubmitChallengeAnswerResponse struct {
	Correct       bool              `json:"correct"`
	Lives         int               `json:"lives"`
	CurrentIndex  int               `json:"current_index"`
	HintsRevealed int               `json:"hints_revealed"`
	Result        *challenge.Result `json:"result,omitempty"`
}

type ChallengeService interface {
	Start(ctx context.Context, userID string, isPaid bool, req StartChallengeRequest) (*ChallengeStateResponse, error)
	GetState(ctx context.Context, userID string) (*ChallengeStateResponse, error)
	SubmitAnswer(ctx context.Context, userID string, req SubmitChallengeAnswerRequest) (*SubmitChallengeAnswerResponse, error)
	RevealHint(ctx context.Context, userID string, req HintRequest) (*HintResponse, error)
	Abandon(ctx context.Context, userID string) error
	History(ctx context.Context, userID string, filters repositories.ChallengeFilters) ([]*models.ChallengeCompletion, int64, error)
}

type ChallengeServiceDeps struct {
	Repo      repositories.Repository
	Catalog   *catalog.Catalog
	Cache     cache.CacheService
	Publisher events.EventPublisher
	Progress  ProgressService
	Validator *utils.Validator
	Logger    *slog.Logger

	// Rand overrides the selection source in tests.
	Rand *rand.Rand
	// ManagerOpts lets tests compress the session clock.
	ManagerOpts []challenge.ManagerOption
}

type challengeService struct {
	repo      repositories.Repository
	catalog   *catalog.Catalog
	cache     cache.CacheService
	publisher events.EventPublisher
	progress  ProgressService
	validator *utils.Validator
	logger    *ServiceLogger
	slog      *slog.Logger

	manager *challenge.Manager

	randMu sync.Mutex
	rand   *rand.Rand
}

func NewChallengeService(deps ChallengeServiceDeps) *challengeService {
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	s := &challengeService{
		repo:      deps.Repo,
		catalog:   deps.Catalog,
		cache:     deps.Cache,
		publisher: deps.Publisher,
		progress:  deps.Progress,
		validator: deps.Validator,
		logger:    NewServiceLogger(deps.Logger, LogConfig{Service: "challenge-service", Component: "challenge"}),
		slog:      deps.Logger,
		rand:      rng,
	}
	s.manager = challenge.NewManager(s, deps.Logger, deps.ManagerOpts...)
	return s
}

// SessionManager exposes the session clock owner for shutdown wiring.
func (s *challengeService) SessionManager() *challenge.Manager {
	return s.manager
}

func (s *challengeService) Start(ctx context.Context, userID string, isPaid bool, req StartChallengeRequest) (*ChallengeStateResponse, error) {
	op := s.logger.WithOperation(ctx, "start_challenge", userID)

	if err := s.validator.Validate(req); err != nil {
		op.LogResult(req.Firm, err)
		return nil, err
	}

	firms := s.catalog.Firms()
	known := false
	for _, f := range firms {
		if f == req.Firm {
			known = true
			break
		}
	}
	if !known {
		op.LogResult(req.Firm, ErrFirmNotFound)
		return nil, ErrFirmNotFound
	}
	if req.Firm != catalog.FreeFirm && !isPaid {
		op.LogResult(req.Firm, ErrFirmNotAccessible)
		return nil, ErrFirmNotAccessible
	}

	s.randMu.Lock()
	questions := s.catalog.SelectChallengeSet(req.Firm, req.Mode, s.rand)
	s.randMu.Unlock()

	session, err := challenge.NewSession(userID, req.Firm, req.Mode, questions, time.Now())
	if err != nil {
		if errors.Is(err, challenge.ErrInsufficientQuestions) {
			err = ErrInsufficientQuestions
		}
		op.LogResult(req.Firm, err)
		return nil, err
	}

	// Starting replaces any session already running for this user.
	s.manager.Start(session)

	ids := make([]string, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	s.publishEvent(events.NewChallengeStartedEvent(
		session.ID(), userID, req.Firm, req.Mode, ids, session.StartedAt()))

	op.LogResult(session.ID(), nil)
	return s.snapshot(userID)
}

func (s *challengeService) GetState(ctx context.Context, userID string) (*ChallengeStateResponse, error) {
	resp, err := s.snapshot(userID)
	if errors.Is(err, challenge.ErrNoActiveSession) {
		return nil, ErrChallengeNotActive
	}
	return resp, err
}

func (s *challengeService) SubmitAnswer(ctx context.Context, userID string, req SubmitChallengeAnswerRequest) (*SubmitChallengeAnswerResponse, error) {
	op := s.logger.WithOperation(ctx, "submit_challenge_answer", userID)

	if err := s.validator.Validate(req); err != nil {
		op.LogResult(req.QuestionID, err)
		return nil, err
	}

	outcome, err := s.manager.SubmitAnswer(userID, req.QuestionID, challenge.Answer{
		NumericValue: req.NumericValue,
		OptionID:     req.OptionID,
	})
	if err != nil {
		if errors.Is(err, challenge.ErrNoActiveSession) {
			err = ErrChallengeNotActive
		}
		op.LogResult(req.QuestionID, err)
		return nil, err
	}

	op.LogResult(req.QuestionID, nil)
	return &SubmitChallengeAnswerResponse{
		Correct:       outcome.Correct,
		Lives:         outcome.Lives,
		CurrentIndex:  outcome.CurrentIndex,
		HintsRevealed: outcome.HintsRevealed,
		Result:        outcome.Result,
	}, nil
}

func (s *challengeService) RevealHint(ctx context.Context, userID string, req HintRequest) (*HintResponse, error) {
	op := s.logger.WithOperation(ctx, "reveal_hint", userID)

	if err := s.validator.Validate(req); err != nil {
		op.LogResult(req.QuestionID, err)
		return nil, err
	}

	hint, err := s.manager.RevealHint(userID, req.QuestionID)
	if err != nil {
		if errors.Is(err, challenge.ErrNoActiveSession) {
			err = ErrChallengeNotActive
		}
		op.LogResult(req.QuestionID, err)
		return nil, err
	}

	revealed := 0
	_ = s.manager.View(userID, func(sess *challenge.Session) {
		revealed = sess.HintsRevealedFor(req.QuestionID)
	})

	op.LogResult(req.QuestionID, nil)
	return &HintResponse{Hint: hint, HintsRevealed: revealed}, nil
}

func (s *challengeService) Abandon(ctx context.Context, userID string) error {
	op := s.logger.WithOperation(ctx, "abandon_challenge", userID)
	err := s.manager.Abandon(userID)
	if errors.Is(err, challenge.ErrNoActiveSession) {
		err = ErrChallengeNotActive
	}
	op.LogResult("", err)
	return err
}

func (s *challengeService) History(ctx context.Context, userID string, filters repositories.ChallengeFilters) ([]*models.ChallengeCompletion, int64, error) {
	return s.repo.Challenge().GetByUser(ctx, userID, filters)
}

// Report receives the session's single terminal result: persist the
// completion row, roll the user's progress, fan out the event and drop the
// stale leaderboard cache. Called by the session manager, possibly from the
// tick goroutine.
func (s *challengeService) Report(ctx context.Context, userID string, result *challenge.Result) error {
	questionIDs, err := json.Marshal(result.QuestionIDs)
	if err != nil {
		return err
	}

	completion := &models.ChallengeCompletion{
		UserID:             userID,
		Firm:               result.Firm,
		Mode:               result.Mode,
		Score:              result.Score,
		QuestionsCompleted: result.QuestionsCompleted,
		TimeTaken:          result.TimeTaken,
		HintsUsed:          result.HintsUsed,
		LivesRemaining:     result.LivesRemaining,
		Failed:             result.Failed,
		QuestionIDs:        questionIDs,
	}

	if err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		return tx.Challenge().Create(ctx, completion)
	}); err != nil {
		return err
	}

	if err := s.progress.RecordActivity(ctx, userID, time.Now()); err != nil {
		s.slog.Warn("progress roll after challenge failed", "user_id", userID, "error", err)
	}

	s.publishEvent(events.NewChallengeCompletedEvent(events.ChallengeCompletedEvent{
		SessionID:      result.SessionID,
		UserID:         userID,
		Firm:           result.Firm,
		Mode:           result.Mode,
		Score:          result.Score,
		CorrectAnswers: result.QuestionsCompleted,
		HintsUsed:      result.HintsUsed,
		LivesRemaining: result.LivesRemaining,
		TimeTaken:      result.TimeTaken,
		Failed:         result.Failed,
		FailureReason:  failureReason(result),
		CompletedAt:    time.Now().UTC(),
	}))

	if err := s.cache.DeletePattern(ctx, leaderboardKeyPattern(result.Firm)); err != nil {
		s.slog.Warn("leaderboard cache invalidation failed", "firm", result.Firm, "error", err)
	}
	return nil
}

func failureReason(result *challenge.Result) string {
	if !result.Failed {
		return ""
	}
	return string(result.Reason)
}

func (s *challengeService) publishEvent(event *events.ChallengeEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.publisher.PublishChallengeEvent(ctx, event); err != nil {
		s.slog.Warn("challenge event publish failed",
			"event_type", event.Type, "event_id", event.ID, "error", err)
	}
}

// snapshot copies the live session state into a response under the slot
// lock.
func (s *challengeService) snapshot(userID string) (*ChallengeStateResponse, error) {
	var resp *ChallengeStateResponse
	err := s.manager.View(userID, func(sess *challenge.Session) {
		questions := sess.Questions()
		views := make([]QuestionView, 0, len(questions))
		for i := range questions {
			views = append(views, NewQuestionView(&questions[i], true))
		}
		resp = &ChallengeStateResponse{
			SessionID:     sess.ID(),
			Firm:          sess.Firm(),
			Mode:          sess.Mode(),
			State:         sess.State(),
			Lives:         sess.Lives(),
			TimeRemaining: sess.TimeRemaining(),
			HintsUsed:     sess.HintsUsed(),
			CurrentIndex:  sess.CurrentIndex(),
			Questions:     views,
			Result:        sess.Result(),
		}
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
