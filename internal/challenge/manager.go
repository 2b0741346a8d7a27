package challenge

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Reporter receives the one terminal report of a session. Implementations
// persist it and fan it out; a failed report never rolls back the in-memory
// terminal state.
type Reporter interface {
	Report(ctx context.Context, userID string, result *Result) error
}

var ErrNoActiveSession = errors.New("no active challenge session")

const (
	defaultTickInterval = time.Second
	reportRetries       = 2
	reportBackoff       = 500 * time.Millisecond
)

// Manager owns the single live session slot per user and drives each
// session's clock. All session mutations go through the per-slot mutex, so
// the tick goroutine and request handlers never race.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*slot

	reporter Reporter
	logger   *slog.Logger

	tickInterval time.Duration
}

type slot struct {
	mu      sync.Mutex
	session *Session
	stop    chan struct{}
	stopped sync.Once
}

func (sl *slot) shutdown() {
	sl.stopped.Do(func() { close(sl.stop) })
}

type ManagerOption func(*Manager)

// WithTickInterval compresses the clock for tests.
func WithTickInterval(d time.Duration) ManagerOption {
	return func(m *Manager) { m.tickInterval = d }
}

func NewManager(reporter Reporter, logger *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions:     make(map[string]*slot),
		reporter:     reporter,
		logger:       logger,
		tickInterval: defaultTickInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start installs a new session in the user's slot, replacing and silently
// discarding any session already there (explicit restart semantics: the old
// session is abandoned, not reported).
func (m *Manager) Start(session *Session) {
	userID := session.UserID()

	m.mu.Lock()
	if old, ok := m.sessions[userID]; ok {
		old.shutdown()
	}
	sl := &slot{
		session: session,
		stop:    make(chan struct{}),
	}
	m.sessions[userID] = sl
	m.mu.Unlock()

	go m.run(userID, sl)
}

func (m *Manager) run(userID string, sl *slot) {
	ticker := time.NewTicker(m.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sl.stop:
			return
		case <-ticker.C:
			sl.mu.Lock()
			result := sl.session.Tick()
			sl.mu.Unlock()
			if result != nil {
				sl.shutdown()
				m.report(userID, result)
				return
			}
		}
	}
}

// View runs fn against the user's session under the slot lock. Session state
// must not escape fn except as copied values.
func (m *Manager) View(userID string, fn func(*Session)) error {
	m.mu.Lock()
	sl, ok := m.sessions[userID]
	m.mu.Unlock()
	if !ok {
		return ErrNoActiveSession
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	fn(sl.session)
	return nil
}

// SubmitAnswer forwards a submission to the user's session. If the
// submission terminates the session the tick loop is stopped and the
// terminal report dispatched from here.
func (m *Manager) SubmitAnswer(userID, questionID string, ans Answer) (*SubmitOutcome, error) {
	m.mu.Lock()
	sl, ok := m.sessions[userID]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNoActiveSession
	}

	sl.mu.Lock()
	outcome, err := sl.session.SubmitAnswer(questionID, ans)
	sl.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if outcome.Result != nil {
		sl.shutdown()
		m.report(userID, outcome.Result)
	}
	return outcome, nil
}

// RevealHint forwards a hint reveal to the user's session.
func (m *Manager) RevealHint(userID, questionID string) (string, error) {
	m.mu.Lock()
	sl, ok := m.sessions[userID]
	m.mu.Unlock()
	if !ok {
		return "", ErrNoActiveSession
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.session.RevealHint(questionID)
}

// Abandon stops the tick loop and drops the session without a report.
func (m *Manager) Abandon(userID string) error {
	m.mu.Lock()
	sl, ok := m.sessions[userID]
	if ok {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()
	if !ok {
		return ErrNoActiveSession
	}
	sl.shutdown()
	return nil
}

// Shutdown stops every live tick loop; in-flight reports are left to finish.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for userID, sl := range m.sessions {
		sl.shutdown()
		delete(m.sessions, userID)
	}
}

// report delivers the terminal result asynchronously, retrying with backoff.
// Persistence failure is a warning, never an error surfaced to the session:
// the session has already ended for the user.
func (m *Manager) report(userID string, result *Result) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var err error
		for attempt := 0; attempt <= reportRetries; attempt++ {
			if attempt > 0 {
				time.Sleep(reportBackoff * time.Duration(attempt))
			}
			if err = m.reporter.Report(ctx, userID, result); err == nil {
				return
			}
			m.logger.Warn("challenge result report failed",
				"user_id", userID,
				"session_id", result.SessionID,
				"attempt", attempt+1,
				"error", err)
		}
		m.logger.Error("challenge result dropped after retries",
			"user_id", userID,
			"session_id", result.SessionID,
			"error", err)
	}()
}
