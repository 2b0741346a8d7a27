package services

import (
	"log/slog"

	"github.com/quantprep/challenge-service/internal/cache"
	"github.com/quantprep/challenge-service/internal/catalog"
	"github.com/quantprep/challenge-service/internal/challenge"
	"github.com/quantprep/challenge-service/internal/events"
	"github.com/quantprep/challenge-service/internal/repositories"
	"github.com/quantprep/challenge-service/internal/utils"
)

// ServiceManager bundles the service layer behind one handle for the
// handlers and wires the cross-service collaborators once.
type ServiceManager interface {
	Question() QuestionService
	Practice() PracticeService
	Challenge() ChallengeService
	Progress() ProgressService
	Leaderboard() LeaderboardService
	Export() ExportService
	Profile() ProfileService

	Shutdown()
}

type serviceManager struct {
	question    QuestionService
	practice    PracticeService
	challenge   ChallengeService
	progress    ProgressService
	leaderboard LeaderboardService
	export      ExportService
	profile     ProfileService

	sessionManager *challenge.Manager
	publisher      events.EventPublisher
}

// Dependencies carries everything the service layer needs from main.
type Dependencies struct {
	Repo      repositories.Repository
	Catalog   *catalog.Catalog
	Cache     cache.CacheService
	Publisher events.EventPublisher
	Validator *utils.Validator
	Logger    *slog.Logger
}

func NewServiceManager(deps Dependencies) ServiceManager {
	progress := NewProgressService(deps.Repo, deps.Catalog, deps.Publisher, deps.Logger)
	leaderboard := NewLeaderboardService(deps.Repo, deps.Cache, deps.Logger)

	challengeSvc := NewChallengeService(ChallengeServiceDeps{
		Repo:      deps.Repo,
		Catalog:   deps.Catalog,
		Cache:     deps.Cache,
		Publisher: deps.Publisher,
		Progress:  progress,
		Validator: deps.Validator,
		Logger:    deps.Logger,
	})

	return &serviceManager{
		question:       NewQuestionService(deps.Catalog, deps.Repo, deps.Logger),
		practice:       NewPracticeService(deps.Repo, deps.Catalog, progress, deps.Logger),
		challenge:      challengeSvc,
		progress:       progress,
		leaderboard:    leaderboard,
		export:         NewExportService(deps.Repo, deps.Logger),
		profile:        NewProfileService(deps.Repo, deps.Logger),
		sessionManager: challengeSvc.SessionManager(),
		publisher:      deps.Publisher,
	}
}

func (m *serviceManager) Question() QuestionService       { return m.question }
func (m *serviceManager) Practice() PracticeService       { return m.practice }
func (m *serviceManager) Challenge() ChallengeService     { return m.challenge }
func (m *serviceManager) Progress() ProgressService       { return m.progress }
func (m *serviceManager) Leaderboard() LeaderboardService { return m.leaderboard }
func (m *serviceManager) Export() ExportService           { return m.export }
func (m *serviceManager) Profile() ProfileService         { return m.profile }

// Shutdown stops the in-memory session clocks and closes the publisher.
func (m *serviceManager) Shutdown() {
	m.sessionManager.Shutdown()
	_ = m.publisher.Close()
}
