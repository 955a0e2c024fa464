package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/smartping-sync/external/jobqueue"
	"github.com/riskibarqy/smartping-sync/external/smartping"
	"github.com/riskibarqy/smartping-sync/internal/config"
	"github.com/riskibarqy/smartping-sync/internal/domain/player"
	"github.com/riskibarqy/smartping-sync/internal/domain/team"
	cacherepo "github.com/riskibarqy/smartping-sync/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/smartping-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/smartping-sync/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/smartping-sync/internal/interfaces/httpapi"
	"github.com/riskibarqy/smartping-sync/internal/platform/cache"
	idgen "github.com/riskibarqy/smartping-sync/internal/platform/id"
	"github.com/riskibarqy/smartping-sync/internal/platform/logging"
	"github.com/riskibarqy/smartping-sync/internal/usecase"
)

const (
	asyncTaskTimeout = 30 * time.Second
	serialLength     = 15
)

// App owns the HTTP server and the resources that must be released after it
// stops serving.
type App struct {
	Server     *http.Server
	db         *sqlx.DB
	dispatcher *usecase.AsyncDispatcher
	logger     *logging.Logger
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	out := &App{logger: logger}

	teamRepo, playerRepo, err := out.openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client := smartping.NewClient(smartping.ClientConfig{
		Transport:      smartping.NewTransport(cfg.SmartPing.Transport, cfg.SmartPing.Timeout),
		BaseURL:        cfg.SmartPing.BaseURL,
		AppID:          cfg.SmartPing.AppID,
		Password:       cfg.SmartPing.Password,
		Serial:         cfg.SmartPing.Serial,
		Timeout:        cfg.SmartPing.Timeout,
		MaxRetries:     cfg.SmartPing.MaxRetries,
		Serials:        idgen.NewAlphanumericGenerator(serialLength),
		Logger:         logger,
		CircuitBreaker: cfg.SmartPing.Circuit,
	})
	if client.Available() {
		if ok, err := client.Initialize(ctx); err != nil || !ok {
			logger.WarnContext(ctx, "smartping session not initialized", "fallback_serial", cfg.SmartPing.Serial != "", "error", err)
		}
	} else {
		logger.WarnContext(ctx, "smartping credentials missing, serving local store only")
	}
	provider := smartping.NewGateway(client, smartping.NewPatternExtractor())

	dispatcher, err := usecase.NewAsyncDispatcher(cfg.AsyncWorkers, asyncTaskTimeout, logger)
	if err != nil {
		_ = out.closeDB()
		return nil, fmt.Errorf("create async dispatcher: %w", err)
	}
	out.dispatcher = dispatcher

	notifier := usecase.NewIndexNotifier(newJobQueue(cfg, logger), dispatcher, cfg.SearchIndexPath, logger)

	matcher := usecase.NewIdentityMatcher(usecase.IdentityConfig{
		ClubNumber:   cfg.Club.Number,
		Abbreviation: cfg.Club.Abbreviation,
		NameVariants: cfg.Club.NameVariants,
	})
	discovery := usecase.NewDiscoveryService(provider, matcher, usecase.DiscoveryConfig{
		LeaguePatterns:     cfg.Club.LeaguePatterns,
		DepartmentCodes:    cfg.Club.DepartmentCodes,
		DepartmentPatterns: cfg.Club.DepartmentPatterns,
		EventType:          cfg.Club.EventType,
		RequestDelay:       cfg.SmartPing.RequestDelay,
	}, logger)

	teamSvc := usecase.NewTeamSyncService(
		provider,
		teamRepo,
		discovery,
		matcher,
		idgen.NewRandomGenerator(),
		notifier,
		usecase.TeamSyncConfig{
			ClubNumber:   cfg.Club.Number,
			RequestDelay: cfg.SmartPing.RequestDelay,
		},
		logger,
	)
	resultsSvc := usecase.NewTeamResultsService(provider, teamRepo, cache.NewStore(0), logger)
	playerSvc := usecase.NewPlayerSyncService(provider, playerRepo, notifier, logger)
	resyncSvc := usecase.NewPlayerResyncService(playerRepo, playerSvc, cfg.PlayerResyncWorkers, logger)

	handler := httpapi.NewHandler(teamSvc, resultsSvc, playerSvc, resyncSvc, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	out.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return out, nil
}

// Close drains pending async tasks and closes the database. Call it after
// the server has stopped accepting requests.
func (a *App) Close(timeout time.Duration) error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.dispatcher != nil {
		if err := a.dispatcher.Release(timeout); err != nil {
			errs = append(errs, fmt.Errorf("release async dispatcher: %w", err))
		}
	}
	if err := a.closeDB(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) openStores(ctx context.Context, cfg config.Config) (team.Repository, player.Repository, error) {
	var (
		teamRepo   team.Repository
		playerRepo player.Repository
	)

	switch cfg.StoreDriver {
	case config.StorePostgres:
		db, err := openDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		a.db = db
		seeded, err := postgres.BootstrapSeed(ctx, db, memory.SeedTeams(cfg.Club.Abbreviation, cfg.SeedTeams))
		if err != nil {
			_ = a.closeDB()
			return nil, nil, err
		}
		teamRepo = postgres.NewTeamRepository(db)
		playerRepo = postgres.NewPlayerRepository(db)
		a.logger.InfoContext(ctx, "store initialized", "driver", cfg.StoreDriver, "db_name", postgres.DatabaseName(cfg.DBURL), "seeded_teams", seeded)
	default:
		teamRepo = memory.NewTeamRepository(memory.SeedTeams(cfg.Club.Abbreviation, cfg.SeedTeams))
		playerRepo = memory.NewPlayerRepository(nil)
		a.logger.InfoContext(ctx, "store initialized", "driver", config.StoreMemory, "seeded_teams", cfg.SeedTeams)
	}

	if cfg.CacheEnabled {
		teamRepo = cacherepo.NewTeamRepository(teamRepo, cache.NewStore(cfg.CacheTTL))
		playerRepo = cacherepo.NewPlayerRepository(playerRepo, cache.NewStore(cfg.CacheTTL))
	}
	return teamRepo, playerRepo, nil
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	return postgres.Open(postgres.OpenConfig{
		URL:                         cfg.DBURL,
		DisablePreparedBinaryResult: cfg.DBDisablePreparedBinary,
		MaxOpenConns:                10,
		MaxIdleConns:                5,
		ConnMaxLifetime:             30 * time.Minute,
	})
}

func (a *App) closeDB() error {
	if a.db == nil {
		return nil
	}
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("close postgres: %w", err)
	}
	a.db = nil
	return nil
}

func newJobQueue(cfg config.Config, logger *logging.Logger) usecase.JobQueue {
	if !cfg.QStashEnabled {
		return usecase.NewNoopJobQueue()
	}
	return jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
		BaseURL:          cfg.QStashBaseURL,
		Token:            cfg.QStashToken,
		TargetBaseURL:    cfg.QStashTargetBaseURL,
		Retries:          cfg.QStashRetries,
		InternalJobToken: cfg.InternalJobToken,
		CircuitBreaker:   cfg.QStashCircuit,
	}, logger)
}
