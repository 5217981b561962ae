package main

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/predictive-punter/internal/config"
	"github.com/yourusername/predictive-punter/internal/database"
	"github.com/yourusername/predictive-punter/internal/estimator"
	"github.com/yourusername/predictive-punter/internal/logger"
	"github.com/yourusername/predictive-punter/internal/metrics"
	"github.com/yourusername/predictive-punter/internal/prediction"
	"github.com/yourusername/predictive-punter/internal/predictor"
	"github.com/yourusername/predictive-punter/internal/processing"
	"github.com/yourusername/predictive-punter/internal/repository"
	"github.com/yourusername/predictive-punter/internal/sample"
)

const (
	commandSeed     = "seed"
	commandSimulate = "simulate"
	commandPredict  = "predict"
	commandDelete   = "delete"
)

// app holds the services shared by every command in one process
type app struct {
	cfg         *config.Config
	logger      *logrus.Logger
	db          *database.DB
	repos       *repository.Repositories
	samples     *sample.Service
	predictors  *predictor.Cache
	predictions *prediction.Service
}

func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return nil, err
	}
	if fixturesPath != "" {
		cfg.Processing.Store = "memory"
		cfg.Processing.FixturesPath = fixturesPath
	}
	if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newApp(ctx context.Context, cfg *config.Config, logOutput io.Writer) (*app, error) {
	log := logger.NewLogger(cfg.App.LogLevel)
	log.SetOutput(logOutput)
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	a := &app{cfg: cfg, logger: log}

	if cfg.UsesPostgres() {
		db, err := database.Initialize(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		repos, err := repository.NewRepositories(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		a.db = db
		a.repos = repos
	} else {
		store := repository.NewMemoryStore()
		if cfg.Processing.FixturesPath != "" {
			loaded, err := repository.LoadFixtures(cfg.Processing.FixturesPath)
			if err != nil {
				return nil, err
			}
			store = loaded
		}
		a.repos = repository.NewMemoryRepositories(store)
	}

	a.samples = sample.NewService(a.repos.Sample, log)
	a.predictors = predictor.NewCache(a.repos.Race, a.repos.Predictor, a.samples, predictor.Options{
		Candidates:    estimator.Grid(cfg.Predictor.Grid),
		TestFraction:  cfg.Predictor.TestFraction,
		Seed:          cfg.Predictor.RandomSeed,
		SelectionMode: cfg.Predictor.SelectionMode,
	}, log)
	a.predictions = prediction.NewService(a.predictors, a.samples, a.repos.Prediction, prediction.Floors{
		Win:    cfg.Value.WinFloor,
		Exotic: cfg.Value.ExoticFloor,
	}, log)

	log.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"store":       cfg.Processing.Store,
		"grid":        cfg.Predictor.Grid,
		"workers":     cfg.Processing.Workers,
	}).Info("Punter initialized")

	return a, nil
}

// visitor returns the visitor for a command. Predict reports to reportOut.
func (a *app) visitor(command string, reportOut io.Writer) (processing.Visitor, error) {
	switch command {
	case commandSeed:
		return processing.NewSeedVisitor(a.samples), nil
	case commandSimulate:
		return processing.NewSimulateVisitor(a.predictions, a.cfg.Predictor.BlendMode), nil
	case commandPredict:
		report, err := processing.NewReportWriter(reportOut)
		if err != nil {
			return nil, fmt.Errorf("failed to write report header: %w", err)
		}
		return processing.NewPredictVisitor(a.predictions, report, a.cfg.Predictor.BlendMode, a.logger), nil
	case commandDelete:
		return processing.NewDeleteVisitor(a.repos.Sample, a.repos.Prediction), nil
	default:
		return nil, fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) processor(visitor processing.Visitor) *processing.Processor {
	return processing.NewProcessor(a.repos.Race, a.repos.Backup, visitor, processing.Options{
		Workers:       a.cfg.Processing.Workers,
		QueueSize:     a.cfg.Processing.QueueSize,
		SubmitRetries: a.cfg.Processing.SubmitRetries,
		SubmitBackoff: a.cfg.SubmitBackoff(),
		BackupEnabled: a.cfg.Processing.BackupEnabled,
	}, a.logger, a.predictors, a.samples)
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}
