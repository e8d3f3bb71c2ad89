// Package main runs the battle server: it loads content and AI strategies,
// connects to PostgreSQL for progression, and serves the Telnet battle console.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/frontend/console"
	"github.com/cory-johannsen/skirmish/internal/frontend/telnet"
	"github.com/cory-johannsen/skirmish/internal/game/ai"
	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/skill"
	"github.com/cory-johannsen/skirmish/internal/game/stage"
	"github.com/cory-johannsen/skirmish/internal/observability"
	"github.com/cory-johannsen/skirmish/internal/scripting"
	"github.com/cory-johannsen/skirmish/internal/server"
	"github.com/cory-johannsen/skirmish/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	healthInterval := flag.Duration("db-health", 30*time.Second, "database health check interval")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting battle server",
		zap.String("telnet_addr", cfg.Telnet.Addr()),
		zap.String("stage", cfg.Battle.Stage),
		zap.String("ai_strategy", cfg.Battle.AIStrategy),
	)

	// Content
	catalog := skill.Builtin()
	if dir := cfg.Content.SkillsDir; dir != "" {
		if catalog, err = skill.LoadDirectory(dir); err != nil {
			logger.Fatal("loading skills", zap.Error(err))
		}
	}
	stages := stage.BuiltinLibrary()
	if dir := cfg.Content.StagesDir; dir != "" {
		if stages, err = stage.LoadDirectory(dir); err != nil {
			logger.Fatal("loading stages", zap.Error(err))
		}
	}
	logger.Info("content loaded",
		zap.Int("skills", len(catalog.All())),
		zap.Strings("stages", stages.IDs()),
	)

	// AI strategies
	scripts := scripting.NewManager(logger.Named("lua"))
	defer scripts.Close()
	strategies := ai.NewRegistry()
	if dir := cfg.Content.StrategyLibDir; dir != "" {
		if err := scripts.LoadLibrary(dir); err != nil {
			logger.Fatal("loading strategy library", zap.Error(err))
		}
	}
	if dir := cfg.Content.StrategiesDir; dir != "" {
		names, err := scripts.LoadDirectory(dir, cfg.Content.ScriptInstructionLimit)
		if err != nil {
			logger.Fatal("loading AI strategies", zap.Error(err))
		}
		for _, name := range names {
			if err := strategies.Register(name, ai.NewScriptScorer(scripts, name)); err != nil {
				logger.Fatal("registering AI strategy", zap.Error(err))
			}
		}
	}
	scorer, ok := strategies.ScorerFor(cfg.Battle.AIStrategy)
	if !ok {
		logger.Fatal("unknown AI strategy",
			zap.String("strategy", cfg.Battle.AIStrategy),
			zap.Strings("available", strategies.Names()),
		)
	}

	// Connect to PostgreSQL
	ctx := context.Background()
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.Name),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	battles := battle.NewManager()
	handler, err := console.NewHandler(console.Options{
		Battle:   cfg.Battle,
		Stages:   stages,
		Catalog:  catalog,
		Scorer:   scorer,
		Battles:  battles,
		Progress: pool.Progress(),
	})
	if err != nil {
		logger.Fatal("building battle console", zap.Error(err))
	}
	acceptor := telnet.NewAcceptor(cfg.Telnet, handler, logger)

	lifecycle := server.NewLifecycle(logger, cfg.Server.ShutdownTimeout)

	lifecycle.Add("postgres", pool.Monitor(*healthInterval))

	lifecycle.Add("telnet", &server.FuncService{
		StartFn: acceptor.ListenAndServe,
		StopFn: func() {
			acceptor.Stop()
			logger.Info("battles abandoned at shutdown", zap.Int("count", battles.Len()))
		},
	})

	logger.Info("battle server initialized", zap.Duration("startup", time.Since(start)))

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
