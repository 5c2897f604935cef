// Package main provides the game server binary that serves the buttonmen
// GameService over gRPC.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/cory-johannsen/buttonmen/internal/config"
	"github.com/cory-johannsen/buttonmen/internal/game/attack"
	"github.com/cory-johannsen/buttonmen/internal/game/button"
	"github.com/cory-johannsen/buttonmen/internal/gameserver"
	"github.com/cory-johannsen/buttonmen/internal/observability"
	"github.com/cory-johannsen/buttonmen/internal/scripting"
	"github.com/cory-johannsen/buttonmen/internal/server"
	"github.com/cory-johannsen/buttonmen/internal/storage"
	"github.com/cory-johannsen/buttonmen/internal/storage/memory"
	"github.com/cory-johannsen/buttonmen/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	scriptLimit := flag.Int("script-instruction-limit", scripting.DefaultInstructionLimit, "Lua opcodes allowed per attack script call")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting game server",
		zap.String("grpc_addr", cfg.GameServer.Addr()),
		zap.String("storage", cfg.Storage.Backend),
	)

	catalog, err := button.LoadFile(cfg.Content.ButtonsFile)
	if err != nil {
		logger.Fatal("loading button catalog", zap.Error(err))
	}
	logger.Info("button catalog loaded",
		zap.String("file", cfg.Content.ButtonsFile),
		zap.Int("buttons", len(catalog.All())),
	)

	attacks := attack.DefaultRegistry()
	if dir := cfg.Content.AttackScriptsDir; dir != "" {
		scriptStart := time.Now()
		scriptMgr := scripting.NewManager(logger, *scriptLimit)
		defer scriptMgr.Close()
		if err := scriptMgr.LoadDir(dir); err != nil {
			logger.Fatal("loading attack scripts", zap.String("dir", dir), zap.Error(err))
		}
		if err := scriptMgr.RegisterInto(attacks); err != nil {
			logger.Fatal("registering scripted attacks", zap.Error(err))
		}
		logger.Info("attack scripts loaded",
			zap.String("dir", dir),
			zap.Int("attacks", len(scriptMgr.Attacks())),
			zap.Duration("elapsed", time.Since(scriptStart)),
		)
	}

	lifecycle := server.NewLifecycle(logger, cfg.GameServer.ShutdownTimeout)

	var store storage.GameStore
	switch cfg.Storage.Backend {
	case "postgres":
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		store = postgres.NewGameRepository(pool.DB())

		stop := make(chan struct{})
		lifecycle.Add("postgres", &server.FuncService{
			StartFn: func() error {
				ticker := time.NewTicker(30 * time.Second)
				defer ticker.Stop()
				for {
					select {
					case <-stop:
						return nil
					case <-ticker.C:
						if err := pool.Health(ctx, 5*time.Second); err != nil {
							logger.Warn("database health check failed", zap.Error(err))
						}
					}
				}
			},
			StopFn: func() {
				close(stop)
				pool.Close()
			},
		})
	default:
		store = memory.NewStore()
	}

	svc := gameserver.NewService(store, catalog, attacks, cfg.Rules, logger)
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(observability.UnaryServerInterceptor(logger)))
	gameserver.NewGRPCServer(svc, logger).Register(grpcServer)

	grpcService, err := server.NewGRPCService(cfg.GameServer.Addr(), grpcServer, logger)
	if err != nil {
		logger.Fatal("binding grpc listener", zap.Error(err))
	}
	lifecycle.Add("grpc", grpcService)

	logger.Info("game server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("grpc_addr", grpcService.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
