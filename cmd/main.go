package main

import (
	"context"
	"errors"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/adapter/crypto"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/adapter/postgres/joblog"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/adapter/process"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/adapter/redis/snapshotport"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/cluster"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/config"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/primary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/secondary"
	logger2 "gitlab.com/fcv-2025.net/jobinitiator/internal/global/logger"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/handlers"
	http2 "gitlab.com/fcv-2025.net/jobinitiator/internal/http"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/schedulerengine"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/tcp/jobsocket"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/worker"
)

const serviceName = "jobInitiator"

func main() {
	InitReader()
	sysCfg := config.NewSystemConfig()

	// Workers are this binary re-executed with a worker id in the environment.
	if rawID, ok := os.LookupEnv(worker.EnvWorkerID); ok {
		os.Exit(runWorker(rawID, sysCfg))
	}
	os.Exit(runMaster(sysCfg))
}

func runWorker(rawID string, sysCfg *config.AppConfig) int {
	logger := logger2.Init(sysCfg.LogLevel, true)
	defer logger.Sync()

	id, err := strconv.Atoi(rawID)
	if err != nil {
		logger2.Fatal("Invalid worker id", "value", rawID, "error", err)
	}

	// SIGTERM is a graceful kill: stop reading tasks and finish the running ones.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	socketCfg := jobsocket.Config{
		Port:        sysCfg.ClusterConfig.JobAcceptorPort,
		DialTimeout: sysCfg.ClusterConfig.DialTimeout,
	}
	rt := worker.NewRuntime(id, os.Stdin, os.Stdout, socketCfg, &net.Dialer{}, logger)
	if err := rt.Run(ctx); err != nil {
		logger.Error("Worker failed", "error", err)
		return 1
	}
	return 0
}

func runMaster(sysCfg *config.AppConfig) int {
	base := logger2.Init(sysCfg.LogLevel, false)
	defer base.Sync()
	runID := uuid.NewString()
	logger2.Info("Starting job initiator service", "runId", runID)
	logger := base.With("runId", runID)

	clusterCfg := sysCfg.ClusterConfig
	logger.Info("Cluster config", "forks", clusterCfg.Forks(), "jobsUntilDeath", clusterCfg.JobsUntilDeath, "debug", sysCfg.DebugMode)

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	spawner, err := process.NewSpawner(logger)
	if err != nil {
		logger.Error("Failed to create spawner", "error", err)
		return 1
	}

	deathWatcher := cluster.NewDeathWatcher()
	observers := []primary.EventObserver{&cluster.LogObserver{Logger: logger}, deathWatcher}

	// SECONDARY PORTS
	var snapshotRepo secondary.SnapshotRepository
	var jobLogReader secondary.JobLogReader
	if !sysCfg.DebugMode {
		db, err := setupDatabase(sysCfg.PostgresConfig)
		if err != nil {
			logger.Error("Failed to set up database", "error", err)
			return 1
		}
		defer db.Close()

		jobLogRepo := joblog.NewJobLogRepository(db, logger)
		if err := jobLogRepo.EnsureSchema(runCtx); err != nil {
			logger.Error("Failed to prepare job log", "error", err)
			return 1
		}
		jobLogReader = jobLogRepo
		jobLog := cluster.NewJobLogObserver(jobLogRepo, logger)
		defer jobLog.Close()
		observers = append(observers, jobLog)

		redisClient := setupRedis(sysCfg.RedisConfig)
		defer redisClient.Close()
		snapshotRepo = snapshotport.NewSnapshotRepository(redisClient, 3*sysCfg.RedisConfig.SnapshotInterval, logger)
	}

	controller := cluster.NewController(clusterCfg, spawner, logger, cluster.WithObservers(observers...))

	//primary ports
	jwtProvider := crypto.NewJWTService(sysCfg.JwtConfig)
	middleware := handlers.New(jwtProvider, sysCfg.JwtConfig.Secret != "", logger)
	if sysCfg.JwtConfig.Secret == "" {
		logger.Warn("JWT_SECRET is empty, control api is unauthenticated")
	}
	httpServer := http2.NewServer(sysCfg.HttpPort, serviceName, http2.ServiceProvider{
		Initiator: controller,
		JobLog:    jobLogReader,
		Mirror:    snapshotRepo,
	}, middleware, logger)
	if err := httpServer.Init(); err != nil {
		logger.Error("Failed to init http server", "error", err)
		return 1
	}

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return controller.Run(gctx) })
	g.Go(func() error { return httpServer.Start(gctx) })
	if snapshotRepo != nil {
		engine := schedulerengine.NewSchedulerEngine(sysCfg.RedisConfig.SnapshotInterval, controller, snapshotRepo, logger)
		g.Go(func() error { return engine.Run(gctx) })
	}

	if err := controller.Start(gctx); err != nil {
		logger.Error("Failed to spawn workers", "error", err)
		cancel()
		_ = g.Wait()
		return 1
	}

	quit := make(chan os.Signal, 2)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		logger.Info("Signal received, awaiting death", "signal", sig.String())
		if err := controller.Die(gctx); err != nil {
			logger.Error("Failed to die", "error", err)
		}
	case <-deathWatcher.Ready():
	case <-gctx.Done():
	}

	select {
	case <-deathWatcher.Ready():
		logger.Info("Ready to die")
	case sig := <-quit:
		logger.Warn("Second signal received, exiting now", "signal", sig.String())
	case <-time.After(sysCfg.ShutdownTimeout):
		logger.Warn("Shutdown timeout reached, exiting with workers alive", "timeout", sysCfg.ShutdownTimeout.String())
	case <-gctx.Done():
	}

	cancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Shutdown with error", "error", err)
		return 1
	}
	logger.Info("successfully shutdown server")
	return 0
}

// setupDatabase sets up the PostgreSQL connection
func setupDatabase(cfg *config.PostgresConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.Url)
	if err != nil {
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// setupRedis sets up the Redis connection
func setupRedis(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Url,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// InitReader loads <env>.env when an environment name is given as the first
// argument. Without one the process environment is used as is.
func InitReader() {
	if len(os.Args) < 2 {
		return
	}
	environment := os.Args[1]

	err := godotenv.Load(environment + ".env")
	if err != nil {
		log.Fatalf("Error loading %s.env file", environment)
	}
}
