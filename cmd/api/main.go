package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mythicalsystems/dash-ledger/internal/config"
	"github.com/mythicalsystems/dash-ledger/internal/events"
	"github.com/mythicalsystems/dash-ledger/internal/handlers"
	"github.com/mythicalsystems/dash-ledger/internal/leaderboard"
	"github.com/mythicalsystems/dash-ledger/internal/repository"
	"github.com/mythicalsystems/dash-ledger/internal/services"
	xhttp "github.com/mythicalsystems/dash-ledger/pkg/http"
	"github.com/mythicalsystems/dash-ledger/pkg/logger"
	"github.com/mythicalsystems/dash-ledger/pkg/pg"
	"github.com/mythicalsystems/dash-ledger/pkg/prom"
	"github.com/mythicalsystems/dash-ledger/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 5))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	publisher, err := events.NewPublisher(redisAdap, events.Config{
		Stream: config.Get().EventsStreamName,
		MaxLen: config.Get().EventsMaxLen,
	})
	if err != nil {
		logger.Error("failed creating event publisher", "error", err)
		return
	}

	var hostname string
	hostname, err = os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	if err := prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace); err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}

	accountRepo := repository.NewAccountRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	codeRepo := repository.NewRedeemCodeRepository(db)
	redemptionRepo := repository.NewRedemptionRepository(db)

	// services
	ledgerService := services.NewLedgerService(accountRepo, transactionRepo, publisher)
	redeemService := services.NewRedeemService(codeRepo, redemptionRepo, ledgerService, publisher)
	healthService := services.NewHealthService()

	board, err := leaderboard.New(redisAdap, config.Get().LeaderboardKey)
	if err != nil {
		logger.Error("failed creating scoreboard", "error", err)
		return
	}

	// v1 handlers
	ledgerHandler := handlers.NewLedgerHandler(ledgerService, transactionRepo, publisher)
	redeemHandler := handlers.NewRedeemHandler(redeemService)
	leaderboardHandler := handlers.NewLeaderboardHandler(board)
	adminHandler := handlers.NewAdminHandler(codeRepo, accountRepo)
	healthHandler := handlers.NewHealthHandler(healthService)

	g := s.Router.Group("/api/v1")
	handlers.RegisterLedgerRoutes(g, ledgerHandler)
	handlers.RegisterRedeemRoutes(g, redeemHandler)
	handlers.RegisterLeaderboardRoutes(g, leaderboardHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)

	admin := s.Router.Group("/api/v1/admin")
	handlers.RegisterAdminRoutes(admin, adminHandler)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		prom.ListenAndServer(config.Get().PromAddr, "/metrics")
	}()

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	select {
	case <-c:
		s.Shutdown()
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
