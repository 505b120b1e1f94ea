package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mythicalsystems/dash-ledger/internal/config"
	"github.com/mythicalsystems/dash-ledger/internal/events"
	"github.com/mythicalsystems/dash-ledger/internal/leaderboard"
	"github.com/mythicalsystems/dash-ledger/pkg/logger"
	"github.com/mythicalsystems/dash-ledger/pkg/prom"
	"github.com/mythicalsystems/dash-ledger/pkg/redis"
	"github.com/mythicalsystems/dash-ledger/pkg/worker"
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

	board, err := leaderboard.New(redisAdap, config.Get().LeaderboardKey)
	if err != nil {
		logger.Error("failed creating scoreboard", "error", err)
		return
	}

	consumerName := config.Get().EventsConsumerName
	if consumerName == "" {
		consumerName, _ = os.Hostname()
	}

	consumer, err := events.NewConsumer(redisAdap, events.Config{
		Stream:        config.Get().EventsStreamName,
		ConsumerGroup: config.Get().EventsConsumerGroup,
		ConsumerName:  consumerName,
		PollInterval:  config.Get().EventsPollInterval,
		BatchSize:     config.Get().EventsBatchSize,
	})
	if err != nil {
		logger.Error("failed creating event consumer", "error", err)
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

	go func() {
		prom.ListenAndServer(config.Get().PromAddr, "/metrics")
	}()

	// the scoreboard is a derived view: applies are idempotent via the
	// per-event guard and the stream retains events for replay, so the
	// workers can apply after the ack
	wm := worker.NewWorkerManager(1024, 4, nil)
	wm.SetWorker(func(workerIndex int, job interface{}) {
		ev, ok := job.(events.Event)
		if !ok {
			return
		}
		if err := board.Apply(ev); err != nil {
			logger.Error("failed to apply event to scoreboard", "event_id", ev.ID, "kind", ev.Kind, "error", err)
		}
	})

	err = consumer.Consume(func(ctx context.Context, msg *events.Message) error {
		wm.Enqueue(msg.Event)
		return nil
	})
	if err != nil {
		logger.Error("failed to start consumer", "error", err)
		return
	}

	go func() {
		if err := wm.Start(); err != nil {
			logger.Info("worker manager stopped", "reason", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	select {
	case <-c:
		if err := consumer.Stop(5 * time.Second); err != nil {
			logger.Error("consumer did not stop cleanly", "error", err)
		}
		wm.Exit()
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
