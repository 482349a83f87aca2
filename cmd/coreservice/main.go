package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/npezzotti/go-classroom/internal/api"
	"github.com/npezzotti/go-classroom/internal/broker"
	"github.com/npezzotti/go-classroom/internal/command"
	"github.com/npezzotti/go-classroom/internal/config"
	"github.com/npezzotti/go-classroom/internal/database"
	"github.com/npezzotti/go-classroom/internal/permission"
	"github.com/npezzotti/go-classroom/internal/roomaccess"
	"github.com/npezzotti/go-classroom/internal/stats"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := log.New(os.Stderr, "[core-service] ", log.LstdFlags)

	cfg, err := config.Load("core-service", "localhost:8000", os.Args[1:])
	if err != nil {
		logger.Fatal("config:", err)
	}

	filter, err := broker.LoadEntityFilter(cfg.EventFilterFile)
	if err != nil {
		logger.Fatal("event filter:", err)
	}

	repo, err := database.NewPgCoreRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Println("db close:", err)
		}
	}()

	if err := database.Migrate(repo.DB(), database.CoreSchema); err != nil {
		logger.Fatal("migrate:", err)
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux, cfg.ServiceName)
	statsUpdater.Run()
	defer statsUpdater.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := broker.Dial(ctx, cfg.AmqpURL, logger)
	if err != nil {
		logger.Fatal("amqp dial:", err)
	}
	defer conn.Close()

	pubCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("amqp channel:", err)
	}
	if err := broker.Declare(pubCh, broker.CoreServiceTopology()); err != nil {
		logger.Fatal("declare topology:", err)
	}
	publisher := broker.NewAMQPPublisher(pubCh, statsUpdater)

	perms := permission.NewCoreEvaluator(logger, repo)
	serializer := broker.NewEntitySerializer(filter)
	rooms := command.NewRoomHandler(logger, repo, perms, serializer, publisher)
	feedback := command.NewFeedbackHandler(logger, repo, perms, serializer, publisher)
	responder := roomaccess.NewResponder(logger, statsUpdater, repo, publisher)

	dispatcher := command.NewDispatcher(logger)
	command.RegisterFeedbackCommands(dispatcher, feedback)

	retry := broker.RetryPolicy{
		MaxAttempts:     cfg.MaxAttempts,
		InitialInterval: cfg.RetryInterval,
	}
	dispatch := broker.BodyHandler(dispatcher.Handle)
	consumers := []*broker.Consumer{
		broker.NewConsumer(logger, statsUpdater, broker.FeedbackCreateCommandQueue, cfg.Concurrency, retry, dispatch),
		broker.NewConsumer(logger, statsUpdater, broker.FeedbackResetCommandQueue, cfg.Concurrency, retry, dispatch),
		broker.NewConsumer(logger, statsUpdater, broker.RoomAccessSyncRequestQueue, cfg.Concurrency, retry, broker.BodyHandler(responder.Handle)),
	}

	app := api.NewCoreApp(mux, logger, repo, rooms, feedback, perms, cfg)

	g, gctx := errgroup.WithContext(ctx)

	for _, c := range consumers {
		ch, err := conn.Channel()
		if err != nil {
			logger.Fatal("amqp channel:", err)
		}
		g.Go(func() error {
			defer ch.Close()
			return c.Run(gctx, ch)
		})
	}

	g.Go(func() error {
		if err := app.Start(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return app.Shutdown(shutDownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Println("exit:", err)
	}

	logger.Println("shutdown complete")
}
