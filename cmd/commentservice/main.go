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
	logger := log.New(os.Stderr, "[comment-service] ", log.LstdFlags)

	cfg, err := config.Load("comment-service", "localhost:8001", os.Args[1:])
	if err != nil {
		logger.Fatal("config:", err)
	}

	repo, err := database.NewPgRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Println("db close:", err)
		}
	}()

	if err := database.Migrate(repo.DB(), database.CommentSchema); err != nil {
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
	if err := broker.Declare(pubCh, broker.CommentServiceTopology(cfg.ServiceName)); err != nil {
		logger.Fatal("declare topology:", err)
	}
	publisher := broker.NewAMQPPublisher(pubCh, statsUpdater)

	syncer := roomaccess.NewSyncer(logger, statsUpdater, repo, publisher)
	perms := permission.NewRoomAccessEvaluator(logger, repo, syncer)

	scores := command.NewScoreRecomputer(logger, repo, publisher)
	comments := command.NewCommentHandler(logger, repo, perms, publisher)
	votes := command.NewVoteHandler(repo, perms, scores)
	settings := command.NewSettingsHandler(logger, repo, perms, publisher)

	dispatcher := command.NewDispatcher(logger)
	command.RegisterVoteCommands(dispatcher, votes)
	command.RegisterRoomLifecycle(dispatcher, comments, settings)

	retry := broker.RetryPolicy{
		MaxAttempts:     cfg.MaxAttempts,
		InitialInterval: cfg.RetryInterval,
	}
	dispatch := broker.BodyHandler(dispatcher.Handle)
	consumers := []*broker.Consumer{
		broker.NewConsumer(logger, statsUpdater, broker.CommentCommandExchange, cfg.Concurrency, retry, dispatch),
		broker.NewConsumer(logger, statsUpdater, broker.ConsumerQueue(broker.RoomAfterCreationExchange, cfg.ServiceName), cfg.Concurrency, retry, dispatch),
		broker.NewConsumer(logger, statsUpdater, broker.ConsumerQueue(broker.RoomAfterDeletionExchange, cfg.ServiceName), cfg.Concurrency, retry, dispatch),
		broker.NewConsumer(logger, statsUpdater, broker.ConsumerQueue(broker.RoomDuplicatedExchange, cfg.ServiceName), cfg.Concurrency, retry, dispatch),
		broker.NewConsumer(logger, statsUpdater, broker.ConsumerQueue(broker.RoomAfterPatchExchange, cfg.ServiceName), cfg.Concurrency, retry, broker.BodyHandler(syncer.HandleRoomPatched)),
		broker.NewConsumer(logger, statsUpdater, broker.RoomAccessSyncResponseQueue, cfg.Concurrency, retry, broker.BodyHandler(syncer.HandleResponse)),
	}

	app := api.NewCommentApp(mux, logger, repo, comments, votes, settings, cfg)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		scores.Run(gctx)
		return nil
	})

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
