package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"skins-market/internal/cache"
	"skins-market/internal/config"
	"skins-market/internal/db"
	"skins-market/internal/events"
	"skins-market/internal/httpserver"
	"skins-market/internal/mail"
	"skins-market/internal/media"
	"skins-market/internal/msgcodec"
	"skins-market/internal/paygate"
	basketrepo "skins-market/internal/repository/basket"
	categoryrepo "skins-market/internal/repository/category"
	inviterepo "skins-market/internal/repository/invite"
	itemrepo "skins-market/internal/repository/item"
	messagerepo "skins-market/internal/repository/message"
	paymentrepo "skins-market/internal/repository/payment"
	reviewrepo "skins-market/internal/repository/review"
	userrepo "skins-market/internal/repository/user"
	accountsvc "skins-market/internal/service/account"
	basketsvc "skins-market/internal/service/basket"
	catalogsvc "skins-market/internal/service/catalog"
	friendssvc "skins-market/internal/service/friends"
	messengersvc "skins-market/internal/service/messenger"
	paymentsvc "skins-market/internal/service/payment"
	reviewsvc "skins-market/internal/service/review"
	"skins-market/internal/tasks"
	"skins-market/internal/worker"
)

type taskRunner interface {
	tasks.Enqueuer
	Run(ctx context.Context) error
}

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Auth.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, err := cfg.Logger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("api terminated", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		return fmt.Errorf("connect to db: %w", err)
	}
	defer dbpool.Close()

	var store cache.Cache = cache.NewMemory()
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer rc.Close()
		store = rc
		logger.Info("using redis cache", zap.String("addr", cfg.Redis.Addr))
	}

	mux := tasks.NewMux()
	var runner taskRunner
	if len(cfg.Kafka.Brokers) > 0 {
		k := tasks.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, mux, cfg.Tasks.MaxAttempts, logger)
		defer k.Close()
		runner = k
		logger.Info("using kafka task queue", zap.Strings("brokers", cfg.Kafka.Brokers))
	} else {
		runner = tasks.NewLocal(mux, cfg.Tasks.Workers, cfg.Tasks.MaxAttempts, logger)
	}
	pub := events.NewDispatcher(runner, logger)

	var sender mail.Sender = mail.NewLog(logger)
	if cfg.SMTP.Host != "" {
		sender = mail.NewSMTP(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)
	}

	codec, err := msgcodec.LoadFiles(cfg.Keys.PrivatePath, cfg.Keys.PublicPath)
	if err != nil {
		return fmt.Errorf("load message keys: %w", err)
	}

	users := userrepo.NewPostgres(dbpool, logger)
	items := itemrepo.NewPostgres(dbpool, logger)
	reviews := reviewrepo.NewPostgres(dbpool, logger)
	invites := inviterepo.NewPostgres(dbpool, logger)

	catalog := catalogsvc.New(items, categoryrepo.NewPostgres(dbpool), reviews, store, pub, logger)
	if cfg.Minio.Endpoint != "" {
		images, err := media.NewStore(ctx, cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.Bucket, cfg.Minio.UseSSL, cfg.Minio.PublicURL)
		if err != nil {
			return err
		}
		catalog = catalog.WithImages(images)
	}
	accounts := accountsvc.New(users, accountsvc.Options{
		JWTSecret:    cfg.Auth.JWTSecret,
		AccessTTL:    cfg.Auth.AccessTTL,
		RefreshTTL:   cfg.Auth.RefreshTTL,
		StartingCash: cfg.StartingCash,
	}, store, pub, logger)
	basket := basketsvc.New(basketrepo.NewPostgres(dbpool, logger), items, store, pub, logger)
	friends := friendssvc.New(users, invites, store, pub, logger)

	worker.Register(mux, worker.Deps{
		Catalog:   catalog,
		Basket:    basket,
		Friends:   friends,
		Invites:   invites,
		Users:     users,
		Passwords: accounts,
		Mail:      sender,
		AppHost:   cfg.AppHost,
		Log:       logger.Named("worker"),
	})
	scheduler := tasks.NewScheduler(runner, logger)
	if err := worker.Schedule(scheduler); err != nil {
		return err
	}

	srv := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Accounts: accounts,
		Friends:  friends,
		Catalog:  catalog,
		Reviews:  reviewsvc.New(reviews, store, pub, logger),
		Basket:   basket,
		Messages: messengersvc.New(messagerepo.NewPostgres(dbpool, logger), users, codec, logger),
		Payments: paymentsvc.New(
			paygate.NewStripe(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret),
			paymentrepo.NewPostgres(dbpool, logger),
			cfg.Stripe.Currency, store, logger,
		),
	}, httpserver.Options{CORSOrigins: cfg.CORSOrigins})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error { return runner.Run(ctx) })
	g.Go(func() error { return scheduler.Run(ctx) })
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
