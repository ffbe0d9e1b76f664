package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ledger/archive"
	"ledger/cache"
	"ledger/config"
	"ledger/database"
	"ledger/events"
	"ledger/middleware"
	"ledger/router"
	"ledger/service"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// @title Ledger API
// @version 1.0
// @description Personal finance bookkeeping: users, categories, transactions and groups.
// @host localhost:8080
// @BasePath /

const shutdownTimeout = 10 * time.Second

var (
	configFile  string
	port        string
	showVersion bool
)

func init() {
	flag.StringVar(&configFile, "config", "", "external config file (optional)")
	flag.StringVar(&configFile, "c", "", "external config file (shorthand)")
	flag.StringVar(&port, "port", "", "listen port, e.g. 8080 or :8080")
	flag.StringVar(&port, "p", "", "listen port (shorthand)")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&showVersion, "v", false, "print version (shorthand)")
}

func main() {
	flag.Parse()

	if showVersion {
		logrus.Info("ledger v1.0.0")
		return
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	setupLogging(&cfg.Log)

	if port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Server.Port = port
		logrus.Infof("port overridden by flag: %s", port)
	}

	config.PrintConfig()

	if err := database.Init(cfg); err != nil {
		logrus.Fatalf("database init: %v", err)
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := router.Deps{
		Verifier:  middleware.NewVerifier(cfg.JWT.Secret),
		Mailer:    service.NewEmailService(&cfg.Email),
		Publisher: events.NopPublisher{},
	}

	deps.Cache, err = cache.New(ctx, &cfg.Redis)
	if err != nil {
		logrus.WithError(err).Warn("redis unavailable, continuing without category cache")
	}
	defer deps.Cache.Close()

	if cfg.AMQP.URL != "" {
		publisher, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			logrus.WithError(err).Warn("AMQP unavailable, continuing without events")
		} else {
			deps.Publisher = publisher
		}
	}
	defer deps.Publisher.Close()

	if cfg.Mongo.URI != "" {
		client, err := archive.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			logrus.WithError(err).Warn("MongoDB unavailable, continuing without archive")
		} else {
			deps.Archive = archive.New(archive.NewMongoProvider(client, cfg.Mongo.Database))
			defer client.Disconnect(context.Background())
		}
	}

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router.SetupRouter(cfg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logrus.Infof("ledger listening on %s", cfg.Server.Port)
		logrus.Infof("swagger: http://localhost%s/swagger/index.html", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logrus.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logrus.WithError(err).Error("server stopped with error")
		return
	}
	logrus.Info("server stopped")
}

func setupLogging(cfg *config.LogConfig) {
	if strings.EqualFold(cfg.Format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
