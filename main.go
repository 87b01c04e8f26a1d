package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/DedS3t/monopoly-economy/app/controllers"
	"github.com/DedS3t/monopoly-economy/pkg/routes"
	"github.com/DedS3t/monopoly-economy/platform/bankruptcy"
	"github.com/DedS3t/monopoly-economy/platform/board"
	"github.com/DedS3t/monopoly-economy/platform/cache"
	"github.com/DedS3t/monopoly-economy/platform/config"
	"github.com/DedS3t/monopoly-economy/platform/database"
	"github.com/DedS3t/monopoly-economy/platform/ledger"
	"github.com/DedS3t/monopoly-economy/platform/logging"
	"github.com/DedS3t/monopoly-economy/platform/metrics"
	"github.com/DedS3t/monopoly-economy/platform/notify"
	"github.com/DedS3t/monopoly-economy/platform/property"
	"github.com/DedS3t/monopoly-economy/platform/session"
	socket "github.com/DedS3t/monopoly-economy/platform/sockets"
	"github.com/DedS3t/monopoly-economy/platform/store"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if err := logging.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.WithError(err).Fatal("logging")
	}

	catalog, err := board.LoadProperties()
	if err != nil {
		log.WithError(err).Fatal("load board")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatcher := notify.NewDispatcher(cfg.NotifyBuffer, cfg.NotifyGapTimeout, notify.LogSink{})

	var s store.Store
	switch cfg.Store {
	case config.StorePostgres:
		db := database.PostgreSQLConnection(cfg)
		if err := database.Migrate(ctx, db, catalog.All()); err != nil {
			log.WithError(err).Fatal("migrate")
		}
		s = store.NewPostgres(db, dispatcher)
	default:
		s = store.NewMemory(dispatcher)
	}
	defer s.Close()

	l := ledger.New(s, cfg.ConflictRetries)
	props := property.New(s, l, catalog, cfg.ConflictRetries)
	sessions := session.New(s, session.Options{
		StartingBalance: cfg.StartingBalance,
		MaxPlayers:      cfg.MaxPlayers,
		Retries:         cfg.ConflictRetries,
	})

	var replay socket.Replayer
	if cfg.RedisURL != "" {
		pool := cache.CreateRedisPool(cfg.RedisURL)
		defer pool.Close()
		redisSink := cache.NewSink(pool)
		dispatcher.AddSink(redisSink)
		replay = redisSink
	}

	sockets, err := socket.NewServer(fmt.Sprintf(":%d", cfg.SocketPort), sessions, replay, cfg.CORSOrigins)
	if err != nil {
		log.WithError(err).Fatal("socket.io")
	}
	dispatcher.AddSink(socket.NewSink(sockets.Broadcaster()))

	notifyCtx, stopNotify := context.WithCancel(context.Background())
	go dispatcher.Run(notifyCtx)

	h := &controllers.Handler{
		Ledger:     l,
		Properties: props,
		Bankruptcy: bankruptcy.New(s, l, props, catalog, cfg.ConflictRetries),
		Sessions:   sessions,
		Board:      catalog,
		Secret:     []byte(cfg.JWTSecret),
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(metrics.Middleware())
	app.Use(logging.AccessLog())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.CORSOrigins, ","),
		AllowCredentials: true,
	}))
	routes.PublicRoutes(app, h)
	routes.AuthRoutes(app, h)
	routes.GameRoutes(app, h)

	go func() {
		if err := sockets.Serve(); err != nil {
			log.WithError(err).Error("socket server stopped")
			stop()
		}
	}()

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			log.WithError(err).Warn("http shutdown")
		}
	}()

	log.WithField("port", cfg.HTTPPort).Info("http listening")
	if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTPPort)); err != nil {
		log.WithError(err).Error("http server stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sockets.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("socket shutdown")
	}
	stopNotify()
	<-dispatcher.Done()
}
