package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"family-care/internal/adapters/auth/hostedauth"
	"family-care/internal/adapters/auth/jwtauth"
	"family-care/internal/adapters/notify"
	notifymem "family-care/internal/adapters/notify/memory"
	"family-care/internal/adapters/notify/mqttpush"
	"family-care/internal/adapters/notify/redisinbox"
	"family-care/internal/adapters/notify/webhook"
	"family-care/internal/adapters/objectstore/hosted"
	pg "family-care/internal/adapters/storage/postgres"
	"family-care/internal/config"
	"family-care/internal/platform/logger"
	"family-care/internal/ports/auth"
	"family-care/internal/ports/notifications"
	"family-care/internal/ports/objectstore"
	"family-care/internal/router"
)

// @title Family Care API
// @version 1.0
// @description Historial de salud familiar: familiares, citas, medicamentos, documentos y recordatorios.
// @BasePath /
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.Log.App,
	})
	if err != nil {
		panic(err)
	}

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", map[string]any{"error": err})
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	verifier, err := newVerifier(cfg)
	if err != nil {
		return err
	}

	notifier, inbox, closeNotify := newNotifier(ctx, cfg, log)
	defer closeNotify()

	files, err := newFileStore(cfg, log)
	if err != nil {
		return err
	}

	r := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		Logger:       log,
		DB:           db,
		Files:        files,
		Notifier:     notifier,
		Inbox:        inbox,
		Location:     cfg.Location,
		WeekStart:    cfg.WeekStart,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{
			"addr":      srv.Addr,
			"auth_mode": string(cfg.Auth.Mode),
			"timezone":  cfg.Location.String(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openDB devuelve nil sin DB_DSN: el router usa repos in-memory.
func openDB(ctx context.Context, cfg *config.Config, log logger.Logger) (*sql.DB, error) {
	if cfg.DBDSN == "" {
		log.Warn("DB_DSN not set, using in-memory storage", nil)
		return nil, nil
	}

	db, err := pg.Open(cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	if cfg.DBAutoMigrate {
		if err := pg.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("database schema applied", nil)
	}
	return db, nil
}

func newVerifier(cfg *config.Config) (auth.Verifier, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeJWT:
		return jwtauth.NewVerifier(jwtauth.Config{
			Secret:   cfg.Auth.JWTSecret,
			Audience: "authenticated",
			Leeway:   30 * time.Second,
		})
	case config.AuthModeRemote:
		client, err := hostedauth.NewClient(hostedauth.Config{
			BaseURL: cfg.Hosted.URL,
			APIKey:  cfg.Hosted.APIKey,
			Timeout: cfg.Hosted.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return hostedauth.NewVerifier(client), nil
	default:
		return nil, nil
	}
}

// newNotifier elige la bandeja (Redis si hay REDIS_ADDR, si no in-memory) y le
// cuelga los sinks opcionales de MQTT y webhook.
func newNotifier(ctx context.Context, cfg *config.Config, log logger.Logger) (notifications.Notifier, notifications.Inbox, func()) {
	var (
		primary interface {
			notifications.Notifier
			notifications.Inbox
		}
		closers []func()
	)

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, using in-memory notification inbox", map[string]any{"error": err})
			_ = rdb.Close()
		} else {
			primary = redisinbox.New(rdb, redisinbox.Options{})
			closers = append(closers, func() { _ = rdb.Close() })
		}
	}
	if primary == nil {
		primary = notifymem.NewCenter()
	}

	var sinks []notify.Sink
	if cfg.MQTT.Broker != "" {
		client, err := mqttpush.Connect(mqttpush.Config{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			TopicPrefix: cfg.MQTT.TopicPrefix,
		})
		if err != nil {
			log.Warn("mqtt push disabled", map[string]any{"error": err})
		} else {
			sinks = append(sinks, mqttpush.NewSink(client, cfg.MQTT.TopicPrefix))
			closers = append(closers, func() { client.Disconnect(250) })
		}
	}
	if cfg.Webhook.URL != "" {
		sink, err := webhook.NewSink(webhook.Config{URL: cfg.Webhook.URL, APIKey: cfg.Webhook.APIKey})
		if err != nil {
			log.Warn("notification webhook disabled", map[string]any{"error": err})
		} else {
			sinks = append(sinks, sink)
		}
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	return notify.NewFanout(primary, log, sinks...), primary, closeAll
}

// newFileStore devuelve nil sin servicio hosted: el router usa el store in-memory.
func newFileStore(cfg *config.Config, log logger.Logger) (objectstore.Store, error) {
	if cfg.Hosted.URL == "" || cfg.Hosted.APIKey == "" {
		log.Warn("hosted storage not configured, documents kept in memory", nil)
		return nil, nil
	}
	return hosted.NewStore(hosted.Config{
		BaseURL: cfg.Hosted.URL,
		APIKey:  cfg.Hosted.APIKey,
		Bucket:  cfg.Hosted.Bucket,
		Timeout: cfg.Hosted.Timeout,
	})
}
