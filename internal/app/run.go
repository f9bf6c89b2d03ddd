package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"windsaloft-server/internal/config"
	db "windsaloft-server/internal/db"
	httpapi "windsaloft-server/internal/httpapi"
	"windsaloft-server/internal/metrics"
	"windsaloft-server/internal/migrate"
	windsaloft "windsaloft-server/internal/modules/windsaloft"
	"windsaloft-server/internal/modules/windsaloft/service"
	"windsaloft-server/internal/modules/windsaloft/upstream"
	windsaloftviews "windsaloft-server/internal/modules/windsaloft/views"
	"windsaloft-server/internal/mqtt"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"upstreamBaseURL", cfg.UpstreamBaseURL,
		"upstreamTimeout", cfg.UpstreamTimeout,
		"dbDriver", cfg.Driver,
		"sqlitePath", cfg.Path,
		"dbMaxOpenConns", cfg.MaxOpenConns,
		"dbMaxIdleConns", cfg.MaxIdleConns,
		"dbConnMaxLifetime", cfg.ConnMaxLifetime,
		"sqliteLogQueries", cfg.LogQueries,
		"mqttEnabled", cfg.MQTTEnabled,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopicPrefix", cfg.MQTTTopicPrefix,
	)

	dbConn, err := db.Open(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	if err := migrate.Run(ctx, dbConn); err != nil {
		return err
	}
	slog.Info("database ready")

	if err := windsaloftviews.LoadTemplates(); err != nil {
		return err
	}

	publisher, disconnect := newPublisher(ctx, cfg)
	defer disconnect()

	m := metrics.New()

	fetcher := upstream.Instrument(upstream.NewClient(upstream.Config{
		BaseURL:   cfg.UpstreamBaseURL,
		Timeout:   cfg.UpstreamTimeout,
		UserAgent: cfg.UpstreamUserAgent,
	}, nil), m)

	mux := httpapi.NewMux(dbConn)
	mux.Handle("GET /metrics", m.Handler())
	forecasts := windsaloft.RegisterFeature(mux, dbConn, fetcher, publisher, slog.Default())
	// runs before the publisher disconnects
	defer forecasts.Wait()

	srv := httpapi.NewServer(cfg, mux, m)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}

// newPublisher returns the forecast publisher and its cleanup. A broker that
// is down at startup does not stop the server; paho keeps retrying.
func newPublisher(ctx context.Context, cfg config.Config) (service.Publisher, func()) {
	if !cfg.MQTTEnabled {
		slog.Info("mqtt disabled, forecasts are not published")
		return mqtt.NopPublisher{}, func() {}
	}

	publisher := mqtt.NewPublisher(cfg, slog.Default())

	connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
	err := publisher.Connect(connectCtx)
	connectCancel()
	if err != nil {
		slog.Warn("mqtt connection failed (continuing, will retry in background)", "error", err)
	}

	return publisher, func() {
		slog.Info("mqtt disconnecting")
		publisher.Disconnect()
	}
}
