package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"windsaloft-server/internal/httpapi"
	"windsaloft-server/internal/modules/windsaloft/table"
	"windsaloft-server/internal/modules/windsaloft/types"
	"windsaloft-server/internal/modules/windsaloft/upstream"
)

// QueryRecorder stores one row per answered query.
type QueryRecorder interface {
	InsertQuery(ctx context.Context, rec types.QueryRecord) error
}

// Publisher hands a successful forecast to downstream consumers.
type Publisher interface {
	PublishForecast(msg types.ForecastMessage) error
}

type Service struct {
	fetcher   upstream.Fetcher
	recorder  QueryRecorder
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time

	publishing sync.WaitGroup
}

// NewService wires the forecast pipeline. recorder and publisher may be nil.
func NewService(fetcher upstream.Fetcher, recorder QueryRecorder, publisher Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		fetcher:   fetcher,
		recorder:  recorder,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Forecast fetches both tiers concurrently, merges them and applies the
// altitude range. A successful forecast is published in the background; Wait
// blocks until those publishes are done.
func (s *Service) Forecast(ctx context.Context, q types.Query) (table.Table, error) {
	if q.Region == "" {
		q.Region = types.DefaultRegion
	}
	if q.Horizon == "" {
		q.Horizon = types.Horizon06
	}
	logger := s.logger.With("request_id", httpapi.RequestID(ctx))

	start := s.now()
	out, err := s.forecast(ctx, logger, q)
	s.record(ctx, logger, q, out, err, s.now().Sub(start))
	if err != nil {
		return table.Table{}, err
	}

	if s.publisher != nil {
		s.publishing.Add(1)
		go func() {
			defer s.publishing.Done()
			s.publish(logger, q, out)
		}()
	}
	return out, nil
}

// Wait blocks until every background publish has finished.
func (s *Service) Wait() {
	s.publishing.Wait()
}

func (s *Service) forecast(ctx context.Context, logger *slog.Logger, q types.Query) (table.Table, error) {
	var low, high table.Table

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		low, err = s.fetchTier(gctx, logger, q, types.TierLow)
		return err
	})
	g.Go(func() error {
		var err error
		high, err = s.fetchTier(gctx, logger, q, types.TierHigh)
		return err
	})
	if err := g.Wait(); err != nil {
		return table.Table{}, err
	}

	merged := table.Merge(low, high)
	logger.Debug("tiers merged",
		"region", q.Region,
		"stations", len(merged.Stations()),
		"altitudes", merged.Altitudes(),
	)

	filtered, err := table.Filter(merged, q.Range)
	if err != nil {
		return table.Table{}, err
	}
	return filtered, nil
}

func (s *Service) fetchTier(ctx context.Context, logger *slog.Logger, q types.Query, tier types.Tier) (table.Table, error) {
	raw, err := s.fetcher.Fetch(ctx, q.Region, tier, q.Horizon)
	if err != nil {
		return table.Table{}, err
	}
	t, err := table.Parse(raw)
	if err != nil {
		return table.Table{}, fmt.Errorf("%s tier: %w", tier, err)
	}
	logger.Debug("tier parsed",
		"level", tier,
		"stations", len(t.Stations()),
		"columns", len(t.Labels),
	)
	return t, nil
}

func (s *Service) record(ctx context.Context, logger *slog.Logger, q types.Query, out table.Table, err error, took time.Duration) {
	if s.recorder == nil {
		return
	}
	rec := types.QueryRecord{
		Region:       q.Region,
		Horizon:      string(q.Horizon),
		LowAltitude:  q.Range.Lower,
		HighAltitude: q.Range.Upper,
		Status:       StatusFor(err),
		Stations:     len(out.Stations()),
		Columns:      len(out.Labels),
		DurationMs:   took.Milliseconds(),
		CreatedAt:    s.now().UTC(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	// the request context may already be cancelled; the log row should still land
	if recErr := s.recorder.InsertQuery(context.WithoutCancel(ctx), rec); recErr != nil {
		logger.Error("record query failed", "region", q.Region, "error", recErr)
	}
}

func (s *Service) publish(logger *slog.Logger, q types.Query, out table.Table) {
	msg := types.ForecastMessage{
		Region:      q.Region,
		Horizon:     string(q.Horizon),
		GeneratedAt: s.now().UTC(),
		Table:       out,
	}
	if err := s.publisher.PublishForecast(msg); err != nil {
		logger.Warn("publish forecast failed", "region", q.Region, "fcst", q.Horizon, "error", err)
	}
}

// StatusFor maps a Forecast error to the HTTP status the API answers with.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, table.ErrEmptyResult),
		errors.Is(err, table.ErrMalformedUpstreamData),
		errors.Is(err, table.ErrInvalidRange),
		errors.Is(err, upstream.ErrUpstreamNoData):
		return http.StatusBadRequest
	case errors.Is(err, upstream.ErrUpstreamCall):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
