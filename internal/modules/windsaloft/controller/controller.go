package controller

import (
	"context"
	"net/http"
	"time"

	"windsaloft-server/internal/modules/windsaloft/table"
	"windsaloft-server/internal/modules/windsaloft/types"
)

type ForecastService interface {
	Forecast(ctx context.Context, q types.Query) (table.Table, error)
}

type QueryLister interface {
	ListQueries(ctx context.Context, limit int) ([]types.QueryRecord, error)
}

type WindsAloftController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type windsAloftControllerImpl struct {
	service ForecastService
	queries QueryLister
	now     func() time.Time
}

func NewWindsAloftController(service ForecastService, queries QueryLister) WindsAloftController {
	return &windsAloftControllerImpl{
		service: service,
		queries: queries,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (c *windsAloftControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", c.handleForecastPage)
	mux.HandleFunc("GET /api/v1/windsaloft", c.handleWindsAloft)
	mux.HandleFunc("GET /get_windsaloft", c.handleWindsAloft)
	mux.HandleFunc("GET /api/v1/queries", c.handleQueries)
}
