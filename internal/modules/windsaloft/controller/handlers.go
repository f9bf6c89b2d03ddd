package controller

import (
	"bytes"
	"log/slog"
	"net/http"

	"windsaloft-server/internal/httpapi"
	"windsaloft-server/internal/modules/windsaloft/service"
	"windsaloft-server/internal/modules/windsaloft/table"
	"windsaloft-server/internal/modules/windsaloft/types"
	"windsaloft-server/internal/modules/windsaloft/views"
	"windsaloft-server/internal/utils"
)

func (c *windsAloftControllerImpl) handleWindsAloft(w http.ResponseWriter, r *http.Request) {
	t, ok := c.forecast(w, r)
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, t)
}

func (c *windsAloftControllerImpl) handleForecastPage(w http.ResponseWriter, r *http.Request) {
	t, ok := c.forecast(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	data := &views.ForecastData{
		Region:       query.Get("region"),
		LowAltitude:  query.Get("low_altitude"),
		HighAltitude: query.Get("high_altitude"),
		Labels:       t.Labels,
		Rows:         t.Rows,
	}
	var buf bytes.Buffer
	if err := views.RenderForecast(&buf, data); err != nil {
		slog.Error("forecast template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("forecast page: write response failed", "error", err)
	}
}

// forecast runs the query from r and writes the error response itself when it
// fails.
func (c *windsAloftControllerImpl) forecast(w http.ResponseWriter, r *http.Request) (table.Table, bool) {
	q, err := parseForecastQuery(r, c.now())
	if err != nil {
		slog.Info("rejected winds aloft query",
			"request_id", httpapi.RequestID(r.Context()),
			"query", r.URL.RawQuery,
			"error", err,
		)
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return table.Table{}, false
	}

	t, err := c.service.Forecast(r.Context(), q)
	if err != nil {
		status := service.StatusFor(err)
		logForecastError(httpapi.RequestID(r.Context()), q, status, err)
		utils.WriteError(w, status, forecastErrorMessage(err, status))
		return table.Table{}, false
	}
	return t, true
}

func logForecastError(requestID string, q types.Query, status int, err error) {
	attrs := []any{"request_id", requestID, "region", q.Region, "fcst", q.Horizon, "status", status, "error", err}
	if status >= http.StatusInternalServerError {
		slog.Error("winds aloft forecast failed", attrs...)
		return
	}
	slog.Warn("winds aloft forecast rejected", attrs...)
}

func (c *windsAloftControllerImpl) handleQueries(w http.ResponseWriter, r *http.Request) {
	limit, err := parseQueriesLimit(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := c.queries.ListQueries(r.Context(), limit)
	if err != nil {
		slog.Error("list queries failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load queries")
		return
	}
	if records == nil {
		records = []types.QueryRecord{}
	}
	utils.WriteJSON(w, http.StatusOK, records)
}
