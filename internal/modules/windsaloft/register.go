package windsaloft

import (
	"database/sql"
	"log/slog"
	"net/http"

	"windsaloft-server/internal/modules/windsaloft/controller"
	"windsaloft-server/internal/modules/windsaloft/repository"
	"windsaloft-server/internal/modules/windsaloft/service"
	"windsaloft-server/internal/modules/windsaloft/upstream"
)

// RegisterFeature mounts the winds aloft routes on mux. The returned service
// must be drained with Wait before the publisher is disconnected.
func RegisterFeature(mux *http.ServeMux, db *sql.DB, fetcher upstream.Fetcher, publisher service.Publisher, logger *slog.Logger) *service.Service {
	queryRepository := repository.NewRepository(db)
	forecastService := service.NewService(fetcher, queryRepository, publisher, logger)
	windsAloftController := controller.NewWindsAloftController(forecastService, queryRepository)
	windsAloftController.RegisterRoutes(mux)
	return forecastService
}
