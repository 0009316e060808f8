package climate

import (
	"database/sql"
	"net/http"

	"surfsup-server/internal/modules/climate/controller"
	"surfsup-server/internal/modules/climate/repository"
	"surfsup-server/internal/modules/climate/service"
	"surfsup-server/internal/observability"
)

func RegisterFeature(mux *http.ServeMux, db *sql.DB, metrics *observability.Metrics) {
	climateRepository := repository.NewRepository(db, metrics)
	climateService := service.NewService(climateRepository)
	climateController := controller.NewClimateController(climateService)
	climateController.RegisterRoutes(mux)
}
