package controller

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"surfsup-server/internal/modules/climate/service"
	"surfsup-server/internal/modules/climate/views"
	"surfsup-server/internal/utils"
)

func (c *climateControllerImpl) handleIndex(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := views.RenderIndex(&buf, &views.IndexData{Title: indexTitle, Routes: indexRoutes}); err != nil {
		slog.Error("index template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("index: write response failed", "error", err)
	}
}

func (c *climateControllerImpl) handlePrecipitation(w http.ResponseWriter, r *http.Request) {
	precipitation, err := c.service.Precipitation(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, precipitation)
}

func (c *climateControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	stations, err := c.service.Stations(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stations)
}

func (c *climateControllerImpl) handleTobs(w http.ResponseWriter, r *http.Request) {
	observations, err := c.service.MostActiveTemperatures(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, observations)
}

func (c *climateControllerImpl) handleStatsFrom(w http.ResponseWriter, r *http.Request) {
	start := r.PathValue("start")
	slog.Debug("stats from start date", "start", start)

	if err := validateDate(start); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := c.service.StatsFrom(r.Context(), start)
	if errors.Is(err, service.ErrNoData) {
		utils.WriteError(w, http.StatusNotFound, noDataMessage(start))
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}

// handleStatsBetween passes start and end through unvalidated; a malformed or
// reversed range answers 200 with null aggregates.
func (c *climateControllerImpl) handleStatsBetween(w http.ResponseWriter, r *http.Request) {
	stats, err := c.service.StatsBetween(r.Context(), r.PathValue("start"), r.PathValue("end"))
	if err != nil {
		internalError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("request failed", "path", r.URL.Path, "error", err)
	utils.WriteError(w, http.StatusInternalServerError, err.Error())
}
