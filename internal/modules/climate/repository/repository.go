package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"surfsup-server/internal/modules/climate/types"
)

//go:embed sql/get-most-recent-date.sql
var getMostRecentDateSQL string

//go:embed sql/get-precipitation-since.sql
var getPrecipitationSinceSQL string

//go:embed sql/get-stations.sql
var getStationsSQL string

//go:embed sql/get-most-active-station.sql
var getMostActiveStationSQL string

//go:embed sql/get-temperature-observations.sql
var getTemperatureObservationsSQL string

//go:embed sql/get-temperature-stats-from.sql
var getTemperatureStatsFromSQL string

//go:embed sql/get-temperature-stats-between.sql
var getTemperatureStatsBetweenSQL string

// ClimateRepository reads the measurement and station tables. Dates are
// ISO 8601 strings and compare lexically.
type ClimateRepository interface {
	// MostRecentDate returns MAX(date); ok is false when there are no rows.
	MostRecentDate(ctx context.Context) (date string, ok bool, err error)
	PrecipitationSince(ctx context.Context, from string) ([]types.Precipitation, error)
	Stations(ctx context.Context) ([]types.Station, error)
	// MostActiveStation returns the station with the most measurement rows;
	// ok is false when there are no rows.
	MostActiveStation(ctx context.Context) (station string, ok bool, err error)
	TemperatureObservations(ctx context.Context, station string, from string) ([]types.TemperatureObservation, error)
	TemperatureStatsFrom(ctx context.Context, start string) (types.TemperatureStats, error)
	TemperatureStatsBetween(ctx context.Context, start string, end string) (types.TemperatureStats, error)
}

// QueryObserver is told about every statement the repository runs.
type QueryObserver interface {
	ObserveQuery(name string, elapsed time.Duration, err error)
}

type repositoryImpl struct {
	db       *sql.DB
	observer QueryObserver
}

func NewRepository(db *sql.DB, observer QueryObserver) ClimateRepository {
	return &repositoryImpl{db: db, observer: observer}
}

func (r *repositoryImpl) observe(name string, start time.Time, err error) {
	if r.observer != nil {
		r.observer.ObserveQuery(name, time.Since(start), err)
	}
}

func (r *repositoryImpl) MostRecentDate(ctx context.Context) (date string, ok bool, err error) {
	start := time.Now()
	defer func() { r.observe("most_recent_date", start, err) }()

	var d sql.NullString
	if err := r.db.QueryRowContext(ctx, getMostRecentDateSQL).Scan(&d); err != nil {
		return "", false, fmt.Errorf("most recent date: %w", err)
	}
	return d.String, d.Valid, nil
}

func (r *repositoryImpl) PrecipitationSince(ctx context.Context, from string) (out []types.Precipitation, err error) {
	start := time.Now()
	defer func() { r.observe("precipitation_since", start, err) }()

	rows, err := r.db.QueryContext(ctx, getPrecipitationSinceSQL, from)
	if err != nil {
		return nil, fmt.Errorf("precipitation since %s: %w", from, err)
	}
	defer closeRows(rows, "precipitation")

	for rows.Next() {
		var p types.Precipitation
		var prcp sql.NullFloat64
		if err := rows.Scan(&p.Date, &prcp); err != nil {
			return nil, fmt.Errorf("scan precipitation: %w", err)
		}
		if prcp.Valid {
			v := prcp.Float64
			p.Value = &v
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("precipitation rows: %w", err)
	}
	return out, nil
}

func (r *repositoryImpl) Stations(ctx context.Context) (out []types.Station, err error) {
	start := time.Now()
	defer func() { r.observe("stations", start, err) }()

	rows, err := r.db.QueryContext(ctx, getStationsSQL)
	if err != nil {
		return nil, fmt.Errorf("stations: %w", err)
	}
	defer closeRows(rows, "stations")

	for rows.Next() {
		var s types.Station
		if err := rows.Scan(&s.Station, &s.Name); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("station rows: %w", err)
	}
	return out, nil
}

func (r *repositoryImpl) MostActiveStation(ctx context.Context) (station string, ok bool, err error) {
	start := time.Now()
	defer func() { r.observe("most_active_station", start, err) }()

	err = r.db.QueryRowContext(ctx, getMostActiveStationSQL).Scan(&station)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("most active station: %w", err)
	}
	return station, true, nil
}

func (r *repositoryImpl) TemperatureObservations(ctx context.Context, station string, from string) (out []types.TemperatureObservation, err error) {
	start := time.Now()
	defer func() { r.observe("temperature_observations", start, err) }()

	rows, err := r.db.QueryContext(ctx, getTemperatureObservationsSQL, station, from)
	if err != nil {
		return nil, fmt.Errorf("temperature observations for %s: %w", station, err)
	}
	defer closeRows(rows, "temperature observations")

	for rows.Next() {
		var o types.TemperatureObservation
		if err := rows.Scan(&o.Date, &o.Tobs); err != nil {
			return nil, fmt.Errorf("scan temperature observation: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("temperature observation rows: %w", err)
	}
	return out, nil
}

func (r *repositoryImpl) TemperatureStatsFrom(ctx context.Context, startDate string) (stats types.TemperatureStats, err error) {
	start := time.Now()
	defer func() { r.observe("temperature_stats_from", start, err) }()

	row := r.db.QueryRowContext(ctx, getTemperatureStatsFromSQL, startDate)
	stats, err = scanStats(row)
	if err != nil {
		return types.TemperatureStats{}, fmt.Errorf("temperature stats from %s: %w", startDate, err)
	}
	return stats, nil
}

func (r *repositoryImpl) TemperatureStatsBetween(ctx context.Context, startDate string, endDate string) (stats types.TemperatureStats, err error) {
	start := time.Now()
	defer func() { r.observe("temperature_stats_between", start, err) }()

	row := r.db.QueryRowContext(ctx, getTemperatureStatsBetweenSQL, startDate, endDate)
	stats, err = scanStats(row)
	if err != nil {
		return types.TemperatureStats{}, fmt.Errorf("temperature stats %s..%s: %w", startDate, endDate, err)
	}
	return stats, nil
}

// scanStats reads a MIN/AVG/MAX row; aggregates over zero rows are NULL.
func scanStats(row *sql.Row) (types.TemperatureStats, error) {
	var minV, avgV, maxV sql.NullFloat64
	if err := row.Scan(&minV, &avgV, &maxV); err != nil {
		return types.TemperatureStats{}, err
	}
	return types.TemperatureStats{
		Min: nullFloat(minV),
		Avg: nullFloat(avgV),
		Max: nullFloat(maxV),
	}, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Error("close rows", "query", what, "error", err)
	}
}
