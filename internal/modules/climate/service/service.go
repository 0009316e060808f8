package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"surfsup-server/internal/modules/climate/repository"
	"surfsup-server/internal/modules/climate/types"
)

// lookbackDays is the "last 12 months" window, counted back from the most
// recent measurement date rather than from today.
const lookbackDays = 365

// ErrNoData reports that a valid query matched no measurement rows.
var ErrNoData = errors.New("no data")

type Service struct {
	repository repository.ClimateRepository
}

func NewService(repository repository.ClimateRepository) *Service {
	return &Service{repository: repository}
}

// ReferenceDate returns the most recent measurement date minus 365 days.
// ok is false when the dataset is empty.
func (s *Service) ReferenceDate(ctx context.Context) (string, bool, error) {
	recent, ok, err := s.repository.MostRecentDate(ctx)
	if err != nil || !ok {
		return "", false, err
	}
	t, err := time.Parse(types.DateLayout, recent)
	if err != nil {
		return "", false, fmt.Errorf("most recent date %q: %w", recent, err)
	}
	return t.AddDate(0, 0, -lookbackDays).Format(types.DateLayout), true, nil
}

// Precipitation maps each date in the last 12 months to its precipitation.
// Several stations report per date; the row with the highest id wins.
func (s *Service) Precipitation(ctx context.Context) (map[string]*float64, error) {
	out := make(map[string]*float64)
	from, ok, err := s.ReferenceDate(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return out, nil
	}

	rows, err := s.repository.PrecipitationSince(ctx, from)
	if err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.Date] = p.Value
	}
	return out, nil
}

func (s *Service) Stations(ctx context.Context) ([]types.Station, error) {
	stations, err := s.repository.Stations(ctx)
	if err != nil {
		return nil, err
	}
	if stations == nil {
		stations = []types.Station{}
	}
	return stations, nil
}

// MostActiveTemperatures returns the last 12 months of temperature
// observations for the station with the most measurement rows.
func (s *Service) MostActiveTemperatures(ctx context.Context) ([]types.TemperatureObservation, error) {
	out := []types.TemperatureObservation{}
	from, ok, err := s.ReferenceDate(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return out, nil
	}

	station, ok, err := s.repository.MostActiveStation(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return out, nil
	}

	obs, err := s.repository.TemperatureObservations(ctx, station, from)
	if err != nil {
		return nil, err
	}
	return append(out, obs...), nil
}

// StatsFrom aggregates tobs over every row on or after start. It returns
// ErrNoData when nothing matched. start is expected to be validated.
func (s *Service) StatsFrom(ctx context.Context, start string) (types.StartStats, error) {
	stats, err := s.repository.TemperatureStatsFrom(ctx, start)
	if err != nil {
		return types.StartStats{}, err
	}
	if stats.Min == nil {
		return types.StartStats{}, fmt.Errorf("start date %s: %w", start, ErrNoData)
	}
	return types.StartStats{
		StartDate: start,
		TMin:      stats.Min,
		TAvg:      stats.Avg,
		TMax:      stats.Max,
	}, nil
}

// StatsBetween aggregates tobs over start <= date <= end. Inputs are used as
// given: a malformed or reversed range simply yields null aggregates.
func (s *Service) StatsBetween(ctx context.Context, start string, end string) (types.RangeStats, error) {
	stats, err := s.repository.TemperatureStatsBetween(ctx, start, end)
	if err != nil {
		return types.RangeStats{}, err
	}
	return types.RangeStats{
		StartDate: start,
		EndDate:   end,
		TMin:      stats.Min,
		TAvg:      stats.Avg,
		TMax:      stats.Max,
	}, nil
}
