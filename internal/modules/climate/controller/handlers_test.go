package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surfsup-server/internal/modules/climate/service"
	"surfsup-server/internal/modules/climate/types"
	"surfsup-server/internal/modules/climate/views"
)

type mockRepo struct {
	recent      string
	stations    []types.Station
	precip      []types.Precipitation
	active      string
	tobs        []types.TemperatureObservation
	statsFrom   types.TemperatureStats
	statsRange  types.TemperatureStats
	err         error
	calls       int
	rangeParams []string
}

func (m *mockRepo) MostRecentDate(context.Context) (string, bool, error) {
	m.calls++
	return m.recent, m.recent != "", m.err
}

func (m *mockRepo) PrecipitationSince(context.Context, string) ([]types.Precipitation, error) {
	m.calls++
	return m.precip, m.err
}

func (m *mockRepo) Stations(context.Context) ([]types.Station, error) {
	m.calls++
	return m.stations, m.err
}

func (m *mockRepo) MostActiveStation(context.Context) (string, bool, error) {
	m.calls++
	return m.active, m.active != "", m.err
}

func (m *mockRepo) TemperatureObservations(context.Context, string, string) ([]types.TemperatureObservation, error) {
	m.calls++
	return m.tobs, m.err
}

func (m *mockRepo) TemperatureStatsFrom(context.Context, string) (types.TemperatureStats, error) {
	m.calls++
	return m.statsFrom, m.err
}

func (m *mockRepo) TemperatureStatsBetween(_ context.Context, start, end string) (types.TemperatureStats, error) {
	m.calls++
	m.rangeParams = []string{start, end}
	return m.statsRange, m.err
}

func f(v float64) *float64 { return &v }

func newMux(repo *mockRepo) *http.ServeMux {
	mux := http.NewServeMux()
	NewClimateController(service.NewService(repo)).RegisterRoutes(mux)
	return mux
}

func get(t *testing.T, mux http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	return body["error"]
}

func TestIndex(t *testing.T) {
	require.NoError(t, views.LoadTemplates())
	mux := newMux(&mockRepo{})

	rec := get(t, mux, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, indexTitle)
	for _, route := range indexRoutes {
		assert.Contains(t, body, route.Href)
	}

	assert.Equal(t, http.StatusNotFound, get(t, mux, "/nope").Code)
}

func TestPrecipitation(t *testing.T) {
	repo := &mockRepo{
		recent: "2017-08-23",
		precip: []types.Precipitation{
			{Date: "2016-08-23", Value: f(0.7)},
			{Date: "2017-08-23", Value: nil},
			{Date: "2017-08-23", Value: f(0.45)},
		},
	}
	rec := get(t, newMux(repo), "/api/v1.0/precipitation")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"2016-08-23":0.7,"2017-08-23":0.45}`, rec.Body.String())
}

func TestPrecipitation_EmptyDataset(t *testing.T) {
	rec := get(t, newMux(&mockRepo{}), "/api/v1.0/precipitation")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestStations(t *testing.T) {
	repo := &mockRepo{stations: []types.Station{
		{Station: "USC00519397", Name: "WAIKIKI 717.2, HI US"},
		{Station: "USC00513117", Name: "KANEOHE 838.1, HI US"},
	}}
	rec := get(t, newMux(repo), "/api/v1.0/stations")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `[
		{"station":"USC00519397","name":"WAIKIKI 717.2, HI US"},
		{"station":"USC00513117","name":"KANEOHE 838.1, HI US"}
	]`, rec.Body.String())

	rec = get(t, newMux(&mockRepo{}), "/api/v1.0/stations")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestTobs(t *testing.T) {
	repo := &mockRepo{
		recent: "2017-08-18",
		active: "USC00519281",
		tobs: []types.TemperatureObservation{
			{Date: "2016-08-18", Tobs: 80},
			{Date: "2017-08-18", Tobs: 79},
		},
	}
	rec := get(t, newMux(repo), "/api/v1.0/tobs")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"date":"2016-08-18","tobs":80},{"date":"2017-08-18","tobs":79}]`, rec.Body.String())
}

func TestStatsFrom(t *testing.T) {
	t.Run("invalid dates are rejected before storage", func(t *testing.T) {
		for _, start := range []string{"2017-13-40", "2017-02-30", "17-01-01", "2017-1-1", "20170101", "notadate"} {
			repo := &mockRepo{}
			rec := get(t, newMux(repo), "/api/v1.0/"+start)

			assert.Equal(t, http.StatusBadRequest, rec.Code, start)
			assert.Equal(t, "Invalid date format. Use YYYY-MM-DD.", decodeError(t, rec), start)
			assert.Zero(t, repo.calls, start)
		}
	})

	t.Run("no rows is 404", func(t *testing.T) {
		rec := get(t, newMux(&mockRepo{}), "/api/v1.0/2030-01-01")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "No data found for start date 2030-01-01.", decodeError(t, rec))
	})

	t.Run("aggregates", func(t *testing.T) {
		repo := &mockRepo{statsFrom: types.TemperatureStats{Min: f(58), Avg: f(74.5), Max: f(87)}}
		rec := get(t, newMux(repo), "/api/v1.0/2017-01-01")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"start_date":"2017-01-01","TMIN":58,"TAVG":74.5,"TMAX":87}`, rec.Body.String())
	})
}

func TestStatsBetween(t *testing.T) {
	t.Run("reversed range yields nulls", func(t *testing.T) {
		repo := &mockRepo{}
		rec := get(t, newMux(repo), "/api/v1.0/2017-12-31/2017-01-01")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"start_date":"2017-12-31","end_date":"2017-01-01","TMIN":null,"TAVG":null,"TMAX":null}`, rec.Body.String())
	})

	t.Run("parameters pass through unvalidated", func(t *testing.T) {
		repo := &mockRepo{}
		rec := get(t, newMux(repo), "/api/v1.0/banana/2017-13-40")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"banana", "2017-13-40"}, repo.rangeParams)
	})

	t.Run("aggregates", func(t *testing.T) {
		repo := &mockRepo{statsRange: types.TemperatureStats{Min: f(60), Avg: f(70), Max: f(80)}}
		rec := get(t, newMux(repo), "/api/v1.0/2017-01-01/2017-01-31")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"start_date":"2017-01-01","end_date":"2017-01-31","TMIN":60,"TAVG":70,"TMAX":80}`, rec.Body.String())
	})
}

func TestStorageFailureIs500(t *testing.T) {
	repo := &mockRepo{recent: "2017-08-23", active: "USC00519281", err: errors.New("database is locked")}
	mux := newMux(repo)

	for _, path := range []string{
		"/api/v1.0/precipitation",
		"/api/v1.0/stations",
		"/api/v1.0/tobs",
		"/api/v1.0/2017-01-01",
		"/api/v1.0/2017-01-01/2017-02-01",
	} {
		rec := get(t, mux, path)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, path)
		assert.True(t, strings.Contains(decodeError(t, rec), "database is locked"), path)
	}
}

func TestRepeatedRequestsAreIdentical(t *testing.T) {
	repo := &mockRepo{
		recent:   "2017-08-23",
		precip:   []types.Precipitation{{Date: "2017-08-01", Value: f(0.1)}, {Date: "2017-08-23", Value: f(0)}},
		stations: []types.Station{{Station: "USC00519397", Name: "WAIKIKI"}},
	}
	mux := newMux(repo)

	for _, path := range []string{"/api/v1.0/precipitation", "/api/v1.0/stations"} {
		first := get(t, mux, path).Body.String()
		second := get(t, mux, path).Body.String()
		assert.Equal(t, first, second, path)
	}
}

func TestWrongMethod(t *testing.T) {
	rec := httptest.NewRecorder()
	newMux(&mockRepo{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1.0/stations", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
