// Package dataset loads the Hawaii climate CSV exports into the schema built
// by package migrate.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const batchSize = 500

var (
	stationColumns     = []string{"station", "name", "latitude", "longitude", "elevation"}
	measurementColumns = []string{"station", "date", "prcp", "tobs"}
)

// Result counts the rows written by Import.
type Result struct {
	Stations     int
	Measurements int
}

// Open opens (creating if needed) a writable SQLite file for import.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset database: %w", err)
	}
	return db, nil
}

// Import parses both CSV files and inserts them in a single transaction, so a
// bad row in either file leaves the database untouched. Either reader may be
// nil to skip that table.
func Import(ctx context.Context, db *gorm.DB, stations io.Reader, measurements io.Reader) (Result, error) {
	var res Result

	var stationRows []Station
	if stations != nil {
		rows, err := ParseStations(stations)
		if err != nil {
			return res, err
		}
		stationRows = rows
	}
	var measurementRows []Measurement
	if measurements != nil {
		rows, err := ParseMeasurements(measurements)
		if err != nil {
			return res, err
		}
		measurementRows = rows
	}

	start := time.Now()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(stationRows) > 0 {
			if err := tx.CreateInBatches(stationRows, batchSize).Error; err != nil {
				return fmt.Errorf("insert stations: %w", err)
			}
		}
		if len(measurementRows) > 0 {
			if err := tx.CreateInBatches(measurementRows, batchSize).Error; err != nil {
				return fmt.Errorf("insert measurements: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	res.Stations = len(stationRows)
	res.Measurements = len(measurementRows)
	slog.Info("dataset imported",
		"stations", res.Stations,
		"measurements", res.Measurements,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// ParseStations reads station,name,latitude,longitude,elevation rows.
func ParseStations(r io.Reader) ([]Station, error) {
	var out []Station
	err := readCSV(r, stationColumns, func(line int, rec map[string]string) error {
		if rec["station"] == "" {
			return fmt.Errorf("line %d: empty station", line)
		}
		lat, err := optionalFloat(rec["latitude"])
		if err != nil {
			return fmt.Errorf("line %d: latitude: %w", line, err)
		}
		lon, err := optionalFloat(rec["longitude"])
		if err != nil {
			return fmt.Errorf("line %d: longitude: %w", line, err)
		}
		elev, err := optionalFloat(rec["elevation"])
		if err != nil {
			return fmt.Errorf("line %d: elevation: %w", line, err)
		}
		out = append(out, Station{
			Station:   rec["station"],
			Name:      rec["name"],
			Latitude:  lat,
			Longitude: lon,
			Elevation: elev,
		})
		return nil
	})
	return out, err
}

// ParseMeasurements reads station,date,prcp,tobs rows. Dates must be
// YYYY-MM-DD since the API compares them as strings.
func ParseMeasurements(r io.Reader) ([]Measurement, error) {
	var out []Measurement
	err := readCSV(r, measurementColumns, func(line int, rec map[string]string) error {
		if rec["station"] == "" {
			return fmt.Errorf("line %d: empty station", line)
		}
		if _, err := time.Parse("2006-01-02", rec["date"]); err != nil {
			return fmt.Errorf("line %d: date %q: %w", line, rec["date"], err)
		}
		prcp, err := optionalFloat(rec["prcp"])
		if err != nil {
			return fmt.Errorf("line %d: prcp: %w", line, err)
		}
		tobs, err := optionalFloat(rec["tobs"])
		if err != nil {
			return fmt.Errorf("line %d: tobs: %w", line, err)
		}
		out = append(out, Measurement{
			Station: rec["station"],
			Date:    rec["date"],
			Prcp:    prcp,
			Tobs:    tobs,
		})
		return nil
	})
	return out, err
}

// readCSV maps each record onto the header names in want. Extra columns are
// ignored; missing ones are an error.
func readCSV(r io.Reader, want []string, fn func(line int, rec map[string]string) error) error {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return errors.New("csv: missing header")
	}
	if err != nil {
		return fmt.Errorf("csv header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range want {
		if _, ok := index[col]; !ok {
			return fmt.Errorf("csv header: missing column %q", col)
		}
	}

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		rec := make(map[string]string, len(want))
		for _, col := range want {
			rec[col] = strings.TrimSpace(record[index[col]])
		}
		if err := fn(line, rec); err != nil {
			return err
		}
	}
}

func optionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
