package types

// DateLayout is the ISO 8601 calendar date format used in storage and URLs.
const DateLayout = "2006-01-02"

type Station struct {
	Station string `json:"station"`
	Name    string `json:"name"`
}

// Precipitation is one measurement row's rainfall; Value is nil when the
// station did not report.
type Precipitation struct {
	Date  string
	Value *float64
}

type TemperatureObservation struct {
	Date string  `json:"date"`
	Tobs float64 `json:"tobs"`
}

// TemperatureStats holds MIN/AVG/MAX(tobs); all three are nil when no row
// matched the filter.
type TemperatureStats struct {
	Min *float64
	Avg *float64
	Max *float64
}

type StartStats struct {
	StartDate string   `json:"start_date"`
	TMin      *float64 `json:"TMIN"`
	TAvg      *float64 `json:"TAVG"`
	TMax      *float64 `json:"TMAX"`
}

type RangeStats struct {
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	TMin      *float64 `json:"TMIN"`
	TAvg      *float64 `json:"TAVG"`
	TMax      *float64 `json:"TMAX"`
}
