package dataset

// Station mirrors a row of the station table.
type Station struct {
	ID        uint `gorm:"primaryKey"`
	Station   string
	Name      string
	Latitude  *float64
	Longitude *float64
	Elevation *float64
}

func (Station) TableName() string { return "station" }

// Measurement mirrors a row of the measurement table. Prcp is NULL when the
// source left the cell empty.
type Measurement struct {
	ID      uint `gorm:"primaryKey"`
	Station string
	Date    string
	Prcp    *float64
	Tobs    *float64
}

func (Measurement) TableName() string { return "measurement" }
