package controller

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"surfsup-server/internal/modules/climate/types"
	"surfsup-server/internal/modules/climate/views"
)

const (
	indexTitle       = "Honolulu, Hawaii Climate API"
	msgInvalidDate   = "Invalid date format. Use YYYY-MM-DD."
	msgNoDataForDate = "No data found for start date %s."
)

var validate = validator.New()

var errInvalidDate = errors.New(msgInvalidDate)

// indexRoutes is the route list rendered on the index page.
var indexRoutes = []views.RouteLink{
	{Href: "/api/v1.0/precipitation", Description: "Last 12 months of precipitation data"},
	{Href: "/api/v1.0/stations", Description: "List of weather stations"},
	{Href: "/api/v1.0/tobs", Description: "Temperature observations of the most active station for the last 12 months"},
	{Href: "/api/v1.0/2017-01-01", Description: "Minimum, average, and maximum temperatures from a start date (format: yyyy-mm-dd)"},
	{Href: "/api/v1.0/2017-01-01/2017-12-31", Description: "Minimum, average, and maximum temperatures for a date range (format: yyyy-mm-dd)"},
}

// validateDate accepts only real calendar dates in the exact YYYY-MM-DD form.
func validateDate(s string) error {
	if err := validate.Var(s, "required,datetime="+types.DateLayout); err != nil {
		return errInvalidDate
	}
	return nil
}

func noDataMessage(start string) string {
	return fmt.Sprintf(msgNoDataForDate, start)
}
