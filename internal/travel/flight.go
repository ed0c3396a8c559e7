package travel

import (
	"errors"
	"time"
)

// Flight is a priced itinerary returned by the external search API, stored
// against the preference whose search produced it. Flights for a preference
// are replaced wholesale on every search cycle.
type Flight struct {
	ID               string
	DepartureAirport string
	ArrivalAirport   string
	DepartureTime    time.Time
	ArrivalTime      time.Time
	Price            float64
	Airline          string
	DeepLink         string
	PreferenceID     string
	LastUpdated      time.Time
}

// NewFlight validates the fields and builds a Flight. lastUpdated is supplied
// by the caller's clock so tests can control it.
func NewFlight(
	departureAirport, arrivalAirport string,
	departureTime, arrivalTime time.Time,
	price float64,
	airline, deepLink, preferenceID string,
	lastUpdated time.Time,
) (*Flight, error) {
	switch {
	case departureAirport == "":
		return nil, errors.New("departure airport is required")
	case arrivalAirport == "":
		return nil, errors.New("arrival airport is required")
	case departureTime.IsZero():
		return nil, errors.New("departure time is required")
	case arrivalTime.IsZero():
		return nil, errors.New("arrival time is required")
	case price <= 0:
		return nil, errors.New("price must be greater than zero")
	case airline == "":
		return nil, errors.New("airline is required")
	case deepLink == "":
		return nil, errors.New("deep link is required")
	case preferenceID == "":
		return nil, errors.New("travel preference ID is required")
	}

	if lastUpdated.IsZero() {
		lastUpdated = time.Now()
	}

	return &Flight{
		DepartureAirport: departureAirport,
		ArrivalAirport:   arrivalAirport,
		DepartureTime:    departureTime,
		ArrivalTime:      arrivalTime,
		Price:            price,
		Airline:          airline,
		DeepLink:         deepLink,
		PreferenceID:     preferenceID,
		LastUpdated:      lastUpdated,
	}, nil
}
