package travel

import "errors"

// Route is a directed departure→arrival airport pair from the static
// reference graph. Routes are seeded once and only ever read by the
// search workflow.
type Route struct {
	ID               string
	DepartureAirport string
	ArrivalAirport   string
}

// NewRoute validates the airport codes and builds a Route.
func NewRoute(departureAirport, arrivalAirport string) (*Route, error) {
	if departureAirport == "" || arrivalAirport == "" {
		return nil, errors.New("departure and arrival airports are required")
	}
	if len(departureAirport) != 3 || len(arrivalAirport) != 3 {
		return nil, errors.New("airport codes must be 3 characters long")
	}
	if departureAirport == arrivalAirport {
		return nil, errors.New("departure and arrival airports cannot be the same")
	}

	return &Route{
		DepartureAirport: departureAirport,
		ArrivalAirport:   arrivalAirport,
	}, nil
}
