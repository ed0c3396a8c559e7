package travel

import (
	"errors"
	"time"
)

// DateLayout is the calendar-date format used by the API surface and the
// external flight-search client.
const DateLayout = "2006-01-02"

// Preference is a user's saved search criteria: where they fly from, the
// date window they can travel in, and how much they are willing to spend.
// LastSearchedAt is set by the search workflow each time the preference is
// picked up; everything else is immutable after construction.
type Preference struct {
	ID             string
	DepartureCity  string
	PeriodFrom     time.Time
	PeriodTo       time.Time
	Budget         float64
	LastSearchedAt *time.Time
	CreatedAt      time.Time
}

// NewPreference validates the inputs and builds a Preference. Every violated
// rule is reported, joined into a single error, rather than stopping at the
// first one.
func NewPreference(departureCity, periodFrom, periodTo string, budget float64) (*Preference, error) {
	var errs []error

	if departureCity == "" {
		errs = append(errs, errors.New("departure city is required"))
	}

	from, fromErr := time.Parse(DateLayout, periodFrom)
	if fromErr != nil {
		errs = append(errs, errors.New("period from must be a valid date in YYYY-MM-DD format"))
	}

	to, toErr := time.Parse(DateLayout, periodTo)
	if toErr != nil {
		errs = append(errs, errors.New("period to must be a valid date in YYYY-MM-DD format"))
	}

	if fromErr == nil && toErr == nil && from.After(to) {
		errs = append(errs, errors.New("period from must not be after period to"))
	}

	if budget <= 0 {
		errs = append(errs, errors.New("budget must be a positive number"))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Preference{
		DepartureCity: departureCity,
		PeriodFrom:    from,
		PeriodTo:      to,
		Budget:        budget,
	}, nil
}
