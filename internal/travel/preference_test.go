package travel_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyago/travel-advisor/internal/travel"
)

func TestNewPreference_Valid(t *testing.T) {
	p, err := travel.NewPreference("MXP", "2025-05-01", "2025-05-10", 300)
	require.NoError(t, err)

	assert.Equal(t, "MXP", p.DepartureCity)
	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), p.PeriodFrom)
	assert.Equal(t, time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC), p.PeriodTo)
	assert.Equal(t, 300.0, p.Budget)
	assert.Nil(t, p.LastSearchedAt)
}

func TestNewPreference_SingleDayWindow(t *testing.T) {
	// from == to is a valid window.
	_, err := travel.NewPreference("LHR", "2025-05-01", "2025-05-01", 100)
	require.NoError(t, err)
}

func TestNewPreference_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		city    string
		from    string
		to      string
		budget  float64
		wantErr string
	}{
		{
			name:    "empty city",
			city:    "",
			from:    "2025-05-01",
			to:      "2025-05-10",
			budget:  300,
			wantErr: "departure city is required",
		},
		{
			name:    "malformed from date",
			city:    "MXP",
			from:    "01-05-2025",
			to:      "2025-05-10",
			budget:  300,
			wantErr: "period from must be a valid date",
		},
		{
			name:    "malformed to date",
			city:    "MXP",
			from:    "2025-05-01",
			to:      "not-a-date",
			budget:  300,
			wantErr: "period to must be a valid date",
		},
		{
			name:    "from after to",
			city:    "MXP",
			from:    "2025-05-10",
			to:      "2025-05-01",
			budget:  300,
			wantErr: "period from must not be after period to",
		},
		{
			name:    "zero budget",
			city:    "MXP",
			from:    "2025-05-01",
			to:      "2025-05-10",
			budget:  0,
			wantErr: "budget must be a positive number",
		},
		{
			name:    "negative budget",
			city:    "MXP",
			from:    "2025-05-01",
			to:      "2025-05-10",
			budget:  -50,
			wantErr: "budget must be a positive number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := travel.NewPreference(tt.city, tt.from, tt.to, tt.budget)
			require.Error(t, err)
			assert.Nil(t, p)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewPreference_ReportsAllViolations(t *testing.T) {
	// Validation is aggregate, not fail-fast: every broken rule shows up.
	_, err := travel.NewPreference("", "bad", "worse", -1)
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "departure city is required")
	assert.Contains(t, msg, "period from must be a valid date")
	assert.Contains(t, msg, "period to must be a valid date")
	assert.Contains(t, msg, "budget must be a positive number")
}
