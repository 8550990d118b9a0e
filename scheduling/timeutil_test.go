package scheduling_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padraicbc/trainagenda/scheduling"
)

func TestCombineDateTime(t *testing.T) {
	ts, err := scheduling.CombineDateTime("2025-03-10", "07:05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 7, 5, 0, 0, time.UTC), ts)
	assert.Equal(t, "2025-03-10T07:05:00.000+00:00", scheduling.FormatInstant(ts))

	for _, c := range [][2]string{
		{"", "10:00"},
		{"2025-03-10", ""},
		{"10/03/2025", "10:00"},
		{"2025-02-30", "10:00"},
		{"2025-03-10", "25:00"},
		{"2025-03-10", "10h00"},
	} {
		_, err := scheduling.CombineDateTime(c[0], c[1])
		assert.ErrorIs(t, err, scheduling.ErrValidation, "%q %q", c[0], c[1])
	}
}

func TestFormatInstantConvertsToUTC(t *testing.T) {
	lisbonSummer := time.FixedZone("WEST", 3600)
	ts := time.Date(2025, 7, 1, 10, 0, 0, 0, lisbonSummer)
	assert.Equal(t, "2025-07-01T09:00:00.000+00:00", scheduling.FormatInstant(ts))
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	base := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	m := func(n int) time.Time { return base.Add(time.Duration(n) * time.Minute) }

	assert.True(t, scheduling.Overlaps(m(0), m(30), m(15), m(45)))
	assert.True(t, scheduling.Overlaps(m(0), m(60), m(15), m(30)), "containment")
	assert.False(t, scheduling.Overlaps(m(0), m(30), m(30), m(60)), "adjacent")
	assert.False(t, scheduling.Overlaps(m(30), m(60), m(0), m(30)), "adjacent, reversed")
	assert.False(t, scheduling.Overlaps(m(0), m(10), m(20), m(30)))
}

func TestParseDate(t *testing.T) {
	d, err := scheduling.ParseDate(" 2025-03-10 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), d)

	_, err = scheduling.ParseDate("yesterday")
	assert.ErrorIs(t, err, scheduling.ErrValidation)
}
