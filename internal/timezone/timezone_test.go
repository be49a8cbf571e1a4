package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocation(t *testing.T) {
	assert.Equal(t, time.UTC, Location(""))
	assert.Equal(t, time.UTC, Location("Mars/Olympus"))
	assert.Equal(t, "Europe/Berlin", Location("Europe/Berlin").String())
	assert.False(t, IsValid(""))
	assert.True(t, IsValid("America/Sao_Paulo"))
}

func TestParseDateTime(t *testing.T) {
	loc := Location("Europe/Berlin")

	at, err := ParseDateTime("2026-10-19", "10:30", loc)
	require.NoError(t, err)
	assert.Equal(t, 10, at.Hour())
	assert.Equal(t, loc, at.Location())

	_, err = ParseDateTime("2026-10-19", "25:00", loc)
	assert.Error(t, err)

	_, err = ParseDate("19/10/2026", loc)
	assert.Error(t, err)
}

func TestFixedClock(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, at, Fixed(at).Now())
}
