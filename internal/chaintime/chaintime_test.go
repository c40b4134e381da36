package chaintime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromBlockTime(t *testing.T) {
	ts, ok := FromBlockTime(1700000000)
	assert.True(t, ok)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), ts)

	_, ok = FromBlockTime(0)
	assert.False(t, ok)

	_, ok = FromBlockTime(-5)
	assert.False(t, ok)
}

func TestDisplayRoundTrip(t *testing.T) {
	// A block time formatted for display and reparsed must yield the
	// same instant to the second.
	blockTimes := []int64{
		1700000000,
		1577836800, // 2020-01-01 00:00:00 UTC
		1720000000, // DST in the display zone
	}

	for _, bt := range blockTimes {
		orig, ok := FromBlockTime(bt)
		require.True(t, ok)

		s := FormatDisplay(orig)
		back, err := ParseDisplay(s)
		require.NoError(t, err, "block time %d", bt)
		assert.True(t, orig.Equal(back), "block time %d: %v != %v", bt, orig, back)
	}
}

func TestParseDisplayRejectsMalformed(t *testing.T) {
	for _, s := range []string{
		"",
		"not a timestamp",
		"2023-11-14T22:13:20Z",  // wrong layout
		"14/11/2023 22:13:20",   // missing comma
		"99/99/2023, 22:13:20",  // impossible date
		"14/11/2023, 22:13",     // missing seconds
	} {
		_, err := ParseDisplay(s)
		assert.Error(t, err, "input %q", s)
	}
}
