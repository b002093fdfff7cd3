package timeframe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnit(t *testing.T) {
	cases := map[string]Unit{
		"Minutes": Minutes,
		"minutes": Minutes,
		"SECONDS": Seconds,
		"Days":    Days,
		"weeks":   Weeks,
		"Months":  Months,
		"years":   Years,
	}
	for input, want := range cases {
		got, err := ParseUnit(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
}

func TestParseUnitUnknown(t *testing.T) {
	_, err := ParseUnit("Ticks")
	require.Error(t, err)
	var unkErr *UnknownUnitError
	require.ErrorAs(t, err, &unkErr)
	assert.Equal(t, "Ticks", unkErr.Name)
}

func TestLookbackScaleTable(t *testing.T) {
	cases := []struct {
		unit        Unit
		compression int
		limit       int
		want        time.Duration
	}{
		{Minutes, 1, 20, 20 * time.Minute},
		{Minutes, 5, 20, 100 * time.Minute},
		{Days, 1, 10, 14400 * time.Minute},
		{Seconds, 1, 30, 30 * time.Second},
		{Weeks, 1, 2, 14 * 24 * time.Hour},
		{Months, 1, 1, 30 * 24 * time.Hour},
		{Years, 1, 1, 365 * 24 * time.Hour},
	}
	for _, tc := range cases {
		got, err := Lookback(tc.unit, tc.compression, tc.limit)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s c=%d l=%d", tc.unit, tc.compression, tc.limit)
	}
}

func TestLookbackLinear(t *testing.T) {
	base, err := Lookback(Minutes, 1, 10)
	require.NoError(t, err)
	doubledCompression, err := Lookback(Minutes, 2, 10)
	require.NoError(t, err)
	doubledLimit, err := Lookback(Minutes, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 2*base, doubledCompression)
	assert.Equal(t, 2*base, doubledLimit)
}

func TestLookbackRejectsUnknownUnit(t *testing.T) {
	_, err := Lookback(Unit(42), 1, 10)
	var unkErr *UnknownUnitError
	require.ErrorAs(t, err, &unkErr)
}

func TestLookbackRejectsNonPositive(t *testing.T) {
	_, err := Lookback(Minutes, 0, 10)
	require.Error(t, err)
	_, err = Lookback(Minutes, 1, 0)
	require.Error(t, err)
}

func TestSourceInterval(t *testing.T) {
	got, err := SourceInterval(Minutes, 5)
	require.NoError(t, err)
	assert.Equal(t, "5m", got)
	got, err = SourceInterval(Days, 1)
	require.NoError(t, err)
	assert.Equal(t, "1d", got)
	got, err = SourceInterval(Seconds, 30)
	require.NoError(t, err)
	assert.Equal(t, "30s", got)
}
