package holiday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 15, 30, 0, 0, time.FixedZone("KST", 9*3600))
}

func TestFixedHoliday(t *testing.T) {
	h, ok := Default().Lookup(date(2026, time.March, 1))
	require.True(t, ok)
	assert.Equal(t, KindFixed, h.Kind)
	assert.Equal(t, "Independence Movement Day", h.Name)
}

func TestLunarTableTakesPrecedence(t *testing.T) {
	// Buddha's Birthday fell on Children's Day in 2025.
	h, ok := Default().Lookup(date(2025, time.May, 5))
	require.True(t, ok)
	assert.Equal(t, KindLunar, h.Kind)
	assert.Equal(t, "Buddha's Birthday", h.Name)

	h, ok = Default().Lookup(date(2026, time.May, 5))
	require.True(t, ok)
	assert.Equal(t, KindFixed, h.Kind)
}

func TestOrdinaryDay(t *testing.T) {
	assert.False(t, Default().IsHoliday(date(2026, time.March, 4)))

	var nilCal *Calendar
	assert.False(t, nilCal.IsHoliday(date(2026, time.January, 1)))
}

func TestBetween(t *testing.T) {
	got := Default().Between(date(2026, time.February, 1), date(2026, time.February, 28))
	require.Len(t, got, 3)
	assert.Equal(t, 16, got[0].Date.Day())
	assert.Equal(t, "Seollal", got[2].Name)
}
