package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterCriteria_WithDoesNotMutate(t *testing.T) {
	base := FilterCriteria{Instrument: "USDJPY", Side: SideLong}
	pnl := PnLWin
	side := Side("")

	next := base.With(FilterPatch{PnL: &pnl, Side: &side})

	assert.Equal(t, SideLong, base.Side, "original must be untouched")
	assert.Equal(t, PnLBucket(""), base.PnL)
	assert.Equal(t, Side(""), next.Side, "explicit zero clears the field")
	assert.Equal(t, PnLWin, next.PnL)
	assert.Equal(t, "USDJPY", next.Instrument, "nil patch field keeps the value")
}

func TestFilterCriteria_WithNormalizesInstrument(t *testing.T) {
	sym := "usd/jpy"
	next := FilterCriteria{}.With(FilterPatch{Instrument: &sym})
	assert.Equal(t, "USDJPY", next.Instrument)
}

func TestFilterCriteria_Validate(t *testing.T) {
	tests := []struct {
		name    string
		c       FilterCriteria
		wantErr bool
	}{
		{"empty", FilterCriteria{}, false},
		{"all valid", FilterCriteria{Side: SideShort, PnL: PnLLoss, Weekday: "3", Session: SessionThin}, false},
		{"bad side", FilterCriteria{Side: "BUY"}, true},
		{"bad pnl", FilterCriteria{PnL: "even"}, true},
		{"bad weekday", FilterCriteria{Weekday: "7"}, true},
		{"bad weekday text", FilterCriteria{Weekday: "monday"}, true},
		{"bad session", FilterCriteria{Session: "tokyo"}, true},
		{"normalized instrument", FilterCriteria{Instrument: "USDJPY"}, false},
		{"lowercase instrument", FilterCriteria{Instrument: "usd/jpy"}, true},
		{"leap day", FilterCriteria{DateFrom: Date{2024, time.February, 29}}, false},
		{"impossible from", FilterCriteria{DateFrom: Date{2024, time.February, 30}}, true},
		{"impossible to", FilterCriteria{DateTo: Date{2023, time.February, 29}}, true},
		{"inverted range", FilterCriteria{
			DateFrom: Date{2024, time.March, 5},
			DateTo:   Date{2024, time.March, 1},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWeekdayFilter_Matches(t *testing.T) {
	assert.True(t, WeekdayFilter("").Matches(time.Sunday))
	assert.True(t, WeekdayGroupWeekdays.Matches(time.Monday))
	assert.True(t, WeekdayGroupWeekdays.Matches(time.Friday))
	assert.False(t, WeekdayGroupWeekdays.Matches(time.Saturday))
	assert.True(t, WeekdayGroupWeekend.Matches(time.Sunday))
	assert.False(t, WeekdayGroupWeekend.Matches(time.Wednesday))
	assert.True(t, SingleWeekday(time.Tuesday).Matches(time.Tuesday))
	assert.False(t, SingleWeekday(time.Tuesday).Matches(time.Thursday))
}

func TestSession_Contains(t *testing.T) {
	assert.True(t, SessionAsia.Contains(0))
	assert.False(t, SessionAsia.Contains(9))
	assert.True(t, SessionLondon.Contains(9))
	assert.True(t, SessionLondon.Contains(16))
	assert.True(t, SessionNY.Contains(23))
	assert.True(t, SessionThin.Contains(5))
	assert.False(t, SessionThin.Contains(6))
	assert.False(t, Session("tokyo").Contains(3))
}

func TestDate_RoundTrip(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, Date{2024, time.February, 29}, d)
	assert.Equal(t, "2024-02-29", d.String())
	assert.Equal(t, "", Date{}.String())

	_, err = ParseDate("2024-13-01")
	assert.Error(t, err)
}

func TestDate_IsValid(t *testing.T) {
	assert.True(t, Date{2024, time.December, 31}.IsValid())
	assert.False(t, Date{2024, time.June, 31}.IsValid())
	assert.False(t, Date{2024, 0, 1}.IsValid())
	assert.False(t, Date{10000, time.January, 1}.IsValid())
}

func TestDate_Ordering(t *testing.T) {
	a := Date{2024, time.January, 31}
	b := Date{2024, time.February, 1}
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.False(t, a.Before(a))
}
