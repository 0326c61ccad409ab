package filter

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-journal-lab/internal/domain"
)

func TestSerialize_OmitsAbsentFields(t *testing.T) {
	v, err := Serialize(domain.FilterCriteria{})
	require.NoError(t, err)
	assert.Empty(t, v)

	v, err = Serialize(domain.FilterCriteria{Instrument: "USDJPY", PnL: domain.PnLLoss})
	require.NoError(t, err)
	assert.Equal(t, url.Values{"symbol": {"USDJPY"}, "pnl": {"loss"}}, v)
}

func TestSerializeParse_RoundTrip(t *testing.T) {
	cases := []domain.FilterCriteria{
		{},
		{Instrument: "USDJPY"},
		{Side: domain.SideShort, PnL: domain.PnLWin},
		{DateFrom: domain.Date{Year: 2024, Month: 1, Day: 1}},
		{DateTo: domain.Date{Year: 2024, Month: 12, Day: 31}},
		{Weekday: domain.SingleWeekday(time.Sunday)},
		{Weekday: domain.WeekdayGroupWeekend, Session: domain.SessionThin},
		{
			Instrument: "BTCUSD", Side: domain.SideLong, PnL: domain.PnLLoss,
			DateFrom: domain.Date{Year: 2024, Month: 2, Day: 1}, DateTo: domain.Date{Year: 2024, Month: 2, Day: 29},
			Weekday: domain.WeekdayGroupWeekdays, Session: domain.SessionNY,
		},
	}
	for _, c := range cases {
		v, err := Serialize(c)
		require.NoError(t, err)
		got, err := Parse(v)
		require.NoError(t, err)
		assert.Equal(t, c, got, "round trip of %s", v.Encode())

		raw, err := Encode(c)
		require.NoError(t, err)
		got, err = ParseQuery(raw)
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
}

func TestParse_IgnoresUnknownKeysAndEmptyValues(t *testing.T) {
	got, err := Parse(url.Values{
		"symbol":  {"usd/jpy"},
		"side":    {"short"},
		"utm_src": {"mail"},
		"session": {""},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.FilterCriteria{Instrument: "USDJPY", Side: domain.SideShort}, got)
}

func TestParse_Invalid(t *testing.T) {
	tests := []url.Values{
		{"side": {"sideways"}},
		{"pnl": {"draw"}},
		{"from": {"2024-13-01"}},
		{"to": {"yesterday"}},
		{"weekday": {"7"}},
		{"session": {"sydney"}},
		{"from": {"2024-03-02"}, "to": {"2024-03-01"}},
		{"from": {"2024-02-30"}},
		{"to": {"2023-02-29"}},
	}
	for _, v := range tests {
		_, err := Parse(v)
		if !errors.Is(err, ErrInvalidQuery) {
			t.Errorf("Parse(%s): expected ErrInvalidQuery, got %v", v.Encode(), err)
		}
	}
}

func TestSerialize_RejectsCriteriaThatDoNotRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		c    domain.FilterCriteria
	}{
		{"unnormalized instrument", domain.FilterCriteria{Instrument: "usd/jpy"}},
		{"padded instrument", domain.FilterCriteria{Instrument: " EURUSD"}},
		{"impossible from date", domain.FilterCriteria{DateFrom: domain.Date{Year: 2024, Month: time.February, Day: 30}}},
		{"impossible to date", domain.FilterCriteria{DateTo: domain.Date{Year: 2024, Month: time.April, Day: 31}}},
		{"month out of range", domain.FilterCriteria{DateTo: domain.Date{Year: 2024, Month: 13, Day: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Serialize(tt.c)
			assert.ErrorIs(t, err, ErrInvalidQuery)
		})
	}
}

func TestSerialize_LeapDayRoundTrips(t *testing.T) {
	c := domain.FilterCriteria{Instrument: "USDJPY", DateFrom: domain.Date{Year: 2024, Month: time.February, Day: 29}}
	v, err := Serialize(c)
	require.NoError(t, err)

	back, err := Parse(v)
	require.NoError(t, err)
	assert.Equal(t, c, back)
}

func TestEncode_IsCanonical(t *testing.T) {
	raw, err := Encode(domain.FilterCriteria{Session: domain.SessionAsia, Instrument: "EURUSD", Side: domain.SideLong})
	require.NoError(t, err)
	assert.Equal(t, "session=asia&side=LONG&symbol=EURUSD", raw)
}
