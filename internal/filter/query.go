package filter

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"trade-journal-lab/internal/domain"
)

// ErrInvalidQuery is returned when a query cannot be turned into criteria.
var ErrInvalidQuery = errors.New("invalid filter query")

// Recognized query keys.
const (
	KeySymbol  = "symbol"
	KeySide    = "side"
	KeyPnL     = "pnl"
	KeyFrom    = "from"
	KeyTo      = "to"
	KeyWeekday = "weekday"
	KeySession = "session"
)

// Serialize encodes criteria as a flat key→value mapping.
// Absent fields produce no key. Invalid criteria are rejected.
func Serialize(c domain.FilterCriteria) (url.Values, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	v := url.Values{}
	setIf(v, KeySymbol, c.Instrument)
	setIf(v, KeySide, string(c.Side))
	setIf(v, KeyPnL, string(c.PnL))
	setIf(v, KeyFrom, c.DateFrom.String())
	setIf(v, KeyTo, c.DateTo.String())
	setIf(v, KeyWeekday, string(c.Weekday))
	setIf(v, KeySession, string(c.Session))
	return v, nil
}

// Encode returns the canonical query string of c (keys sorted).
func Encode(c domain.FilterCriteria) (string, error) {
	v, err := Serialize(c)
	if err != nil {
		return "", err
	}
	return v.Encode(), nil
}

// Parse decodes a query mapping into criteria. Unknown keys are ignored and
// empty values mean "absent". Parse(Serialize(c)) == c for any c that
// Serialize accepts.
func Parse(v url.Values) (domain.FilterCriteria, error) {
	var c domain.FilterCriteria

	c.Instrument = domain.NormalizeInstrument(v.Get(KeySymbol))
	c.Side = domain.Side(strings.ToUpper(strings.TrimSpace(v.Get(KeySide))))
	c.PnL = domain.PnLBucket(strings.ToLower(strings.TrimSpace(v.Get(KeyPnL))))
	c.Weekday = domain.WeekdayFilter(strings.ToLower(strings.TrimSpace(v.Get(KeyWeekday))))
	c.Session = domain.Session(strings.ToLower(strings.TrimSpace(v.Get(KeySession))))

	var err error
	if s := strings.TrimSpace(v.Get(KeyFrom)); s != "" {
		if c.DateFrom, err = domain.ParseDate(s); err != nil {
			return domain.FilterCriteria{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
	}
	if s := strings.TrimSpace(v.Get(KeyTo)); s != "" {
		if c.DateTo, err = domain.ParseDate(s); err != nil {
			return domain.FilterCriteria{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
	}

	if err := c.Validate(); err != nil {
		return domain.FilterCriteria{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return c, nil
}

// ParseQuery decodes a raw query string such as "symbol=USDJPY&side=LONG".
func ParseQuery(raw string) (domain.FilterCriteria, error) {
	v, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return domain.FilterCriteria{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return Parse(v)
}

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}
