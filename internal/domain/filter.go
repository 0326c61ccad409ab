package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PnLBucket restricts trades by the sign of their profit.
type PnLBucket string

const (
	PnLWin  PnLBucket = "win"  // profit > 0
	PnLLoss PnLBucket = "loss" // profit < 0
)

// WeekdayFilter is a single day "0".."6" (Sunday=0), "weekdays" or "weekend".
type WeekdayFilter string

const (
	WeekdayGroupWeekdays WeekdayFilter = "weekdays"
	WeekdayGroupWeekend  WeekdayFilter = "weekend"
)

// SingleWeekday returns the filter for one day of the week.
func SingleWeekday(d time.Weekday) WeekdayFilter {
	return WeekdayFilter(strconv.Itoa(int(d)))
}

// Matches reports whether d satisfies the filter. An empty filter matches every day.
func (w WeekdayFilter) Matches(d time.Weekday) bool {
	switch w {
	case "":
		return true
	case WeekdayGroupWeekdays:
		return d >= time.Monday && d <= time.Friday
	case WeekdayGroupWeekend:
		return d == time.Saturday || d == time.Sunday
	default:
		n, err := strconv.Atoi(string(w))
		return err == nil && time.Weekday(n) == d
	}
}

// IsValid reports whether w is empty or one of the recognized values.
func (w WeekdayFilter) IsValid() bool {
	switch w {
	case "", WeekdayGroupWeekdays, WeekdayGroupWeekend:
		return true
	}
	n, err := strconv.Atoi(string(w))
	return err == nil && len(w) == 1 && n >= 0 && n <= 6
}

// Session is a fixed clock-hour window in the display timezone.
type Session string

const (
	SessionAsia   Session = "asia"   // [0,9)
	SessionLondon Session = "london" // [9,17)
	SessionNY     Session = "ny"     // [17,24)
	SessionThin   Session = "thin"   // [0,6), overlaps asia
)

// sessionHours maps each session to its [start,end) hour window.
var sessionHours = map[Session][2]int{
	SessionAsia:   {0, 9},
	SessionLondon: {9, 17},
	SessionNY:     {17, 24},
	SessionThin:   {0, 6},
}

// Contains reports whether hour falls inside the session window.
func (s Session) Contains(hour int) bool {
	w, ok := sessionHours[s]
	if !ok {
		return false
	}
	return hour >= w[0] && hour < w[1]
}

// IsValid reports whether s is one of the recognized sessions.
func (s Session) IsValid() bool {
	_, ok := sessionHours[s]
	return ok
}

// Date is a calendar day without a time zone. The zero value means "unset".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateLayout is the wire format of Date.
const DateLayout = "2006-01-02"

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d == Date{}
}

// IsValid reports whether d names a real calendar day with a four-digit year.
func (d Date) IsValid() bool {
	if d.Year < 0 || d.Year > 9999 {
		return false
	}
	return DateOf(time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)) == d
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool {
	return o.Before(d)
}

// FilterCriteria is the set of user-selected constraints.
// Zero-valued fields impose no constraint; present fields combine with AND.
// Values are replaced wholesale, never mutated in place.
type FilterCriteria struct {
	Instrument string
	Side       Side
	PnL        PnLBucket
	DateFrom   Date
	DateTo     Date
	Weekday    WeekdayFilter
	Session    Session
}

// FilterPatch describes one user edit. Nil fields keep the previous value;
// a non-nil pointer to a zero value clears the field.
type FilterPatch struct {
	Instrument *string
	Side       *Side
	PnL        *PnLBucket
	DateFrom   *Date
	DateTo     *Date
	Weekday    *WeekdayFilter
	Session    *Session
}

// With returns a new criteria value built from c and the patch.
func (c FilterCriteria) With(p FilterPatch) FilterCriteria {
	next := c
	if p.Instrument != nil {
		next.Instrument = NormalizeInstrument(*p.Instrument)
	}
	if p.Side != nil {
		next.Side = *p.Side
	}
	if p.PnL != nil {
		next.PnL = *p.PnL
	}
	if p.DateFrom != nil {
		next.DateFrom = *p.DateFrom
	}
	if p.DateTo != nil {
		next.DateTo = *p.DateTo
	}
	if p.Weekday != nil {
		next.Weekday = *p.Weekday
	}
	if p.Session != nil {
		next.Session = *p.Session
	}
	return next
}

// IsEmpty reports whether no constraint is set.
func (c FilterCriteria) IsEmpty() bool {
	return c == FilterCriteria{}
}

// Validate checks every present field against its enumeration.
func (c FilterCriteria) Validate() error {
	var problems []string
	if c.Instrument != NormalizeInstrument(c.Instrument) {
		problems = append(problems, fmt.Sprintf("instrument %q is not normalized", c.Instrument))
	}
	if c.Side != "" && !c.Side.IsValid() {
		problems = append(problems, fmt.Sprintf("side %q", c.Side))
	}
	if c.PnL != "" && c.PnL != PnLWin && c.PnL != PnLLoss {
		problems = append(problems, fmt.Sprintf("pnl %q", c.PnL))
	}
	if !c.Weekday.IsValid() {
		problems = append(problems, fmt.Sprintf("weekday %q", c.Weekday))
	}
	if c.Session != "" && !c.Session.IsValid() {
		problems = append(problems, fmt.Sprintf("session %q", c.Session))
	}
	if !c.DateFrom.IsZero() && !c.DateFrom.IsValid() {
		problems = append(problems, fmt.Sprintf("from date %s", c.DateFrom))
	}
	if !c.DateTo.IsZero() && !c.DateTo.IsValid() {
		problems = append(problems, fmt.Sprintf("to date %s", c.DateTo))
	}
	if !c.DateFrom.IsZero() && !c.DateTo.IsZero() && c.DateTo.Before(c.DateFrom) {
		problems = append(problems, fmt.Sprintf("date range %s..%s", c.DateFrom, c.DateTo))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid filter: %s", strings.Join(problems, ", "))
	}
	return nil
}
