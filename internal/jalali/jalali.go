// Package jalali converts between the Gregorian calendar used for storage and
// arithmetic and the Jalali (Persian solar hijri) calendar shown to users.
//
// Gregorian is the only persisted representation. Jalali values are always
// derived from a Gregorian date at the API boundary and never stored.
//
// Leap years follow the 33-year arithmetic cycle, so 1399, 1403, 1408 and 1412
// have a 30-day Esfand. Conversion is proleptic in both directions; the
// YYYY/MM/DD string form covers years 0 and later.
package jalali

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zoobzio/clockz"
)

// ErrInvalidDate is returned when a string or triple is not a valid calendar date.
var ErrInvalidDate = errors.New("invalid date")

// Date is a day in the Jalali calendar.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// GregorianDate truncates an instant to its calendar day at UTC midnight.
func GregorianDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const (
	secondsPerDay = 86400
	daysPerCycle  = 33*365 + 8
)

// Years whose position in the 33-year cycle is listed here have a 30-day Esfand.
var leapResidues = [...]int64{1, 5, 9, 13, 17, 22, 26, 30}

// epochDay is the Unix day number of 0001/01/01, anchored on Nowruz 1403.
var epochDay = unixDay(time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC)) - daysBeforeYear(1403)

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}

func unixDay(t time.Time) int64 {
	return floorDiv(GregorianDate(t).Unix(), secondsPerDay)
}

// leapsThrough counts leap years in 1..n, extended to n < 1 so that
// differences stay correct for every year.
func leapsThrough(n int64) int64 {
	count := 8 * floorDiv(n, 33)
	r := floorMod(n, 33)
	for _, l := range leapResidues {
		if l <= r {
			count++
		}
	}
	return count
}

// daysBeforeYear is the number of days from 0001/01/01 to year/01/01.
func daysBeforeYear(year int64) int64 {
	return 365*(year-1) + leapsThrough(year-1)
}

func daysBeforeMonth(month int) int64 {
	if month <= 7 {
		return int64(31 * (month - 1))
	}
	return int64(186 + 30*(month-7))
}

// FromGregorian returns the Jalali day that contains the given Gregorian date.
// Dates before 0001/01/01 map to years <= 0 of the same cycle.
func FromGregorian(t time.Time) Date {
	n := unixDay(t) - epochDay

	year := floorDiv(n*33, daysPerCycle) + 1
	for daysBeforeYear(year) > n {
		year--
	}
	for daysBeforeYear(year+1) <= n {
		year++
	}

	doy := int(n - daysBeforeYear(year))
	if doy < 186 {
		return Date{Year: int(year), Month: doy/31 + 1, Day: doy%31 + 1}
	}
	doy -= 186
	return Date{Year: int(year), Month: doy/30 + 7, Day: doy%30 + 1}
}

// Gregorian converts d to a UTC-midnight Gregorian date.
func (d Date) Gregorian() (time.Time, error) {
	if err := d.Validate(); err != nil {
		return time.Time{}, err
	}
	n := epochDay + daysBeforeYear(int64(d.Year)) + daysBeforeMonth(d.Month) + int64(d.Day-1)
	return time.Unix(n*secondsPerDay, 0).UTC(), nil
}

// Validate reports whether d names an existing Jalali day.
func (d Date) Validate() error {
	if d.Month < 1 || d.Month > 12 {
		return fmt.Errorf("%w: month %d out of range", ErrInvalidDate, d.Month)
	}
	if n := DaysInMonth(d.Year, d.Month); d.Day < 1 || d.Day > n {
		return fmt.Errorf("%w: day %d out of range for %04d/%02d", ErrInvalidDate, d.Day, d.Year, d.Month)
	}
	return nil
}

// IsLeapYear reports whether Esfand of the given Jalali year has 30 days.
func IsLeapYear(year int) bool {
	r := floorMod(int64(year), 33)
	for _, l := range leapResidues {
		if l == r {
			return true
		}
	}
	return false
}

// DaysInMonth returns the length of a Jalali month, or 0 for an invalid month.
func DaysInMonth(year, month int) int {
	switch {
	case month >= 1 && month <= 6:
		return 31
	case month >= 7 && month <= 11:
		return 30
	case month == 12:
		if IsLeapYear(year) {
			return 30
		}
		return 29
	default:
		return 0
	}
}

// Parse reads a YYYY/MM/DD Jalali string. Persian and Arabic digits are accepted.
func Parse(s string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(NormalizeDigits(s)), "/")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("%w: %q is not in YYYY/MM/DD form", ErrInvalidDate, s)
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || !isDigits(p) {
			return Date{}, fmt.Errorf("%w: %q has a non-numeric component", ErrInvalidDate, s)
		}
		nums[i] = n
	}

	d := Date{Year: nums[0], Month: nums[1], Day: nums[2]}
	if err := d.Validate(); err != nil {
		return Date{}, err
	}
	return d, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// Format renders d as zero-padded YYYY/MM/DD.
func Format(d Date) string {
	return fmt.Sprintf("%04d/%02d/%02d", d.Year, d.Month, d.Day)
}

func (d Date) String() string {
	return Format(d)
}

// ToGregorian parses a Jalali string straight to a Gregorian date.
func ToGregorian(s string) (time.Time, error) {
	d, err := Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return d.Gregorian()
}

// FromTime formats a stored Gregorian date as a Jalali string.
func FromTime(t time.Time) string {
	return FromGregorian(t).String()
}

// ParseOptional is ToGregorian for optional request fields; "" yields nil.
func ParseOptional(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ToGregorian(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FormatOptional is FromTime for optional stored fields; nil yields "".
func FormatOptional(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return FromTime(*t)
}

// Today returns the current Jalali day according to clock.
func Today(clock clockz.Clock) Date {
	return FromGregorian(clock.Now().UTC())
}
