package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/mashinman/internal/jalali"
	"github.com/zoobzio/clockz"
)

const gregorianLayout = "2006-01-02"

// CalendarDay describes one day in both calendars.
type CalendarDay struct {
	Jalali    string `json:"jalali"`
	Gregorian string `json:"gregorian"`
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Day       int    `json:"day"`
	MonthName string `json:"month_name"`
	Weekday   string `json:"weekday"`
	IsLeap    bool   `json:"is_leap_year"`
}

func calendarDay(g time.Time) CalendarDay {
	d := jalali.FromGregorian(g)
	return CalendarDay{
		Jalali:    d.String(),
		Gregorian: g.Format(gregorianLayout),
		Year:      d.Year,
		Month:     d.Month,
		Day:       d.Day,
		MonthName: jalali.MonthName(d.Month),
		Weekday:   jalali.WeekdayName(g.Weekday()),
		IsLeap:    jalali.IsLeapYear(d.Year),
	}
}

// CalendarHandler converts dates between the Jalali and Gregorian calendars.
type CalendarHandler struct {
	base
	clock clockz.Clock
}

// NewCalendarHandler returns a CalendarHandler. A nil clock uses the real clock.
func NewCalendarHandler(clock clockz.Clock, log *logrus.Logger) *CalendarHandler {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &CalendarHandler{base: base{log: log}, clock: clock}
}

// Today returns the current day in both calendars.
func (h *CalendarHandler) Today(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, calendarDay(jalali.GregorianDate(h.clock.Now().UTC())))
}

// Convert converts ?jalali=YYYY/MM/DD or ?gregorian=YYYY-MM-DD.
func (h *CalendarHandler) Convert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case q.Get("jalali") != "":
		g, err := jalali.ToGregorian(q.Get("jalali"))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, calendarDay(g))
	case q.Get("gregorian") != "":
		g, err := time.Parse(gregorianLayout, jalali.NormalizeDigits(q.Get("gregorian")))
		if err != nil {
			h.fail(w, r, fmt.Errorf("%w: %v", jalali.ErrInvalidDate, err))
			return
		}
		writeJSON(w, http.StatusOK, calendarDay(g))
	default:
		h.fail(w, r, fmt.Errorf("%w: jalali or gregorian is required", errBadRequest))
	}
}
