package jalali

import (
	"strings"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"
)

// Saturday first, as in the Persian week.
var weekdayNames = [7]string{
	"شنبه", "یکشنبه", "دوشنبه", "سه‌شنبه", "چهارشنبه", "پنجشنبه", "جمعه",
}

// MonthName returns the Persian name of a Jalali month, or "" when out of range.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return ptime.Month(month).String()
}

// WeekdayName returns the Persian name of a weekday.
func WeekdayName(w time.Weekday) string {
	return weekdayNames[(int(w)+1)%7]
}

var digitReplacer = strings.NewReplacer(
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

// NormalizeDigits rewrites Persian and Arabic-Indic digits as ASCII digits.
func NormalizeDigits(s string) string {
	return digitReplacer.Replace(s)
}

// PersianDigits rewrites ASCII digits as Persian digits for display.
func PersianDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune('۰' + (r - '0'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
