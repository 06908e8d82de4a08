package almanac

import (
	"fmt"
	"math"
	"time"
)

// Fractional-day constants of the tabular Islamic calendar. The
// conversion is a rough estimate with no leap-year or moon-sighting
// correction; only the interface is contractual, not the exact output.
const (
	hijriYearDays  = 354.37
	hijriMonthDays = 29.5
)

// hijriEpoch is 1 Muharram 1 AH (16 July 622 CE, Julian).
var hijriEpoch = time.Date(622, time.July, 16, 0, 0, 0, 0, time.UTC)

var hijriMonthNames = []string{
	"Muharram", "Safar", "Rabi al-Awwal", "Rabi al-Thani",
	"Jumada al-Awwal", "Jumada al-Thani", "Rajab", "Shaban",
	"Ramadan", "Shawwal", "Dhul-Qadah", "Dhul-Hijjah",
}

// HijriDate is an approximate date in the Islamic calendar.
type HijriDate struct {
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Day       int    `json:"day"`
	MonthName string `json:"month_name"`
}

// String renders the date as "10 Ramadan 1447 AH".
func (d HijriDate) String() string {
	return fmt.Sprintf("%d %s %d AH", d.Day, d.MonthName, d.Year)
}

// Hijri approximates the Islamic date for the given instant.
func Hijri(t time.Time) HijriDate {
	days := t.UTC().Sub(hijriEpoch).Hours() / 24
	if days < 0 {
		days = 0
	}

	year := int(math.Floor(days/hijriYearDays)) + 1
	dayOfYear := days - float64(year-1)*hijriYearDays

	month := int(math.Floor(dayOfYear/hijriMonthDays)) + 1
	if month > 12 {
		month = 12
	}

	day := int(math.Floor(dayOfYear-float64(month-1)*hijriMonthDays)) + 1
	if day < 1 {
		day = 1
	}
	if day > 30 {
		day = 30
	}

	return HijriDate{
		Year:      year,
		Month:     month,
		Day:       day,
		MonthName: hijriMonthNames[month-1],
	}
}
