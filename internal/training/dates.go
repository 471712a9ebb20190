package training

import (
	"fmt"
	"time"
)

// Dates are carried as plain YYYY-MM-DD strings, local calendar, no timezone.
const DateLayout = "2006-01-02"

func ParseDate(date string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, date, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date [%s]: %w", date, err)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func Today() string {
	return FormatDate(time.Now())
}

// Weekday returns the ISO weekday of the date: Monday=1 .. Sunday=7.
func Weekday(date string) (int, error) {
	t, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	return wd, nil
}

func DayOfMonth(date string) (int, error) {
	t, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	return t.Day(), nil
}

// MonthRange returns the first and last date of the given month,
// both inclusive.
func MonthRange(year, month int) (first, last string, err error) {
	if month < 1 || month > 12 {
		return "", "", fmt.Errorf("invalid month: %d", month)
	}
	firstDay := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	lastDay := firstDay.AddDate(0, 1, -1)
	return FormatDate(firstDay), FormatDate(lastDay), nil
}

func DaysInMonth(year, month int) (int, error) {
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("invalid month: %d", month)
	}
	firstDay := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	return firstDay.AddDate(0, 1, -1).Day(), nil
}

// MonthDates lists every date of the month in order.
func MonthDates(year, month int) ([]string, error) {
	days, err := DaysInMonth(year, month)
	if err != nil {
		return nil, err
	}
	dates := make([]string, 0, days)
	for d := 1; d <= days; d++ {
		dates = append(dates, FormatDate(
			time.Date(year, time.Month(month), d, 0, 0, 0, 0, time.Local),
		))
	}
	return dates, nil
}

func AddDays(date string, days int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, days)), nil
}
