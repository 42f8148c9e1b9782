package datetime

import (
	"time"
)

// MonthKey returns the YYYY-MM key of the month containing t.
func MonthKey(t time.Time) string {
	return t.UTC().Format(MonthLayout)
}

// OffsetMonth returns the month key offset by the given number of months
// relative to the given month key.
func OffsetMonth(month string, months int) (string, error) {
	t, err := time.Parse(MonthLayout, month)
	if err != nil {
		return month, err
	}
	return t.AddDate(0, months, 0).Format(MonthLayout), nil
}

// MonthsBetween returns the number of whole months from one month key to
// another. The result is negative when to precedes from.
func MonthsBetween(from, to string) (int, error) {
	fromT, err := time.Parse(MonthLayout, from)
	if err != nil {
		return 0, err
	}
	toT, err := time.Parse(MonthLayout, to)
	if err != nil {
		return 0, err
	}
	return (toT.Year()-fromT.Year())*12 + int(toT.Month()-fromT.Month()), nil
}

// AddDays returns t shifted by the given number of whole days.
func AddDays(t time.Time, days int) time.Time {
	return t.Add(time.Duration(days) * 24 * time.Hour)
}
