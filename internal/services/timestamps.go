package services

import "time"

// TimestampLayout is ISO-8601 with millisecond precision and the local UTC
// offset, e.g. 2024-05-01T09:30:12.345+09:00.
const TimestampLayout = "2006-01-02T15:04:05.000-07:00"

// FormatTimestamp renders t in local time using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}
