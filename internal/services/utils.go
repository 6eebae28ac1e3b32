package services

import (
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func intPtr(v int) *int {
	return &v
}

func uintPtr(v uint) *uint {
	return &v
}
