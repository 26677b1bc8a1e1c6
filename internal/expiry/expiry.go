package expiry

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var defaultLoc = time.UTC

// SetDefaultLocation sets the time location used for expiry instants (fallback UTC).
func SetDefaultLocation(loc *time.Location) {
	if loc != nil {
		defaultLoc = loc
	}
}

// CardFace renders an expiry as MM/YYYY for card imprint.
func CardFace(month, year int) string {
	return fmt.Sprintf("%02d/%04d", month, year)
}

// EndOfMonth returns the last second of the expiry month in loc.
func EndOfMonth(month, year int, loc *time.Location) time.Time {
	if loc == nil {
		loc = defaultLoc
	}
	firstNext := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc).AddDate(0, 1, 0)
	return firstNext.Add(-time.Second)
}

// BoundedTimestamp reduces the expiry end-of-month to a bounded numeric
// timestamp by modular wrap-around. Far-future years can wrap to a value
// earlier than issuance; nothing orders on this field, so the wrap stays.
func BoundedTimestamp(month, year int) uint32 {
	return uint32(EndOfMonth(month, year, time.UTC).Unix())
}

// ParseCardFace parses "MM/YYYY" into its month and year.
func ParseCardFace(in string) (month, year int, err error) {
	s := strings.TrimSpace(in)
	parts := strings.Split(s, "/")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 4 {
		return 0, 0, fmt.Errorf("expiry must be MM/YYYY")
	}
	if !allDigits(parts[0]) || !allDigits(parts[1]) {
		return 0, 0, fmt.Errorf("expiry must be digits: MM/YYYY")
	}
	month, _ = strconv.Atoi(parts[0])
	year, _ = strconv.Atoi(parts[1])
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("expiry month must be 01..12")
	}
	return month, year, nil
}

// IsExpired reports whether 'at' is strictly after the end of the expiry month.
func IsExpired(face string, at time.Time) (bool, error) {
	month, year, err := ParseCardFace(face)
	if err != nil {
		return false, err
	}
	end := EndOfMonth(month, year, nil)
	return at.In(end.Location()).After(end), nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
