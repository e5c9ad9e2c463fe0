package conversation

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	weekdays = []string{
		"sunday", "monday", "tuesday", "wednesday",
		"thursday", "friday", "saturday",
	}
	monthNames = []string{
		"january", "february", "march", "april", "may", "june",
		"july", "august", "september", "october", "november", "december",
	}

	dayNumberRe = regexp.MustCompile(`(\d{1,2})`)

	// Explicit numeric formats, tried in order.
	numericDateRes = []struct {
		re        *regexp.Regexp
		yearFirst bool
	}{
		{regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`), false}, // MM/DD/YYYY
		{regexp.MustCompile(`(\d{1,2})-(\d{1,2})-(\d{4})`), false}, // MM-DD-YYYY
		{regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`), true},  // YYYY-MM-DD
	}
)

// ParseDate canonicalizes a spoken date to a calendar day. Rules are ordered
// and the first one to fire wins:
//
//	(a) "today"            -> today
//	(b) "tomorrow"         -> today+1
//	(c) "next week"        -> today+7
//	(d) a weekday name     -> next future occurrence, never today
//	(e) month name + day   -> that day this year, next year if already past
//	(f) MM/DD/YYYY, MM-DD-YYYY, YYYY-MM-DD
//
// The second return is false when no rule matches or the digits do not name a
// real calendar date.
func ParseDate(input string, now time.Time) (time.Time, bool) {
	in := strings.ToLower(strings.TrimSpace(input))
	today := midnight(now)

	if strings.Contains(in, "today") {
		return today, true
	}
	if strings.Contains(in, "tomorrow") {
		return today.AddDate(0, 0, 1), true
	}
	if strings.Contains(in, "next week") {
		return today.AddDate(0, 0, 7), true
	}

	for i, day := range weekdays {
		if !strings.Contains(in, day) {
			continue
		}
		offset := i - int(today.Weekday())
		if offset <= 0 {
			offset += 7
		}
		return today.AddDate(0, 0, offset), true
	}

	for i, month := range monthNames {
		if !strings.Contains(in, month) {
			continue
		}
		m := dayNumberRe.FindStringSubmatch(in)
		if m == nil {
			break
		}
		day, _ := strconv.Atoi(m[1])
		date, ok := calendarDate(today.Year(), i+1, day, now.Location())
		if !ok {
			return time.Time{}, false
		}
		if date.Before(today) {
			date, ok = calendarDate(today.Year()+1, i+1, day, now.Location())
			if !ok {
				return time.Time{}, false
			}
		}
		return date, true
	}

	for _, format := range numericDateRes {
		m := format.re.FindStringSubmatch(input)
		if m == nil {
			continue
		}
		var year, month, day int
		if format.yearFirst {
			year, _ = strconv.Atoi(m[1])
			month, _ = strconv.Atoi(m[2])
			day, _ = strconv.Atoi(m[3])
		} else {
			month, _ = strconv.Atoi(m[1])
			day, _ = strconv.Atoi(m[2])
			year, _ = strconv.Atoi(m[3])
		}
		return calendarDate(year, month, day, now.Location())
	}

	return time.Time{}, false
}

// calendarDate builds the date and rejects digit combinations that do not
// name a real day (time.Date would silently normalize February 30th).
func calendarDate(year, month, day int, loc *time.Location) (time.Time, bool) {
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if d.Year() != year || d.Month() != time.Month(month) || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
