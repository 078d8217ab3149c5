package expression

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// roundTripLayout is the Go rendering of the "o" format.
	roundTripLayout        = "2006-01-02T15:04:05.0000000Z07:00"
	defaultTimestampFormat = "o"
)

// timeNow is replaced in tests.
var timeNow = time.Now

// timestampLayouts are the ISO-8601 shapes accepted as timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006",
}

// ParseTimestamp parses an ISO-8601 round-trip timestamp.
func ParseTimestamp(ts string) (time.Time, error) {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return time.Time{}, fmt.Errorf("could not parse empty string as a timestamp")
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, ts); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("%s is not a valid ISO format timestamp", ts)
}

// FormatDateTimeValue formats t with a .NET style format string: either a
// single-letter standard format such as "o" or a custom pattern such as
// "yyyy-MM-dd HH:mm".
func FormatDateTimeValue(t time.Time, format string) (string, error) {
	if format == "" {
		format = defaultTimestampFormat
	}
	if len(format) == 1 {
		switch format {
		case "o", "O":
			return t.Format(roundTripLayout), nil
		case "s":
			return t.Format("2006-01-02T15:04:05"), nil
		case "u":
			return t.UTC().Format("2006-01-02 15:04:05Z"), nil
		case "d":
			return t.Format("1/2/2006"), nil
		case "D":
			return t.Format("Monday, January 2, 2006"), nil
		case "t":
			return t.Format("3:04 PM"), nil
		case "T":
			return t.Format("3:04:05 PM"), nil
		case "f":
			return t.Format("Monday, January 2, 2006 3:04 PM"), nil
		case "F":
			return t.Format("Monday, January 2, 2006 3:04:05 PM"), nil
		case "g":
			return t.Format("1/2/2006 3:04 PM"), nil
		case "G":
			return t.Format("1/2/2006 3:04:05 PM"), nil
		case "r", "R":
			return t.UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT"), nil
		case "M", "m":
			return t.Format("January 2"), nil
		case "Y", "y":
			return t.Format("January 2006"), nil
		}
		return "", fmt.Errorf("%s is not a valid standard date format", format)
	}
	return formatCustomDateTime(t, format), nil
}

// formatCustomDateTime renders custom .NET date patterns token by token so
// literal text never collides with layout digits.
func formatCustomDateTime(t time.Time, format string) string {
	var b strings.Builder
	runes := []rune(format)
	for i := 0; i < len(runes); {
		c := runes[i]
		n := 1
		for i+n < len(runes) && runes[i+n] == c {
			n++
		}
		switch c {
		case 'y':
			year := t.Year()
			switch {
			case n == 1:
				b.WriteString(strconv.Itoa(year % 100))
			case n == 2:
				b.WriteString(fmt.Sprintf("%02d", year%100))
			default:
				b.WriteString(fmt.Sprintf("%0*d", n, year))
			}
		case 'M':
			switch n {
			case 1:
				b.WriteString(strconv.Itoa(int(t.Month())))
			case 2:
				b.WriteString(fmt.Sprintf("%02d", int(t.Month())))
			case 3:
				b.WriteString(t.Month().String()[:3])
			default:
				b.WriteString(t.Month().String())
			}
		case 'd':
			switch n {
			case 1:
				b.WriteString(strconv.Itoa(t.Day()))
			case 2:
				b.WriteString(fmt.Sprintf("%02d", t.Day()))
			case 3:
				b.WriteString(t.Weekday().String()[:3])
			default:
				b.WriteString(t.Weekday().String())
			}
		case 'H':
			b.WriteString(padNumber(t.Hour(), n))
		case 'h':
			hour := t.Hour() % 12
			if hour == 0 {
				hour = 12
			}
			b.WriteString(padNumber(hour, n))
		case 'm':
			b.WriteString(padNumber(t.Minute(), n))
		case 's':
			b.WriteString(padNumber(t.Second(), n))
		case 'f', 'F':
			digits := n
			if digits > 7 {
				digits = 7
			}
			frac := fmt.Sprintf("%09d", t.Nanosecond())[:digits]
			if c == 'F' {
				frac = strings.TrimRight(frac, "0")
			}
			b.WriteString(frac)
		case 't':
			ampm := "AM"
			if t.Hour() >= 12 {
				ampm = "PM"
			}
			if n == 1 {
				ampm = ampm[:1]
			}
			b.WriteString(ampm)
		case 'z':
			_, offset := t.Zone()
			sign := '+'
			if offset < 0 {
				sign = '-'
				offset = -offset
			}
			hours, minutes := offset/3600, (offset%3600)/60
			switch n {
			case 1:
				b.WriteString(fmt.Sprintf("%c%d", sign, hours))
			case 2:
				b.WriteString(fmt.Sprintf("%c%02d", sign, hours))
			default:
				b.WriteString(fmt.Sprintf("%c%02d:%02d", sign, hours, minutes))
			}
		case 'K':
			if t.Location() == time.UTC {
				b.WriteString("Z")
			} else {
				b.WriteString(t.Format("-07:00"))
			}
			n = 1
		case '\'', '"':
			end := i + 1
			for end < len(runes) && runes[end] != c {
				end++
			}
			b.WriteString(string(runes[i+1 : end]))
			n = end - i + 1
			if end >= len(runes) {
				n = end - i
			}
		case '\\':
			if i+1 < len(runes) {
				b.WriteRune(runes[i+1])
			}
			n = 2
		default:
			b.WriteString(strings.Repeat(string(c), n))
		}
		i += n
	}
	return b.String()
}

func padNumber(v, width int) string {
	if width >= 2 {
		return fmt.Sprintf("%02d", v)
	}
	return strconv.Itoa(v)
}

// addUnit shifts t by n units of second, minute, hour, day, week, month or year.
func addUnit(t time.Time, n int, unit string) (time.Time, error) {
	switch strings.ToLower(unit) {
	case "second":
		return t.Add(time.Duration(n) * time.Second), nil
	case "minute":
		return t.Add(time.Duration(n) * time.Minute), nil
	case "hour":
		return t.Add(time.Duration(n) * time.Hour), nil
	case "day":
		return t.AddDate(0, 0, n), nil
	case "week":
		return t.AddDate(0, 0, 7*n), nil
	case "month":
		return t.AddDate(0, n, 0), nil
	case "year":
		return t.AddDate(n, 0, 0), nil
	}
	return time.Time{}, fmt.Errorf("%s is not a valid time unit", unit)
}

// timeOfDay names the part of the day a timestamp falls in.
func timeOfDay(t time.Time) string {
	minutes := t.Hour()*60 + t.Minute()
	switch {
	case minutes == 0:
		return "midnight"
	case minutes < 12*60:
		return "morning"
	case minutes == 12*60:
		return "noon"
	case t.Hour() < 18:
		return "afternoon"
	case t.Hour() < 22 || minutes == 22*60:
		return "evening"
	}
	return "night"
}

// dateReadBack phrases target relative to reference: today, tomorrow,
// yesterday, this/next/last weekday, or the full date.
func dateReadBack(reference, target time.Time) string {
	ref := truncateToDay(reference)
	day := time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, ref.Location())
	diff := int(day.Sub(ref).Hours() / 24)
	switch diff {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	case -1:
		return "yesterday"
	}

	weekDiff := int(weekStart(day).Sub(weekStart(ref)).Hours() / 24 / 7)
	weekday := day.Weekday().String()
	switch weekDiff {
	case 0:
		return "this " + weekday
	case 1:
		return "next " + weekday
	case -1:
		return "last " + weekday
	}
	return fmt.Sprintf("%s %d%s %s %d", weekday, day.Day(), ordinalSuffix(day.Day()), day.Month(), day.Year())
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// weekStart returns the Monday that starts t's week.
func weekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return truncateToDay(t).AddDate(0, 0, -offset)
}
