package expression

import (
	"testing"
	"time"
)

func freezeTime(t *testing.T, now time.Time) {
	t.Helper()
	saved := timeNow
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = saved })
}

func TestDateTimeFunctions(t *testing.T) {
	freezeTime(t, time.Date(2018, 3, 15, 13, 0, 0, 0, time.UTC))

	tests := []struct {
		expr string
		want interface{}
	}{
		{expr: "addDays('2018-03-15T13:00:00Z', 1)", want: "2018-03-16T13:00:00.0000000Z"},
		{expr: "addDays('2018-03-15T13:00:00Z', -1, 'yyyy-MM-dd')", want: "2018-03-14"},
		{expr: "addHours('2018-03-15T13:00:00Z', 2, 'HH:mm')", want: "15:00"},
		{expr: "addMinutes('2018-03-15T13:00:00Z', 30, 'h:mm tt')", want: "1:30 PM"},
		{expr: "addSeconds('2018-03-15T13:00:00Z', 5, 'ss')", want: "05"},
		{expr: "dayOfMonth('2018-03-15T13:00:00Z')", want: 15},
		{expr: "dayOfWeek('2018-03-15T13:00:00Z')", want: 4},
		{expr: "dayOfYear('2018-03-15T13:00:00Z')", want: 74},
		{expr: "month('2018-03-15T13:00:00Z')", want: 3},
		{expr: "year('2018-03-15T13:00:00Z')", want: 2018},
		{expr: "date('2018-03-05T13:00:00Z')", want: "3/05/2018"},
		{expr: "formatDateTime('2018-03-15T13:00:00Z', 'yyyy-MM-dd')", want: "2018-03-15"},
		{expr: "formatDateTime('2018-03-15T13:00:00Z', 'dddd, MMMM d')", want: "Thursday, March 15"},
		{expr: "formatDateTime('2018-03-15T13:00:00Z', 'D')", want: "Thursday, March 15, 2018"},
		{expr: "formatDateTime('2018-03-15')", want: "2018-03-15T00:00:00.0000000Z"},
		{expr: "addToTime('2018-01-31T08:00:00Z', 1, 'week', 'yyyy-MM-dd')", want: "2018-02-07"},
		{expr: "subtractFromTime('2018-01-01T08:00:00Z', 1, 'day', 'yyyy-MM-dd')", want: "2017-12-31"},
		{expr: "utcNow('yyyy-MM-dd HH:mm')", want: "2018-03-15 13:00"},
		{expr: "utcNow()", want: "2018-03-15T13:00:00.0000000Z"},
		{expr: "getFutureTime(2, 'day', 'yyyy-MM-dd')", want: "2018-03-17"},
		{expr: "getPastTime(1, 'year', 'yyyy')", want: "2017"},
		{expr: "getTimeOfDay('2018-03-15T00:00:00Z')", want: "midnight"},
		{expr: "getTimeOfDay('2018-03-15T08:00:00Z')", want: "morning"},
		{expr: "getTimeOfDay('2018-03-15T12:00:00Z')", want: "noon"},
		{expr: "getTimeOfDay('2018-03-15T13:00:00Z')", want: "afternoon"},
		{expr: "getTimeOfDay('2018-03-15T21:59:00Z')", want: "evening"},
		{expr: "getTimeOfDay('2018-03-15T22:00:00Z')", want: "evening"},
		{expr: "getTimeOfDay('2018-03-15T22:30:00Z')", want: "night"},
		{expr: "dateReadBack('2018-03-15T00:00:00Z', '2018-03-15T18:00:00Z')", want: "today"},
		{expr: "dateReadBack('2018-03-15T00:00:00Z', '2018-03-16T00:00:00Z')", want: "tomorrow"},
		{expr: "dateReadBack('2018-03-15T00:00:00Z', '2018-03-14T00:00:00Z')", want: "yesterday"},
		{expr: "dateReadBack('2018-03-15T00:00:00Z', '2018-03-17T00:00:00Z')", want: "this Saturday"},
		{expr: "dateReadBack('2018-03-15T00:00:00Z', '2018-03-20T00:00:00Z')", want: "next Tuesday"},
		{expr: "dateReadBack('2018-03-15T00:00:00Z', '2018-03-06T00:00:00Z')", want: "last Tuesday"},
		{expr: "dateReadBack('2018-03-15T00:00:00Z', '2017-05-05T00:00:00Z')", want: "Friday 5th May 2017"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Evaluate(tt.expr, nil)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestFormatCustomDateTimeLiterals(t *testing.T) {
	ts := time.Date(2018, 3, 15, 9, 5, 7, 120000000, time.UTC)
	tests := []struct {
		format string
		want   string
	}{
		{format: "yyyy'-at-'HH", want: "2018-at-09"},
		{format: `HH\h mm`, want: "09h 05"},
		{format: "HH:mm:ss.fff", want: "09:05:07.120"},
		{format: "HH:mm:ss.FFF", want: "09:05:07.12"},
		{format: "yy-M-d K", want: "18-3-15 Z"},
		{format: "ddd MMM", want: "Thu Mar"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got, err := FormatDateTimeValue(ts, tt.format)
			if err != nil {
				t.Fatalf("FormatDateTimeValue() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("FormatDateTimeValue(%q) = %q, want %q", tt.format, got, tt.want)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	valid := []string{
		"2018-03-15T13:00:00Z",
		"2018-03-15T13:00:00.1234567Z",
		"2018-03-15T13:00:00+02:00",
		"2018-03-15T13:00:00",
		"2018-03-15",
	}
	for _, ts := range valid {
		if _, err := ParseTimestamp(ts); err != nil {
			t.Errorf("ParseTimestamp(%q) error = %v", ts, err)
		}
	}
	for _, ts := range []string{"", "tomorrow", "15/03/2018"} {
		if _, err := ParseTimestamp(ts); err == nil {
			t.Errorf("ParseTimestamp(%q) succeeded, want error", ts)
		}
	}
}
