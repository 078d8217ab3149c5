package expression

import (
	"fmt"
	"time"
)

// timestampPart builds an evaluator reading one component of a timestamp.
func timestampPart(name string, returnType ReturnType, fn func(t time.Time) interface{}) *ExpressionEvaluator {
	return &ExpressionEvaluator{
		Type: name,
		Evaluate: ApplyWithError(func(args []interface{}) (interface{}, error) {
			t, err := ParseTimestamp(args[0].(string))
			if err != nil {
				return nil, err
			}
			return fn(t), nil
		}, VerifyString),
		ReturnType: returnType,
		Validate:   ValidateUnaryString,
	}
}

// relativeTime builds getFutureTime/getPastTime: (interval, unit[, format])
// applied to the current UTC time.
func relativeTime(name string, sign int) *ExpressionEvaluator {
	return &ExpressionEvaluator{
		Type: name,
		Evaluate: ApplyWithError(func(args []interface{}) (interface{}, error) {
			n, ok := toInt(args[0])
			if !ok || !isInteger(args[0]) {
				return nil, fmt.Errorf("%s should contain a time interval integer", name)
			}
			unit, ok := args[1].(string)
			if !ok {
				return nil, fmt.Errorf("%s should contain a time unit string", name)
			}
			format, err := formatArgument(args, 2)
			if err != nil {
				return nil, err
			}
			t, err := addUnit(timeNow().UTC(), sign*n, unit)
			if err != nil {
				return nil, err
			}
			return FormatDateTimeValue(t, format)
		}, nil),
		ReturnType: ReturnString,
		Validate:   validateOrder([]ReturnType{ReturnString}, ReturnNumber, ReturnString),
	}
}

// shiftByUnit builds addToTime/subtractFromTime: (timestamp, interval, unit[, format]).
func shiftByUnit(name string, sign int) *ExpressionEvaluator {
	return &ExpressionEvaluator{
		Type: name,
		Evaluate: ApplyWithError(func(args []interface{}) (interface{}, error) {
			ts, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("%s should contain an ISO format timestamp", name)
			}
			n, ok := toInt(args[1])
			if !ok || !isInteger(args[1]) {
				return nil, fmt.Errorf("%s should contain a time interval integer", name)
			}
			unit, ok := args[2].(string)
			if !ok {
				return nil, fmt.Errorf("%s should contain a time unit string", name)
			}
			format, err := formatArgument(args, 3)
			if err != nil {
				return nil, err
			}
			t, err := ParseTimestamp(ts)
			if err != nil {
				return nil, err
			}
			shifted, err := addUnit(t, sign*n, unit)
			if err != nil {
				return nil, err
			}
			return FormatDateTimeValue(shifted, format)
		}, nil),
		ReturnType: ReturnString,
		Validate:   validateOrder([]ReturnType{ReturnString}, ReturnString, ReturnNumber, ReturnString),
	}
}

func dateTimeFunctions() []*ExpressionEvaluator {
	return []*ExpressionEvaluator{
		TimeTransform(AddDays, func(t time.Time, n int) time.Time { return t.AddDate(0, 0, n) }),
		TimeTransform(AddHours, func(t time.Time, n int) time.Time { return t.Add(time.Duration(n) * time.Hour) }),
		TimeTransform(AddMinutes, func(t time.Time, n int) time.Time { return t.Add(time.Duration(n) * time.Minute) }),
		TimeTransform(AddSeconds, func(t time.Time, n int) time.Time { return t.Add(time.Duration(n) * time.Second) }),
		timestampPart(DayOfMonth, ReturnNumber, func(t time.Time) interface{} { return t.Day() }),
		timestampPart(DayOfWeek, ReturnNumber, func(t time.Time) interface{} { return int(t.Weekday()) }),
		timestampPart(DayOfYear, ReturnNumber, func(t time.Time) interface{} { return t.YearDay() }),
		timestampPart(Month, ReturnNumber, func(t time.Time) interface{} { return int(t.Month()) }),
		timestampPart(Year, ReturnNumber, func(t time.Time) interface{} { return t.Year() }),
		timestampPart(Date, ReturnString, func(t time.Time) interface{} { return formatCustomDateTime(t, "M/dd/yyyy") }),
		timestampPart(GetTimeOfDay, ReturnString, func(t time.Time) interface{} { return timeOfDay(t) }),
		{
			Type: UtcNow,
			Evaluate: ApplyWithError(func(args []interface{}) (interface{}, error) {
				format, err := formatArgument(args, 0)
				if err != nil {
					return nil, err
				}
				return FormatDateTimeValue(timeNow().UTC(), format)
			}, nil),
			ReturnType: ReturnString,
			Validate:   validateOrder([]ReturnType{ReturnString}),
		},
		{
			Type: FormatDateTime,
			Evaluate: ApplyWithError(func(args []interface{}) (interface{}, error) {
				ts, ok := args[0].(string)
				if !ok {
					return nil, fmt.Errorf("%s should be an ISO format timestamp", FormatValue(args[0]))
				}
				format, err := formatArgument(args, 1)
				if err != nil {
					return nil, err
				}
				t, err := ParseTimestamp(ts)
				if err != nil {
					return nil, err
				}
				return FormatDateTimeValue(t, format)
			}, nil),
			ReturnType: ReturnString,
			Validate:   validateOrder([]ReturnType{ReturnString}, ReturnString),
		},
		shiftByUnit(AddToTime, 1),
		shiftByUnit(SubtractFromTime, -1),
		relativeTime(GetFutureTime, 1),
		relativeTime(GetPastTime, -1),
		{
			Type: DateReadBack,
			Evaluate: ApplyWithError(func(args []interface{}) (interface{}, error) {
				reference, err := ParseTimestamp(args[0].(string))
				if err != nil {
					return nil, err
				}
				target, err := ParseTimestamp(args[1].(string))
				if err != nil {
					return nil, err
				}
				return dateReadBack(reference, target), nil
			}, VerifyString),
			ReturnType: ReturnString,
			Validate:   validateOrder(nil, ReturnString, ReturnString),
		},
	}
}
