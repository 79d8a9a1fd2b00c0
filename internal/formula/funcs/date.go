package funcs

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/boardcalc/internal/value"
)

const (
	minYear = 1900
	maxYear = 9999
)

// Presets understood by FORMAT_DATE.
const (
	shortLayout  = "1/2/2006"
	mediumLayout = "Jan 2, 2006"
	longLayout   = "January 2, 2006"
)

func today(ctx Context, args []string) (value.Value, error) {
	if len(args) != 0 {
		return value.Value{}, value.Errorf(value.InvalidArguments, "TODAY() does not take parameters")
	}
	return value.Date(ctx.now()), nil
}

// date builds a calendar date. Months and days outside their range roll
// into adjacent months and years, so DATE(2024,14,1) is 02/01/2025 and
// DATE(2024,0,1) is 12/01/2023.
func date(_ Context, args []string) (value.Value, error) {
	if len(args) == 0 {
		return value.Value{}, value.Errorf(value.InvalidArguments, "DATE() requires parameters (year, month, day)")
	}
	if len(args) != 3 {
		return value.Value{}, value.Errorf(value.InvalidArguments, "Invalid parameters for DATE(year, month, day)")
	}
	parts := make([]int, 3)
	for i, arg := range args {
		n, ok := value.ParseLeadingInt(arg)
		if !ok {
			return value.Value{}, value.Errorf(value.InvalidArguments, "Invalid parameters for DATE(year, month, day)")
		}
		parts[i] = n
	}
	y, m, d := parts[0], parts[1], parts[2]
	if y >= 0 && y < minYear {
		y += minYear
	}
	if y < 0 || y > maxYear {
		return value.Value{}, value.Errorf(value.InvalidDate, "Invalid date")
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() < minYear || t.Year() > maxYear {
		return value.Value{}, value.Errorf(value.InvalidDate, "Invalid date")
	}
	return value.Date(t), nil
}

func days(_ Context, args []string) (value.Value, error) {
	if len(args) == 0 {
		return value.Value{}, value.Errorf(value.InvalidArguments, "DAYS() requires parameters (end_date, start_date)")
	}
	if len(args) != 2 {
		return value.Value{}, value.Errorf(value.InvalidArguments, "DAYS() requires two parameters: end_date, start_date")
	}
	if args[0] == "" || args[1] == "" {
		return value.Value{}, value.Errorf(value.InvalidArguments, "DAYS() requires non-empty date values")
	}
	if value.IsPlainNumber(args[0]) && value.IsPlainNumber(args[1]) {
		end, _ := value.ParseNumber(args[0])
		start, _ := value.ParseNumber(args[1])
		return value.Number(end.Sub(start)), nil
	}
	end, ok := value.ParseDate(args[0], value.ParseISODate, value.ParseUSDate, value.ParseNativeDate)
	if !ok {
		return value.Value{}, value.Errorf(value.InvalidDate, "Invalid date format")
	}
	start, ok := value.ParseDate(args[1], value.ParseISODate, value.ParseUSDate, value.ParseNativeDate)
	if !ok {
		return value.Value{}, value.Errorf(value.InvalidDate, "Invalid date format")
	}
	return value.NumberFromInt(value.DaysBetween(end, start)), nil
}

// year extracts the year of a date. A bare number is read as a spreadsheet
// serial date, so YEAR(45292) is 2024.
func year(_ Context, args []string) (value.Value, error) {
	if len(args) == 0 || args[0] == "" {
		return value.Value{}, value.Errorf(value.InvalidArguments, "YEAR() requires a date parameter")
	}
	arg := args[0]
	if value.IsPlainNumber(arg) {
		serial, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
		if err != nil {
			return value.Value{}, value.Errorf(value.InvalidDate, "Invalid date in YEAR()")
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return value.Value{}, value.Errorf(value.InvalidDate, "Invalid date in YEAR()")
		}
		return value.NumberFromInt(int64(t.Year())), nil
	}
	t, ok := value.ParseDate(arg, value.ParseNativeDate, value.ParseUSDate, value.ParseISODate)
	if !ok {
		return value.Value{}, value.Errorf(value.InvalidDate, "Invalid date in YEAR()")
	}
	return value.NumberFromInt(int64(t.Year())), nil
}

// workdays approximates WORKDAY by padding every five working days with a
// weekend. Holidays are accepted but not consulted.
func workdays(_ Context, args []string) (value.Value, error) {
	if len(args) == 0 {
		return value.Value{}, value.Errorf(value.InvalidArguments, "WORKDAYS() requires parameters (start_date, days)")
	}
	if len(args) < 2 {
		return value.Value{}, value.Errorf(value.InvalidArguments, "WORKDAYS() requires at least start_date and days parameters")
	}
	start, ok := value.ParseDate(args[0], value.ParseNativeDate, value.ParseUSDate, value.ParseISODate)
	if !ok {
		return value.Value{}, value.Errorf(value.InvalidDate, "Invalid start date in WORKDAYS()")
	}
	n, ok := value.ParseLeadingInt(args[1])
	if !ok {
		return value.Value{}, value.Errorf(value.InvalidArguments, "Invalid days parameter in WORKDAYS()")
	}
	working := n
	if working < 0 {
		working = -working
	}
	calendar := working + (working/5)*2
	if n < 0 {
		calendar = -calendar
	}
	return value.Date(start.AddDate(0, 0, calendar)), nil
}

func formatDate(ctx Context, args []string) (value.Value, error) {
	var t time.Time
	if len(args) == 0 {
		t = value.CalendarDate(ctx.now())
	} else {
		parsed, ok := parseFormatDateInput(args[0])
		if !ok {
			return value.Value{}, value.Errorf(value.InvalidDate, "Invalid date in FORMAT_DATE()")
		}
		t = parsed
	}

	format := "long"
	if len(args) > 1 {
		format = args[1]
	}
	if strings.Contains(format, "YYYY") || strings.Contains(format, "MM") || strings.Contains(format, "DD") {
		out := strings.ReplaceAll(format, "YYYY", strconv.Itoa(t.Year()))
		out = strings.ReplaceAll(out, "MM", pad2(int(t.Month())))
		out = strings.ReplaceAll(out, "DD", pad2(t.Day()))
		return value.Text(out), nil
	}
	switch strings.ToLower(format) {
	case "short":
		return value.Text(t.Format(shortLayout)), nil
	case "medium":
		return value.Text(t.Format(mediumLayout)), nil
	default:
		return value.Text(t.Format(longLayout)), nil
	}
}

// parseFormatDateInput picks the reading from the separator present:
// Y,M,D then M/D/Y then Y-M-D, falling back to free-form layouts.
func parseFormatDateInput(s string) (time.Time, bool) {
	switch {
	case strings.Contains(s, ","):
		parts := strings.Split(s, ",")
		if len(parts) != 3 {
			return value.ParseNativeDate(s)
		}
		return value.ParseISODate(strings.Join(parts, "-"))
	case strings.Contains(s, "/"):
		return value.ParseUSDate(s)
	case strings.Contains(s, "-"):
		return value.ParseISODate(s)
	default:
		return value.ParseNativeDate(s)
	}
}

func pad2(n int) string {
	if n < 10 && n >= 0 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
