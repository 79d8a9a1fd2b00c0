package funcs

import (
	"github.com/shopspring/decimal"

	"github.com/example/boardcalc/internal/value"
)

// numbers keeps the arguments that read as numbers and drops the rest.
func numbers(args []string) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(args))
	for _, arg := range args {
		if d, ok := value.ParseNumber(arg); ok {
			out = append(out, d)
		}
	}
	return out
}

// sum treats non-numeric arguments as zero.
func sum(_ Context, args []string) (value.Value, error) {
	total := decimal.Zero
	for _, d := range numbers(args) {
		total = total.Add(d)
	}
	return value.Number(total), nil
}

func average(_ Context, args []string) (value.Value, error) {
	if len(args) == 0 {
		return value.Value{}, value.Errorf(value.InvalidArguments, "AVERAGE() requires at least one number")
	}
	nums := numbers(args)
	if len(nums) == 0 {
		return value.Value{}, value.Errorf(value.InvalidArguments, "No valid numbers to average")
	}
	total := decimal.Zero
	for _, d := range nums {
		total = total.Add(d)
	}
	return value.Number(total.Div(decimal.NewFromInt(int64(len(nums))))), nil
}

func count(_ Context, args []string) (value.Value, error) {
	return value.NumberFromInt(int64(len(numbers(args)))), nil
}

func maxOf(_ Context, args []string) (value.Value, error) {
	nums := numbers(args)
	if len(nums) == 0 {
		return value.Number(decimal.Zero), nil
	}
	return value.Number(decimal.Max(nums[0], nums[1:]...)), nil
}

func minOf(_ Context, args []string) (value.Value, error) {
	nums := numbers(args)
	if len(nums) == 0 {
		return value.Number(decimal.Zero), nil
	}
	return value.Number(decimal.Min(nums[0], nums[1:]...)), nil
}
