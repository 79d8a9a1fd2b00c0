package funcs

import "github.com/example/boardcalc/internal/value"

func ifFunc(_ Context, args []string) (value.Value, error) {
	if len(args) != 3 {
		return value.Value{}, value.Errorf(value.InvalidArguments, "IF() requires logical_test, value_if_true, value_if_false")
	}
	if value.Truthy(args[0]) {
		return value.Text(args[1]), nil
	}
	return value.Text(args[2]), nil
}

func and(_ Context, args []string) (value.Value, error) {
	if len(args) == 0 {
		return value.Value{}, value.Errorf(value.InvalidArguments, "AND() requires at least one condition")
	}
	for _, arg := range args {
		if !value.Truthy(arg) {
			return value.Bool(false), nil
		}
	}
	return value.Bool(true), nil
}

func or(_ Context, args []string) (value.Value, error) {
	if len(args) == 0 {
		return value.Value{}, value.Errorf(value.InvalidArguments, "OR() requires at least one condition")
	}
	for _, arg := range args {
		if value.Truthy(arg) {
			return value.Bool(true), nil
		}
	}
	return value.Bool(false), nil
}

func not(_ Context, args []string) (value.Value, error) {
	if len(args) == 0 {
		return value.Value{}, value.Errorf(value.InvalidArguments, "NOT() requires a logical parameter")
	}
	return value.Bool(!value.Truthy(args[0])), nil
}
