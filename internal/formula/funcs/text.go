package funcs

import (
	"strings"

	"github.com/example/boardcalc/internal/value"
)

func concatenate(_ Context, args []string) (value.Value, error) {
	return value.Text(strings.Join(args, "")), nil
}

// find returns the 1-based rune position of args[0] inside args[1],
// searching case-sensitively from the optional 1-based start.
func find(_ Context, args []string) (value.Value, error) {
	if len(args) < 2 {
		return value.Value{}, value.Errorf(value.InvalidArguments, "FIND() requires at least find_text and within_text")
	}
	needle := []rune(args[0])
	haystack := []rune(args[1])
	start := 0
	if len(args) > 2 {
		n, ok := value.ParseLeadingInt(args[2])
		if !ok {
			return value.Value{}, value.Errorf(value.InvalidArguments, "Invalid start position in FIND()")
		}
		if n > 1 {
			start = n - 1
		}
	}
	if start > len(haystack) {
		return value.Value{}, value.Errorf(value.NotFound, "Text not found")
	}
	idx := strings.Index(string(haystack[start:]), string(needle))
	if idx < 0 {
		return value.Value{}, value.Errorf(value.NotFound, "Text not found")
	}
	pos := start + len([]rune(string(haystack[start:])[:idx]))
	return value.NumberFromInt(int64(pos + 1)), nil
}

func left(_ Context, args []string) (value.Value, error) {
	text, n, err := textAndCount("LEFT", args)
	if err != nil {
		return value.Value{}, err
	}
	if n < 0 {
		return value.Text(""), nil
	}
	if n > len(text) {
		n = len(text)
	}
	return value.Text(string(text[:n])), nil
}

func right(_ Context, args []string) (value.Value, error) {
	text, n, err := textAndCount("RIGHT", args)
	if err != nil {
		return value.Value{}, err
	}
	if n < 0 {
		return value.Text(""), nil
	}
	if n > len(text) {
		n = len(text)
	}
	return value.Text(string(text[len(text)-n:])), nil
}

// textAndCount reads the (text, num_chars) pair of LEFT and RIGHT;
// num_chars defaults to 1.
func textAndCount(name string, args []string) ([]rune, int, error) {
	if len(args) == 0 {
		return nil, 0, value.Errorf(value.InvalidArguments, "%s() requires text parameter", name)
	}
	n := 1
	if len(args) > 1 {
		parsed, ok := value.ParseLeadingInt(args[1])
		if !ok {
			return nil, 0, value.Errorf(value.InvalidArguments, "num_chars must be a number")
		}
		n = parsed
	}
	return []rune(args[0]), n, nil
}
