package value_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/boardcalc/internal/value"
)

func TestParseNumberPrefix(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"42", "42", true},
		{"  3.5", "3.5", true},
		{"12abc", "12", true},
		{"-.5", "-0.5", true},
		{"1e3", "1000", true},
		{"2.5E-1x", "0.25", true},
		{"7.", "7", true},
		{"01/10/2024", "1", true},
		{"abc", "", false},
		{"", "", false},
		{"-", "", false},
		{".", "", false},
	}
	for _, tc := range cases {
		got, ok := value.ParseNumber(tc.in)
		if ok != tc.ok {
			t.Fatalf("ParseNumber(%q) ok=%v, want %v", tc.in, ok, tc.ok)
		}
		if ok && value.FormatNumber(got) != tc.want {
			t.Fatalf("ParseNumber(%q) = %s, want %s", tc.in, value.FormatNumber(got), tc.want)
		}
	}
}

func TestParseReferenceStripsCurrency(t *testing.T) {
	got, ok := value.ParseReference(" $1,200.50 ")
	if !ok {
		t.Fatalf("expected currency value to parse")
	}
	if !got.Equal(decimal.RequireFromString("1200.5")) {
		t.Fatalf("unexpected value %s", got)
	}
	if _, ok := value.ParseReference("$ ,"); ok {
		t.Fatalf("expected empty cleaned value to be rejected")
	}
}

func TestIsPlainNumber(t *testing.T) {
	if !value.IsPlainNumber(" 10.25 ") {
		t.Fatalf("expected plain number")
	}
	if value.IsPlainNumber("01/10/2024") {
		t.Fatalf("date must not be treated as a plain number")
	}
	if value.IsPlainNumber("") {
		t.Fatalf("empty string is not a number")
	}
}

func TestTruthy(t *testing.T) {
	cases := map[string]bool{
		"TRUE":  true,
		"true":  true,
		"FALSE": false,
		"0":     false,
		"0.0":   false,
		"-2":    true,
		"yes":   true,
		"":      false,
		"  ":    false,
	}
	for in, want := range cases {
		if got := value.Truthy(in); got != want {
			t.Fatalf("Truthy(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	if got := value.FormatNumber(decimal.RequireFromString("5.000")); got != "5" {
		t.Fatalf("expected 5, got %s", got)
	}
	if got := value.FormatNumber(decimal.RequireFromString("2.50")); got != "2.5" {
		t.Fatalf("expected 2.5, got %s", got)
	}
	if got := value.FormatNumber(decimal.RequireFromString("-0.125")); got != "-0.125" {
		t.Fatalf("expected -0.125, got %s", got)
	}
}

func TestValueDisplay(t *testing.T) {
	day := time.Date(2024, time.March, 7, 15, 30, 0, 0, time.UTC)
	cases := []struct {
		v    value.Value
		want string
	}{
		{value.Empty(), ""},
		{value.NumberFromInt(12), "12"},
		{value.Text("hello"), "hello"},
		{value.Date(day), "03/07/2024"},
		{value.Bool(true), "TRUE"},
		{value.Bool(false), "FALSE"},
		{value.People([]value.UserRef{{Name: "Ada"}, {Email: "grace@example.com"}, {}}), "Ada, grace@example.com"},
		{value.StatusOf("Done", "#00c875"), "Done"},
		{value.Error(value.Errorf(value.NotFound, "Text not found")), "#ERROR: Text not found"},
		{value.Formula("{A}+1", "3"), "3"},
	}
	for _, tc := range cases {
		if got := tc.v.String(); got != tc.want {
			t.Fatalf("%v display = %q, want %q", tc.v.Kind(), got, tc.want)
		}
	}
}

func TestValueToNumber(t *testing.T) {
	if n, ok := value.Text("3.25kg").ToNumber(); !ok || !n.Equal(decimal.RequireFromString("3.25")) {
		t.Fatalf("expected text prefix to coerce, got %s %v", n, ok)
	}
	if n, ok := value.Text("$1,200").ToNumber(); !ok || !n.Equal(decimal.NewFromInt(1200)) {
		t.Fatalf("expected currency text to coerce to 1200, got %s %v", n, ok)
	}
	if n, ok := value.StatusOf("5", "").ToNumber(); !ok || !n.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected numeric status to coerce")
	}
	for _, v := range []value.Value{
		value.Bool(true),
		value.People(nil),
		value.Date(time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC)),
		value.Empty(),
		value.Text(""),
	} {
		if _, ok := v.ToNumber(); ok {
			t.Fatalf("%v must not coerce to a number", v.Kind())
		}
	}
	if n, ok := value.Formula("x", "8").ToNumber(); !ok || !n.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("expected formula display to coerce")
	}
}

func TestIsErrorText(t *testing.T) {
	if !value.IsErrorText("#ERROR: Invalid date") || !value.IsErrorText("Error: boom") {
		t.Fatalf("expected error texts to be recognised")
	}
	if value.IsErrorText("5") {
		t.Fatalf("plain value is not an error")
	}
}
