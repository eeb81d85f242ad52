package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1", 1, true},
		{"1.0", 1, true},
		{"1.23", 1.23, true},
		{"1,23", 1.23, true},
		{"0.01", 0.01, true},
		{"1.005", 1.01, true}, // half-up rounding
		{" 2.50 ", 2.5, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseLooseNumber(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1800", 1800, true},
		{"+$1,800.00 MXN", 1800, true},
		{"-$12.50 USD", 12.5, true},
		{" 18.0000 ", 18, true},
		{"null", 0, false},
		{"", 0, false},
		{"$abc", 0, false},
		{"USD", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseLooseNumber(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %v", tc.in, got)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(1234.5, MXN); got != "$1,234.50" {
		t.Fatalf("unexpected MXN format %q", got)
	}
	if got := FormatSigned(-12, USD); got != "-$12.00 USD" {
		t.Fatalf("unexpected signed format %q", got)
	}
	if got := FormatSigned(1800, MXN); got != "+$1,800.00 MXN" {
		t.Fatalf("unexpected signed format %q", got)
	}
}

func TestIncomeText(t *testing.T) {
	if got := IncomeText(100, USD, Rate(18)); got != "$100.00 (@18.0000)" {
		t.Fatalf("unexpected text %q", got)
	}
	if got := IncomeText(500, MXN, nil); got != "$500.00" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber(1800); got != "1800" {
		t.Fatalf("unexpected %q", got)
	}
	a, b := 0.1, 0.2
	if got := FormatNumber(a + b); got != "0.30000000000000004" {
		t.Fatalf("unexpected %q", got)
	}
}
