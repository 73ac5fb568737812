package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"100000000000", MaxCents, true},
		{"100000000000.01", 0, false},
		{"92233720368547758.07", 0, false},
		{"1e5", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseOptionalCents(t *testing.T) {
	m, err := ParseOptionalCents("")
	if err != nil || m != nil {
		t.Fatalf("empty should be absent, got %v %v", m, err)
	}
	m, err = ParseOptionalCents("0")
	if err != nil || m == nil || m.Cents != 0 {
		t.Fatalf("explicit zero should be present, got %v %v", m, err)
	}
	if _, err := ParseOptionalCents("-3"); err == nil {
		t.Fatalf("expected error for negative adjustment")
	}
	if _, err := ParseOptionalCents("100000000000.01"); err == nil {
		t.Fatalf("expected error above the ceiling")
	}
}

func TestParseHours(t *testing.T) {
	h, err := ParseHours("7,5")
	if err != nil || h.String() != "7.5" {
		t.Fatalf("unexpected hours %v %v", h, err)
	}
	for _, bad := range []string{"", "0", "-2", "x", "1e20", "2E1"} {
		if _, err := ParseHours(bad); err == nil {
			t.Fatalf("%q expected error", bad)
		}
	}
}

func TestFormatEuros(t *testing.T) {
	cases := map[int64]string{
		0:      "€0,00",
		5:      "€0,05",
		123456: "€1234,56",
		-250:   "-€2,50",
	}
	for in, want := range cases {
		if got := FormatEuros(in); got != want {
			t.Errorf("FormatEuros(%d) = %q, want %q", in, got, want)
		}
	}
}
