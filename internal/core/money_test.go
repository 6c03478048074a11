package core

import "testing"

func TestParseSignedDecimalToCents(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12.34", 1234, false},
		{"12,34", 1234, false},
		{"-12.34", -1234, false},
		{"+12.34", 1234, false},
		{"1000", 100000, false},
		{"-0.5", -50, false},
		{"12.345", 1234, false}, // rounds down
		{"12.346", 1235, false}, // rounds up
		{"0", 0, true},
		{"0.00", 0, true},
		{"", 0, true},
		{"-", 0, true},
		{"abc", 0, true},
		{"1.2.3", 0, true},
		{"12a", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseSignedDecimalToCents(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error, got %d", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%q: got %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestMoneyDecimal(t *testing.T) {
	if s := (Money{Cents: -25000}).Decimal(); s != "-250.00" {
		t.Fatalf("got %s", s)
	}
	if s := (Money{Cents: 105}).Decimal(); s != "1.05" {
		t.Fatalf("got %s", s)
	}
}

func TestMoneyDisplay(t *testing.T) {
	if s := (Money{Cents: 50000}).Display("Rs"); s != "Rs 500.00" {
		t.Fatalf("got %s", s)
	}
	if s := (Money{Cents: -50000}).Display("Rs"); s != "-Rs 500.00" {
		t.Fatalf("got %s", s)
	}
}
