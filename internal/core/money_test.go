package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"85.75", 8575, false},
		{"85,75", 8575, false},
		{"1200", 120000, false},
		{"0.5", 50, false},
		{".5", 50, false},
		{"24.509", 2451, false},
		{"24.504", 2450, false},
		{"  12.00 ", 1200, false},
		{"", 0, true},
		{"0", 0, true},
		{"0.00", 0, true},
		{"-5", 0, true},
		{"+5", 0, true},
		{"abc", 0, true},
		{"1.2.3", 0, true},
		{"12e3", 0, true},
		{"92233720368547758.08", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("ParseAmount(%q) err = %v, want ErrInvalidAmount", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) unexpected error: %v", tt.in, err)
			}
			if got.Cents != tt.want {
				t.Fatalf("ParseAmount(%q) = %d, want %d", tt.in, got.Cents, tt.want)
			}
		})
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{8575, "85.75"},
		{120000, "1200.00"},
		{5, "0.05"},
		{0, "0.00"},
		{-3000, "-30.00"},
	}
	for _, tt := range tests {
		if got := (Money{Cents: tt.cents}).String(); got != tt.want {
			t.Fatalf("Money{%d}.String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}
