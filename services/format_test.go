package services

import "testing"

func TestRoundCents(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		expect float64
	}{
		{"rounds down", 1.234, 1.23},
		{"rounds up", 1.236, 1.24},
		{"negative rounds away from zero", -1.236, -1.24},
		{"whole number unchanged", 100, 100},
		{"already cents", 58064.96, 58064.96},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundCents(tt.amount)
			if got != tt.expect {
				t.Errorf("RoundCents(%v) = %v, want %v", tt.amount, got, tt.expect)
			}
		})
	}
}

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		expect string
	}{
		{"zero", 0, "$0.00"},
		{"small amount", 45.5, "$45.50"},
		{"thousands", 1234.56, "$1,234.56"},
		{"millions", 1234567.89, "$1,234,567.89"},
		{"negative", -45.5, "-$45.50"},
		{"rounds into next group", 999.999, "$1,000.00"},
		{"exact thousand", 1000, "$1,000.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatUSD(tt.amount)
			if got != tt.expect {
				t.Errorf("FormatUSD(%v) = %q, want %q", tt.amount, got, tt.expect)
			}
		})
	}
}
