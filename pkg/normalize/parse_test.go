package normalize

import "testing"

func TestParseFloat(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		absent bool
	}{
		{name: "plain integer", input: "52", want: 52},
		{name: "decimal", input: "12.5", want: 12.5},
		{name: "thousands separator", input: "1,234.5", want: 1234.5},
		{name: "rounded to 2 decimals", input: "3.14159", want: 3.14},
		{name: "rounds up", input: "0.005", want: 0.01},
		{name: "leading whitespace", input: "  7.2  ", want: 7.2},
		{name: "empty", input: "", absent: true},
		{name: "whitespace only", input: "   ", absent: true},
		{name: "non numeric", input: "abc", absent: true},
		{name: "separators only", input: ",", absent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFloat(tt.input)
			if tt.absent {
				if got != nil {
					t.Errorf("ParseFloat(%q) = %v, want nil", tt.input, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParseFloat(%q) = nil, want %v", tt.input, tt.want)
			}
			if *got != tt.want {
				t.Errorf("ParseFloat(%q) = %v, want %v", tt.input, *got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     float64
		wantUnit string
		absent   bool
	}{
		{name: "amount with unit", input: "900.000g", want: 900, wantUnit: "g"},
		{name: "amount without unit", input: "500", want: 500},
		{name: "unit separated by space", input: "250 ml", want: 250, wantUnit: "ml"},
		{name: "thousands separator", input: "1,000g", want: 1000, wantUnit: "g"},
		{name: "empty", input: "", absent: true},
		{name: "no leading number", input: "about 100g", absent: true},
		{name: "separators without digits", input: ",g", absent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, unit := ParseAmount(tt.input)
			if tt.absent {
				if amount != nil {
					t.Errorf("ParseAmount(%q) amount = %v, want nil", tt.input, *amount)
				}
				if unit != "" {
					t.Errorf("ParseAmount(%q) unit = %q, want empty", tt.input, unit)
				}
				return
			}
			if amount == nil {
				t.Fatalf("ParseAmount(%q) amount = nil, want %v", tt.input, tt.want)
			}
			if *amount != tt.want {
				t.Errorf("ParseAmount(%q) amount = %v, want %v", tt.input, *amount, tt.want)
			}
			if unit != tt.wantUnit {
				t.Errorf("ParseAmount(%q) unit = %q, want %q", tt.input, unit, tt.wantUnit)
			}
		})
	}
}
