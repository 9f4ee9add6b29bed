package kataster

import "testing"

func TestValidTunnus(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"valid", "79501:027:0011", true},
		{"valid with surrounding whitespace", "  79501:027:0011\t", true},
		{"empty", "", false},
		{"whitespace only", "   ", false},
		{"too short unit", "7950:027:0011", false},
		{"too long parcel", "79501:027:00111", false},
		{"letters", "79501:02a:0011", false},
		{"missing segment", "79501:0011", false},
		{"extra segment", "79501:027:0011:1", false},
		{"internal whitespace", "79501: 027:0011", false},
		{"injection attempt", "79501:027:0011' OR 1=1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidTunnus(tt.input); got != tt.want {
				t.Errorf("ValidTunnus(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidDate(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"2020-01-01", true},
		{"1997-12-31", true},
		{"2020-13-01", false},
		{"2020-02-30", false},
		{"2020-1-1", false},
		{"01.01.2020", false},
		{"2020-01-01T00:00:00Z", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidDate(tt.input); got != tt.want {
			t.Errorf("ValidDate(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
