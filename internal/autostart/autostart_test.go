package autostart

import "testing"

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"system", SystemMode, false},
		{"user", UserMode, false},
		{"invalid", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestModeString(t *testing.T) {
	if SystemMode.String() != "system" || UserMode.String() != "user" {
		t.Errorf("unexpected mode names %q, %q", SystemMode, UserMode)
	}
	if Mode(7).String() != "unknown" {
		t.Errorf("Mode(7) = %q", Mode(7))
	}
}
