package errors

import (
	"math"
	"testing"
)

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		x, y, z float64
		wantErr bool
	}{
		{"origin", 0, 0, 0, false},
		{"negative", -3, 4.5, -1e6, false},
		{"nan", math.NaN(), 0, 0, true},
		{"inf", 0, math.Inf(1), 0, true},
		{"neg inf", 0, 0, math.Inf(-1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCoordinates(tt.x, tt.y, tt.z)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCoordinates() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateStrength(t *testing.T) {
	tests := []struct {
		name    string
		s       float64
		wantErr bool
	}{
		{"unit", 1, false},
		{"zero", 0, false},
		{"negative", -0.5, true},
		{"nan", math.NaN(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStrength(tt.s)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStrength(%v) error = %v, wantErr %v", tt.s, err, tt.wantErr)
			}
		})
	}
}

func TestValidateLevel(t *testing.T) {
	if err := ValidateLevel(0, 6); err != nil {
		t.Errorf("level 0 of 6: %v", err)
	}
	if err := ValidateLevel(6, 6); !Is(err, ErrCodeLayerNotFound) {
		t.Errorf("level 6 of 6: got %v", err)
	}
	if err := ValidateLevel(-1, 6); err == nil {
		t.Error("level -1 should be rejected")
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "layers", false},
		{"nested", "out/layers", false},
		{"absolute", "/tmp/out", false},
		{"empty", "", true},
		{"traversal", "../etc", true},
		{"null byte", "out\x00", true},
		{"too long", string(make([]byte, 600)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
