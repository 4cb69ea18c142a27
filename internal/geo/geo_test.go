package geo

import (
	"errors"
	"testing"
)

func TestZoneAt(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     string
	}{
		{"Zurich", 47.3769, 8.5417, "Europe/Zurich"},
		{"Copenhagen", 55.6761, 12.5683, "Europe/Copenhagen"},
		{"Chicago", 41.8781, -87.6298, "America/Chicago"},
		{"Dubai", 25.2048, 55.2708, "Asia/Dubai"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ZoneAt(tt.lat, tt.lon)
			if err != nil {
				t.Fatalf("ZoneAt() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("ZoneAt(%v, %v) = %q, want %q", tt.lat, tt.lon, got, tt.want)
			}
		})
	}
}

func TestZoneAt_InvalidCoord(t *testing.T) {
	for _, c := range [][2]float64{{91, 0}, {0, -181}} {
		if _, err := ZoneAt(c[0], c[1]); !errors.Is(err, ErrInvalidCoord) {
			t.Errorf("ZoneAt(%v, %v) error = %v, want %v", c[0], c[1], err, ErrInvalidCoord)
		}
	}
}
