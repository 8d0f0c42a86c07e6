package session

import "testing"

func TestNextLevel(t *testing.T) {
	cases := []struct {
		name     string
		currentN int
		accuracy float64
		want     int
	}{
		{"increase", 5, 85, 6},
		{"decrease", 5, 50, 4},
		{"plateau", 5, 70, 5},
		{"ceiling", 8, 90, 8},
		{"floor", 1, 10, 1},
		{"raise boundary", 3, 80, 4},
		{"lower boundary", 3, 60, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextLevel(tc.currentN, tc.accuracy)
			if got.NewN != tc.want {
				t.Fatalf("NextLevel(%d, %v) = %d, want %d", tc.currentN, tc.accuracy, got.NewN, tc.want)
			}
			if got.Message == "" {
				t.Fatalf("NextLevel(%d, %v) returned empty message", tc.currentN, tc.accuracy)
			}
		})
	}
}

func TestNextLevelDistinctSteadyMessages(t *testing.T) {
	plateau := NextLevel(5, 70).Message
	ceiling := NextLevel(8, 95).Message
	floor := NextLevel(1, 5).Message
	if plateau == ceiling || plateau == floor || ceiling == floor {
		t.Fatalf("steady-state messages must be distinct: %q %q %q", plateau, ceiling, floor)
	}
}
