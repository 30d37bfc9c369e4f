package main

import "testing"

func TestSampler(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "xxxxxxx"},
		{3, "x..x..x"},
		{0, "xxxxxxx"},
	}
	for _, tt := range tests {
		s := newSampler(tt.n)
		got := ""
		for i := 0; i < 7; i++ {
			if s.take() {
				got += "x"
			} else {
				got += "."
			}
		}
		if got != tt.want {
			t.Errorf("every %d: got %s, want %s", tt.n, got, tt.want)
		}
	}
}
