package vexel

import (
	"testing"

	"honnef.co/go/color"
)

func TestVertexColor(t *testing.T) {
	// A color already in linear sRGB converts to itself, channel for
	// channel, with alpha in the fourth slot.
	c := &color.Color{
		Space:  color.LinearSRGB,
		Values: [4]float64{0.25, 0.5, 0.75, 0.5},
	}
	got := VertexColor(c)
	want := Color{0.25, 0.5, 0.75, 0.5}
	for i := range want {
		if diff := got[i] - want[i]; diff < -1e-4 || diff > 1e-4 {
			t.Fatalf("channel %d: got %v, want %v", i, got[i], want[i])
		}
	}
}
