package main

import (
	"testing"
)

func TestWheelPixels(t *testing.T) {
	testCases := map[string]struct {
		delta      float64
		mode       deltaMode
		pageHeight int
		expected   float64
	}{
		"Pixel": {
			delta: 120, mode: deltaPixel, pageHeight: 300,
			expected: 120,
		},
		"Line": {
			delta: -3, mode: deltaLine, pageHeight: 300,
			expected: -48,
		},
		"Page": {
			delta: 1, mode: deltaPage, pageHeight: 300,
			expected: 300,
		},
		"PageWithoutHeight": {
			delta: 1, mode: deltaPage,
			expected: lineHeight,
		},
		"UnknownMode": {
			delta: 7, mode: deltaMode(9),
			expected: 7,
		},
	}
	for name, tt := range testCases {
		tt := tt
		t.Run(name, func(t *testing.T) {
			if d := wheelPixels(tt.delta, tt.mode, tt.pageHeight); d != tt.expected {
				t.Errorf("Expected: %f, got: %f", tt.expected, d)
			}
		})
	}
}
