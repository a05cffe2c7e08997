package main

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCaptureArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want captureArgs
		err  bool
	}{
		{
			name: "plain",
			args: []string{"0_0", "10_10", "0", "pixelplanet.fun"},
			want: captureArgs{
				target:  target{image.Rect(0, 0, 10, 10), 0, "pixelplanet.fun"},
				compare: true,
			},
		},
		{
			name: "trailing words",
			args: []string{"-5_-5", "5_5", "7", "example.com", "timestamp", "NO_COMPARE"},
			want: captureArgs{
				target:    target{image.Rect(-5, -5, 5, 5), 7, "example.com"},
				compare:   false,
				timestamp: true,
			},
		},
		{
			name: "too few",
			args: []string{"0_0", "10_10", "0"},
			err:  true,
		},
		{
			name: "bad canvas",
			args: []string{"0_0", "10_10", "earth", "example.com"},
			err:  true,
		},
		{
			name: "bad region",
			args: []string{"10_10", "0_0", "0", "example.com"},
			err:  true,
		},
		{
			name: "unknown word",
			args: []string{"0_0", "10_10", "0", "example.com", "loop"},
			err:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCaptureArgs(tt.args)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTerminateFlags(t *testing.T) {
	tests := []struct {
		args []string
		want []string
	}{
		{
			[]string{"timelapser", "canvases", "example.com"},
			[]string{"timelapser", "canvases", "example.com"},
		},
		{
			[]string{"timelapser", "0_0", "10_10", "0", "example.com"},
			[]string{"timelapser", "--", "0_0", "10_10", "0", "example.com"},
		},
		{
			[]string{"timelapser", "-v", "-10_-10", "10_10", "0", "example.com"},
			[]string{"timelapser", "-v", "--", "-10_-10", "10_10", "0", "example.com"},
		},
		{
			[]string{"timelapser", "capture", "-o", "out", "5_-10", "-1_20", "0", "example.com"},
			[]string{"timelapser", "capture", "-o", "out", "--", "5_-10", "-1_20", "0", "example.com"},
		},
		{
			[]string{"timelapser", "--", "-10_-10", "10_10", "0", "example.com"},
			[]string{"timelapser", "--", "-10_-10", "10_10", "0", "example.com"},
		},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, terminateFlags(tt.args))
	}
}
