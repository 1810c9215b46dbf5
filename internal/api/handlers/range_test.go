package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRange(t *testing.T) {
	cases := []struct {
		name   string
		header string
		size   int64
		start  int64
		end    int64
		ok     bool
	}{
		{"no header", "", 1000, 0, 0, false},
		{"bounded", "bytes=0-99", 1000, 0, 99, true},
		{"open ended", "bytes=500-", 1000, 500, 999, true},
		{"suffix", "bytes=-100", 1000, 900, 999, true},
		{"suffix larger than file", "bytes=-5000", 1000, 0, 999, true},
		{"end clamped", "bytes=900-4000", 1000, 900, 999, true},
		{"start past eof", "bytes=1000-", 1000, -1, 0, true},
		{"multipart unsupported", "bytes=0-1,5-9", 1000, 0, 0, false},
		{"not bytes unit", "items=0-5", 1000, 0, 0, false},
		{"garbage", "bytes=abc-def", 1000, 0, 0, false},
		{"inverted", "bytes=50-10", 1000, 0, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end, ok := parseRange(tc.header, tc.size)
			assert.Equal(t, tc.ok, ok)
			if !tc.ok {
				return
			}
			assert.Equal(t, tc.start, start)
			if start >= 0 {
				assert.Equal(t, tc.end, end)
			}
		})
	}
}
