package outbox

import (
	"testing"
	"time"
)

func TestNextBackoff(t *testing.T) {
	cases := []struct {
		attempts int
		want     time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{6, 32 * time.Second},
		{9, 256 * time.Second},
		{10, 5 * time.Minute},
		{20, 5 * time.Minute}, // cap
	}
	for _, c := range cases {
		if got := NextBackoff(c.attempts); got != c.want {
			t.Errorf("NextBackoff(%d) = %v, want %v", c.attempts, got, c.want)
		}
	}
}
