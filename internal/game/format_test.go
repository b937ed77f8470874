package game

import "testing"

func TestFormatTime(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{45.67, "0:45.67"},
		{125.45, "2:05.45"},
		{654.32, "10:54.32"},
		{0, "0:00.00"},
		{60, "1:00.00"},
		{-3, "0:00.00"},
	}
	for _, c := range cases {
		if got := FormatTime(c.seconds); got != c.want {
			t.Errorf("FormatTime(%v) = %q, want %q", c.seconds, got, c.want)
		}
	}
}
