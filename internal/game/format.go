// internal/game/format.go
//
// Elapsed-time display formatting.

package game

import "fmt"

// FormatTime renders elapsed seconds as m:ss.cc, with the seconds portion
// zero-padded to width 5 including the decimal point. 125.45 becomes
// "2:05.45" and 654.32 becomes "10:54.32".
func FormatTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	mins := int(seconds) / 60
	secs := seconds - float64(mins*60)
	return fmt.Sprintf("%d:%05.2f", mins, secs)
}
