package render

import (
	"time"

	"github.com/dustin/go-humanize"
)

// Since formats t relative to now, e.g. "3 minutes ago". A zero time
// yields an empty string.
func Since(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	if d := now.Sub(t); d >= 0 && d < time.Second {
		return "just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// Stamp formats t as an absolute local timestamp for message headers.
func Stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("Mon, 02 Jan 2006 15:04")
}

// Size formats a byte count, e.g. "2.1 kB".
func Size(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}
