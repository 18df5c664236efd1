// Package humanfmt renders sizes, durations, rates and compression ratios
// for reports and pretty log output.
package humanfmt

import (
	"fmt"
	"time"
)

// IEC byte units.
const (
	KiB = 1 << 10
	MiB = 1 << 20
	GiB = 1 << 30
	TiB = 1 << 40
)

var units = []struct {
	size float64
	name string
}{
	{TiB, "TiB"},
	{GiB, "GiB"},
	{MiB, "MiB"},
	{KiB, "KiB"},
}

// scale picks the largest unit not exceeding v. ok is false below 1 KiB.
func scale(v float64) (scaled float64, unit string, ok bool) {
	for _, u := range units {
		if v >= u.size {
			return v / u.size, u.name, true
		}
	}
	return v, "B", false
}

// Bytes formats a byte count with two decimals in the largest fitting IEC
// unit, e.g. "1.23 GiB". Counts under 1 KiB and negative counts are exact.
func Bytes(b int64) string {
	if b < 0 {
		return fmt.Sprintf("%d B", b)
	}
	v, unit, ok := scale(float64(b))
	if !ok {
		return fmt.Sprintf("%d B", b)
	}
	return fmt.Sprintf("%.2f %s", v, unit)
}

// BytesUint64 is Bytes for uint64 counters such as ContentStats.Size.
func BytesUint64(b uint64) string {
	v, unit, ok := scale(float64(b))
	if !ok {
		return fmt.Sprintf("%d B", b)
	}
	return fmt.Sprintf("%.2f %s", v, unit)
}

// Duration formats d compactly: "2h15m", "1m30s", "1.23s", "45.6ms",
// "789.0µs" or "12ns".
func Duration(d time.Duration) string {
	if d < 0 {
		return d.String()
	}

	if d >= time.Minute {
		big, small := time.Hour, time.Minute
		bigUnit, smallUnit := "h", "m"
		if d < time.Hour {
			big, small = time.Minute, time.Second
			bigUnit, smallUnit = "m", "s"
		}
		whole, rest := d/big, (d%big)/small
		if rest == 0 {
			return fmt.Sprintf("%d%s", whole, bigUnit)
		}
		return fmt.Sprintf("%d%s%d%s", whole, bigUnit, rest, smallUnit)
	}

	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	case d >= time.Microsecond:
		return fmt.Sprintf("%.1fµs", float64(d)/float64(time.Microsecond))
	}
	return fmt.Sprintf("%dns", d.Nanoseconds())
}

// Throughput formats bytes moved over d as a rate, e.g. "123.40 MiB/s".
func Throughput(bytes int64, d time.Duration) string {
	if d <= 0 {
		return "∞"
	}
	v, unit, ok := scale(float64(bytes) / d.Seconds())
	if !ok {
		return fmt.Sprintf("%.0f B/s", v)
	}
	return fmt.Sprintf("%.2f %s/s", v, unit)
}

// Ratio formats the size of compressed output relative to its content as a
// percentage, like "23.5%". Empty content has no ratio.
func Ratio(compressed, content uint64) string {
	if content == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", float64(compressed)*100/float64(content))
}
