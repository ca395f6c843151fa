package timex

import "time"

// NowMs returns Unix milliseconds. On boards without an RTC this is time
// since boot plus the build epoch, which is fine for ordering payloads.
func NowMs() int64 { return time.Now().UnixMilli() }

// Ms converts a millisecond count from config into a Duration.
func Ms(n uint32) time.Duration { return time.Duration(n) * time.Millisecond }
