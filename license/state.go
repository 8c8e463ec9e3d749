package license

import "time"

// Free-tier defaults.
const (
	DefaultDailyQuota  = 3
	DefaultMaxFileSize = 10 << 20 // 10 MiB
)

// State is the license tier consulted before processing. It is a tagged
// variant rather than a bag of numeric fields with infinity sentinels:
// Premium has no limits to express, Free carries its quota and size cap.
type State interface {
	IsPremium() bool
	AllowsFileSize(size int64) bool
}

// Premium is the unrestricted tier granted by a successful activation.
type Premium struct{}

func (Premium) IsPremium() bool           { return true }
func (Premium) AllowsFileSize(int64) bool { return true }

// Free is the default tier: a daily document quota and a file size cap,
// reset on a new calendar day.
type Free struct {
	Remaining   int
	MaxFileSize int64
	// Day is the local calendar day the quota belongs to, "2006-01-02".
	Day string
}

// NewFree returns a fresh free-tier state for the given day.
func NewFree(now time.Time) *Free {
	return &Free{
		Remaining:   DefaultDailyQuota,
		MaxFileSize: DefaultMaxFileSize,
		Day:         now.Format("2006-01-02"),
	}
}

func (f *Free) IsPremium() bool { return false }

func (f *Free) AllowsFileSize(size int64) bool { return size <= f.MaxFileSize }

// Refresh resets the quota when the calendar day has rolled over.
func (f *Free) Refresh(now time.Time) {
	day := now.Format("2006-01-02")
	if day != f.Day {
		f.Day = day
		f.Remaining = DefaultDailyQuota
	}
}

// Consume takes one document from the daily quota, refreshing first. It
// reports false, without mutation, when the quota is exhausted.
func (f *Free) Consume(now time.Time) bool {
	f.Refresh(now)
	if f.Remaining <= 0 {
		return false
	}
	f.Remaining--
	return true
}
