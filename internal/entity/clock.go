package entity

import "time"

// Clock is a per-color time bank. Only the running color accrues time.
// A zero Limit disables expiry.
type Clock struct {
	Limit   time.Duration    `json:"limit"`
	Used    [2]time.Duration `json:"used"`
	Running Color            `json:"running"`
	Since   time.Time        `json:"since"`
}

func NewClock(limit time.Duration) *Clock {
	return &Clock{Limit: limit}
}

// Switch charges the running color up to now and starts color's clock.
func (that *Clock) Switch(color Color, now time.Time) {
	that.accrue(now)
	that.Running = color
	that.Since = now
}

// Stop charges the running color and leaves both clocks idle.
func (that *Clock) Stop(now time.Time) {
	that.accrue(now)
	that.Since = time.Time{}
}

func (that *Clock) accrue(now time.Time) {
	if that.Since.IsZero() || now.Before(that.Since) {
		return
	}
	that.Used[that.Running] += now.Sub(that.Since)
	that.Since = now
}

func (that *Clock) Remaining(color Color, now time.Time) time.Duration {
	used := that.Used[color]
	if color == that.Running && !that.Since.IsZero() && now.After(that.Since) {
		used += now.Sub(that.Since)
	}

	remaining := that.Limit - used
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Expired returns the color whose bank ran out, if any.
func (that *Clock) Expired(now time.Time) (Color, bool) {
	if that.Limit <= 0 || that.Since.IsZero() {
		return White, false
	}
	if that.Remaining(that.Running, now) == 0 {
		return that.Running, true
	}
	return White, false
}

func (that *Clock) reset() {
	that.Used = [2]time.Duration{}
	that.Running = White
	that.Since = time.Time{}
}
