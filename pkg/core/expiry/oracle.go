// Package expiry judges whether a voucher is still active. A voucher with an
// expiry date is valid through the end of that calendar day; the authoritative
// "now" comes from an external time source so a recipient cannot un-expire a
// voucher by winding their device clock back.
package expiry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sibincbaby/vouchzy/pkg/core/domain"
	"github.com/sibincbaby/vouchzy/pkg/ports"
)

// CacheTTL bounds calls to the external time source; between fetches the
// cached instant is extrapolated forward by elapsed wall-clock time.
const CacheTTL = time.Minute

// RefreshInterval is how often a displayed voucher is re-evaluated so a
// boundary crossing shows up without a reload.
const RefreshInterval = time.Minute

// Status is the oracle's judgment for one voucher at one instant.
type Status struct {
	Expired   bool   `json:"expired"`
	Remaining string `json:"remaining"`
	// Verified is false when the judgment fell back to the local clock.
	Verified bool `json:"verified"`
}

// EndOfDay returns the last instant of the given calendar day (23:59:59.999)
// in loc. The voucher stays active through this instant.
func EndOfDay(date string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(domain.DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse expiry date %q: %w", date, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 999_000_000, loc), nil
}

// IsExpired reports whether now is strictly past the end of the expiry day.
// The boundary instant itself is not expired. An empty or unparseable date
// never expires.
func IsExpired(date string, now time.Time) bool {
	if date == "" {
		return false
	}
	eod, err := EndOfDay(date, now.Location())
	if err != nil {
		return false
	}
	return now.After(eod)
}

// TimeRemaining renders the time left until expiry using the largest two
// applicable units of days, hours and minutes: "2d 3h remaining",
// "5h 12m remaining", "42m remaining". Past the boundary it is "Expired".
func TimeRemaining(date string, now time.Time) string {
	if date == "" {
		return ""
	}
	eod, err := EndOfDay(date, now.Location())
	if err != nil {
		return ""
	}
	if now.After(eod) {
		return "Expired"
	}

	left := eod.Sub(now)
	days := int(left / (24 * time.Hour))
	hours := int(left/time.Hour) % 24
	minutes := int(left/time.Minute) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh remaining", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm remaining", hours, minutes)
	default:
		return fmt.Sprintf("%dm remaining", minutes)
	}
}

// Oracle resolves the authoritative current instant, caching the external
// time source's answer and degrading to the local clock when it is
// unreachable.
type Oracle struct {
	source ports.TimeSource
	ttl    time.Duration

	mu        sync.Mutex
	cached    time.Time
	fetchedAt time.Time
}

func NewOracle(source ports.TimeSource) *Oracle {
	return &Oracle{source: source, ttl: CacheTTL}
}

// Now returns the authoritative instant and whether it was externally
// verified. Failures are silent: the local clock answer is correct, merely
// less trustworthy.
func (o *Oracle) Now(ctx context.Context) (time.Time, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.fetchedAt.IsZero() {
		if elapsed := time.Since(o.fetchedAt); elapsed < o.ttl {
			return o.cached.Add(elapsed), true
		}
	}

	if o.source != nil {
		if t, err := o.source.Now(ctx); err == nil {
			o.cached = t
			o.fetchedAt = time.Now()
			return t, true
		}
	}
	return time.Now(), false
}

// Status judges a voucher's expiry date against the authoritative instant.
func (o *Oracle) Status(ctx context.Context, date string) Status {
	now, verified := o.Now(ctx)
	// Expiry days are calendar-local to the viewer.
	now = now.Local()
	return Status{
		Expired:   IsExpired(date, now),
		Remaining: TimeRemaining(date, now),
		Verified:  verified,
	}
}

// Watch re-evaluates a voucher's status on RefreshInterval while it is being
// viewed. The channel closes when ctx is cancelled, so navigating away tears
// the timer down.
func (o *Oracle) Watch(ctx context.Context, date string) <-chan Status {
	ch := make(chan Status, 1)
	ch <- o.Status(ctx, date)

	go func() {
		defer close(ch)
		ticker := time.NewTicker(RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case ch <- o.Status(ctx, date):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch
}
