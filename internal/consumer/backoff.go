package consumer

import "time"

// backoff is a bounded doubling delay for transient infrastructure
// failures. Not safe for concurrent use; each worker owns one.
type backoff struct {
	min     time.Duration
	max     time.Duration
	current time.Duration
}

func newBackoff(min, max time.Duration) *backoff {
	return &backoff{min: min, max: max, current: min}
}

// Next returns the delay to wait now and doubles the stored delay up
// to the cap.
func (b *backoff) Next() time.Duration {
	d := b.current

	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}

	return d
}

func (b *backoff) Reset() {
	b.current = b.min
}
