package watch

import (
	"context"
	"sort"
	"time"
)

// Debounce calls fn once per burst of changes: every change restarts a
// quiet window, and fn runs when the window elapses with no further
// change. fn receives the distinct paths of the burst, sorted.
//
// fn runs on the Debounce goroutine, so calls never overlap; changes that
// arrive while fn is running start the next burst. Debounce returns when
// ctx is cancelled or changes is closed.
func Debounce(ctx context.Context, changes <-chan string, window time.Duration, fn func(changed []string)) {
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}

	var (
		pending = make(map[string]struct{})
		timerC  <-chan time.Time
	)

	reset := func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(window)
		timerC = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case path, ok := <-changes:
			if !ok {
				timer.Stop()
				return
			}
			pending[path] = struct{}{}
			reset()

		case <-timerC:
			timerC = nil
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			pending = make(map[string]struct{})
			fn(batch)
		}
	}
}
