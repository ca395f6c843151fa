package hal

import (
	"context"
	"time"
)

// WatchErrors checks l.Err every period and calls report whenever the error
// text changes, including a change back to nil. It returns when ctx is done.
func WatchErrors(ctx context.Context, l *Lines, every time.Duration, report func(error)) {
	t := time.NewTicker(every)
	defer t.Stop()
	var last string
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		err := l.Err()
		if cur := errText(err); cur != last {
			last = cur
			report(err)
		}
	}
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
