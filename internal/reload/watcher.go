// Package reload detects configuration file changes by polling.
package reload

import (
	"context"
	"os"
	"time"
)

// DefaultPollInterval is used when Watch is given a non-positive interval.
const DefaultPollInterval = 5 * time.Second

// fileState is what a poll compares. Size catches rewrites that land within
// the filesystem's mtime resolution.
type fileState struct {
	modTime time.Time
	size    int64
}

func stat(path string) (fileState, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}, false
	}
	return fileState{modTime: info.ModTime(), size: info.Size()}, true
}

// Watch polls path every interval and signals on the returned channel when
// its modification time or size changes. Signals coalesce: a pending one is
// not duplicated. A missing or unreadable file is skipped until it
// reappears. The channel is closed once ctx is done.
func Watch(ctx context.Context, path string, interval time.Duration) <-chan struct{} {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	changes := make(chan struct{}, 1)
	last, _ := stat(path)

	go func() {
		defer close(changes)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				current, ok := stat(path)
				if !ok || current == last {
					continue
				}
				last = current
				select {
				case changes <- struct{}{}:
				default:
				}
			}
		}
	}()

	return changes
}
