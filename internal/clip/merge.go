package clip

import "sync"

// merge fans srcs into one coalescing wake-up channel. A value from a
// source is forwarded only when accept (if non-nil) returns true. Every
// source is drained until it is closed, even when nobody reads the
// result, so a sender blocked on its channel always completes. The result
// is closed once all sources are.
func merge[T any](accept func() bool, srcs ...<-chan T) <-chan struct{} {
	out := make(chan struct{}, 1)
	var wg sync.WaitGroup
	for _, src := range srcs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range src {
				if accept != nil && !accept() {
					continue
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
