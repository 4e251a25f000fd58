//go:build !darwin && !windows && !linux

package clip

// NewSystem reports that no OS clipboard exists on this platform; Open
// falls back to the in-memory backend.
func NewSystem() (Backend, error) {
	return nil, ErrUnavailable
}
