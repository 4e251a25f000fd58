package clip

import (
	"context"
	"fmt"
)

// memoryBackend is an in-process clipboard. It holds every format with full
// fidelity and is used on headless hosts (containers, CI) and in tests.
type memoryBackend struct {
	values map[Format]Content
	notify *notifier
}

// NewMemory returns an empty in-process clipboard.
func NewMemory() Backend {
	return &memoryBackend{
		values: make(map[Format]Content),
		notify: newNotifier(),
	}
}

func (b *memoryBackend) Name() string { return "headless (in-memory)" }

func (b *memoryBackend) Has(f Format) (bool, error) {
	_, ok := b.values[f]
	return ok, nil
}

func (b *memoryBackend) Read(formats ...Format) ([]Content, error) {
	var out []Content
	for _, f := range formats {
		if v, ok := b.values[f]; ok {
			out = append(out, Clone(v))
		}
	}
	return out, nil
}

func (b *memoryBackend) Write(values ...Content) error {
	next := make(map[Format]Content, len(values))
	for _, v := range values {
		if v == nil {
			return fmt.Errorf("%w: nil content", ErrUnsupported)
		}
		next[v.Format()] = Clone(v)
	}
	b.values = next
	b.notify.signal()
	return nil
}

func (b *memoryBackend) Clear() error {
	b.values = make(map[Format]Content)
	b.notify.signal()
	return nil
}

func (b *memoryBackend) Watch(ctx context.Context) (<-chan struct{}, error) {
	return b.notify.subscribe(ctx), nil
}

func (b *memoryBackend) Close() {}
