// Package store owns the process-wide clipboard handle. The backend is
// opened lazily, exactly once, and every call into it runs under one
// mutex: native clipboard APIs are not reentrant.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.klb.dev/clipnext/internal/clip"
)

// OpenFunc constructs the backend on first use.
type OpenFunc func() (clip.Backend, error)

// AccessError is a failure reported by the clipboard backend.
type AccessError struct {
	Op  string
	Err error
}

func (e *AccessError) Error() string { return fmt.Sprintf("clipboard %s: %v", e.Op, e.Err) }
func (e *AccessError) Unwrap() error { return e.Err }

// Store serialises access to a single clipboard backend.
type Store struct {
	open OpenFunc

	once    sync.Once
	backend clip.Backend
	openErr error

	mu sync.Mutex
}

// New returns a Store that will call open on first use. A failed open is
// remembered; the backend is never reinitialised.
func New(open OpenFunc) *Store {
	return &Store{open: open}
}

func (s *Store) get() (clip.Backend, error) {
	s.once.Do(func() {
		s.backend, s.openErr = s.open()
		if s.openErr != nil {
			slog.Error("clipboard backend init failed", "err", s.openErr)
			return
		}
		slog.Info("clipboard backend", "name", s.backend.Name())
	})
	if s.openErr != nil {
		return nil, &AccessError{Op: "open", Err: s.openErr}
	}
	return s.backend, nil
}

// FormatPresent reports whether the clipboard holds format f.
func (s *Store) FormatPresent(f clip.Format) (bool, error) {
	b, err := s.get()
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ok, err := b.Has(f)
	if err != nil {
		return false, &AccessError{Op: "has " + f.String(), Err: err}
	}
	return ok, nil
}

// Contents returns the values present for formats, in the order requested.
func (s *Store) Contents(formats ...clip.Format) ([]clip.Content, error) {
	b, err := s.get()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := b.Read(formats...)
	if err != nil {
		return nil, &AccessError{Op: "read", Err: err}
	}
	return values, nil
}

// SetContents replaces the clipboard with values in a single backend call.
func (s *Store) SetContents(values ...clip.Content) error {
	b, err := s.get()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := b.Write(values...); err != nil {
		return &AccessError{Op: "write", Err: err}
	}
	return nil
}

// Clear empties the clipboard.
func (s *Store) Clear() error {
	b, err := s.get()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := b.Clear(); err != nil {
		return &AccessError{Op: "clear", Err: err}
	}
	return nil
}

// Watch subscribes to backend change notifications. The lock is held only
// while subscribing, never while the caller waits on the channel.
func (s *Store) Watch(ctx context.Context) (<-chan struct{}, error) {
	b, err := s.get()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, err := b.Watch(ctx)
	if err != nil {
		return nil, &AccessError{Op: "watch", Err: err}
	}
	return ch, nil
}

// Close releases the backend if it was opened. A Store that was never used
// will not open one afterwards.
func (s *Store) Close() {
	s.once.Do(func() { s.openErr = clip.ErrUnavailable })
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backend != nil {
		s.backend.Close()
	}
}
