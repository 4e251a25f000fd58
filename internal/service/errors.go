package service

import (
	"errors"

	"go.klb.dev/clipnext/internal/imagecache"
	"go.klb.dev/clipnext/internal/store"
	"go.klb.dev/clipnext/internal/watch"
)

// Error kinds surfaced by Service operations. Every failure is scoped to one
// call; none are retried.
var (
	// ErrFormatNotPresent means the requested format is not on the clipboard.
	ErrFormatNotPresent = errors.New("format not present on clipboard")
	// ErrInvalidPath means a path cannot be represented by the filesystem layer.
	ErrInvalidPath = imagecache.ErrInvalidPath
	// ErrIO wraps filesystem and codec failures.
	ErrIO = imagecache.ErrIO
	// ErrWatcherInit means the change watcher could not be started.
	ErrWatcherInit = watch.ErrInit
)

// AccessError is a failure reported by the native clipboard backend.
type AccessError = store.AccessError
