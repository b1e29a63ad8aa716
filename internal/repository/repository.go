// Package repository holds storage-level sentinel errors shared by all backends.
package repository

import "errors"

var (
	// ErrWatcherNotFound is returned when no watcher matches the requested id or URL.
	ErrWatcherNotFound = errors.New("watcher not found")
	// ErrChangeNotFound is returned when no change matches the requested id.
	ErrChangeNotFound = errors.New("change not found")
)
