package store

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateFeed = errors.New("feed already exists")
	ErrInvalidFeed   = errors.New("invalid RSS feed")
	ErrNotFound      = errors.New("not found")
)

// StoreError reports a failure to read or write a durable document.
type StoreError struct {
	Op   string
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
