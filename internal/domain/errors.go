package domain

import "errors"

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrNotPersisted = errors.New("task has no id yet")
	ErrUnknownMood  = errors.New("unknown mood")
	ErrStoreWrite   = errors.New("task store write failed")
)
