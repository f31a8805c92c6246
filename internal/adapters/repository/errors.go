package repository

import "errors"

// Sentinel kinds for feedback store errors.
var (
	ErrNotFound     = errors.New("feedback event not found")
	ErrDuplicateID  = errors.New("feedback event id already exists")
	ErrInvalidLimit = errors.New("invalid list limit")
)
