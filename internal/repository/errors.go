package repository

import "errors"

// ErrNotFound is returned by Update and SoftDelete when no live row matched
var ErrNotFound = errors.New("record not found or already deleted")

// ErrVersionConflict is returned by FocusStore.Save when the stored version moved on
var ErrVersionConflict = errors.New("version conflict")
