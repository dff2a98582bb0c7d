package core

import "errors"

var (
	// ErrInvalidInput is returned when a message source has an unsupported
	// top-level shape (not a string, map, or list of maps).
	ErrInvalidInput = errors.New("natsflow: unsupported message source shape")

	// ErrEmptyInput is returned when a message source resolves to zero records.
	ErrEmptyInput = errors.New("natsflow: message source is empty")

	// ErrNotAMap is returned when a list element or stored record is not a map.
	ErrNotAMap = errors.New("natsflow: record is not a map")

	// ErrEmptySubject is returned when a subject renders to an empty string.
	ErrEmptySubject = errors.New("natsflow: subject is empty")
)
