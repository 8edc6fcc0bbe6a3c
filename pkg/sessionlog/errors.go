package sessionlog

import "errors"

var (
	// ErrInvalidOffset is returned when a negative write offset is supplied.
	ErrInvalidOffset = errors.New("invalid offset: must be >= 0")

	// ErrEmptyRecord is returned when Append is called with no data.
	ErrEmptyRecord = errors.New("empty record")

	// ErrShortWrite is returned when the medium accepts fewer bytes than requested.
	ErrShortWrite = errors.New("short write")

	// ErrMalformedRecord is returned when a line is not a valid record.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrFileTooLarge is returned when a session file exceeds MaxFileSize.
	ErrFileTooLarge = errors.New("file size exceeds maximum limit")

	// ErrInvalidPattern is returned when a file pattern lacks a single %d verb.
	ErrInvalidPattern = errors.New("invalid file pattern: must contain exactly one %d")
)
