package domain

import "errors"

var (
	// ErrStorageFailure wraps any blob or metadata read/write failure
	// (quota exceeded, store unavailable).
	ErrStorageFailure = errors.New("storage failure")
	// ErrMissingBlob means an image reference does not resolve.
	// Callers treat it as "no image".
	ErrMissingBlob = errors.New("missing blob")
	// ErrInvalidBackupFormat aborts an import before any state is touched.
	ErrInvalidBackupFormat = errors.New("invalid backup format")
	// ErrBusy rejects an export while another export of the same folder runs.
	ErrBusy = errors.New("export already in progress")

	ErrFolderNotFound   = errors.New("folder not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrNoImage          = errors.New("question has no image")
	ErrUnsupportedImage = errors.New("unsupported image type")
	// ErrEmptyFolder means there is nothing to export.
	ErrEmptyFolder = errors.New("folder has no questions")
)
