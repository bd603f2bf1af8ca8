package domain

import "errors"

var (
	// ErrSourceNotFound means a requested source directory does not exist.
	// It aborts the whole load.
	ErrSourceNotFound = errors.New("source directory not found")

	// ErrNoData means no row survived parsing and filtering across all
	// requested sources. It aborts the whole load.
	ErrNoData = errors.New("no profiles loaded")

	// ErrInsufficientPoints rejects one profile after direction filtering.
	ErrInsufficientPoints = errors.New("insufficient points after direction filtering")

	// ErrMissingColumns means a file lacks one of the required measurement columns.
	ErrMissingColumns = errors.New("missing required columns")

	// ErrUnusableFilename means no profile number could be derived from a file name.
	ErrUnusableFilename = errors.New("unusable filename")
)
