package recipients

import "errors"

var (
	// ErrFileDecode is returned when an uploaded file cannot be read or
	// decoded. Callers must leave previously extracted recipients untouched.
	ErrFileDecode = errors.New("file could not be decoded")

	// ErrUnsupportedFile is returned for files that are neither CSV nor a
	// spreadsheet.
	ErrUnsupportedFile = errors.New("unsupported recipient file type")
)
