package importer

import "errors"

var (
	// ErrUnreadableDocument means the upload could not be read as its declared format.
	ErrUnreadableDocument = errors.New("unreadable document")
	// ErrNoTable means no page of a document held a detectable transaction table.
	ErrNoTable = errors.New("no table found in document")
	// ErrSchemaMismatch means the table does not carry the expected columns.
	ErrSchemaMismatch = errors.New("unexpected table columns")
	// ErrBadDateColumn means the date column could not be interpreted as dates.
	ErrBadDateColumn = errors.New("date column could not be parsed")
	// ErrUnsupportedFormat means no parser is registered for the upload's format.
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// IsUserError reports whether err stems from the uploaded content rather than from
// the program or its environment.
func IsUserError(err error) bool {
	for _, target := range []error{ErrUnreadableDocument, ErrNoTable, ErrSchemaMismatch, ErrBadDateColumn, ErrUnsupportedFormat} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
