package gdp

import "errors"

// Error kinds, every error returned by a pipeline stage wraps exactly one of
// these so that callers can tell how far a run got with errors.Is.
var (
	// ErrNetwork means the source page could not be fetched.
	ErrNetwork = errors.New("network")
	// ErrStructure means the page did not have the expected table/row/cell layout.
	ErrStructure = errors.New("unexpected document structure")
	// ErrParse means a GDP figure was not numeric after removing separators.
	ErrParse = errors.New("parse")
	// ErrStorage means writing the csv file, the log or the database failed.
	ErrStorage = errors.New("storage")
)
