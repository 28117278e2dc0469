package apperr

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrUnrecognizedExpression marks a temporal expression that matches
	// no rule of the resolver grammar.
	ErrUnrecognizedExpression = errors.New("unrecognized temporal expression")

	// ErrMalformedRecord marks a record file missing required structure:
	// no level-1 heading, no yaml code block, no event key, or a filename
	// that does not follow the <timestamp>-<type> pattern.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrUnknownExtension marks a record file that is neither .yaml nor .md.
	ErrUnknownExtension = errors.New("unknown file extension")
)
