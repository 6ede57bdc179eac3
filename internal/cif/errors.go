package cif

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDataBlock is returned when a file has no data_ block.
	ErrNoDataBlock = errors.New("no data block")
	// ErrMissingTag is returned when a required tag is absent or unknown.
	ErrMissingTag = errors.New("missing required tag")
	// ErrBadNumber is returned when a numeric tag cannot be parsed.
	ErrBadNumber = errors.New("invalid number")
	// ErrBadSymmetry is returned for symmetry operators that cannot be parsed.
	ErrBadSymmetry = errors.New("invalid symmetry operator")
	// ErrSyntax is returned for token sequences that are not valid CIF.
	ErrSyntax = errors.New("syntax error")
	// ErrFileTooLarge is returned when a file exceeds Options.MaxFileSize.
	ErrFileTooLarge = errors.New("file too large")
)

// ParseError reports a file that could not be read or understood. Line is
// 1-based and zero when the error is not tied to a position in the file.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("cif: %s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("cif: %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// lineError carries a line number up to the point where the path is known.
type lineError struct {
	line int
	err  error
}

func (e *lineError) Error() string { return fmt.Sprintf("line %d: %v", e.line, e.err) }
func (e *lineError) Unwrap() error { return e.err }

func errorAt(line int, base error, format string, args ...interface{}) error {
	return &lineError{line: line, err: fmt.Errorf("%w: "+format, append([]interface{}{base}, args...)...)}
}

// wrapParseError converts any error into a *ParseError for path.
func wrapParseError(path string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe
	}
	var le *lineError
	if errors.As(err, &le) {
		return &ParseError{Path: path, Line: le.line, Err: le.err}
	}
	return &ParseError{Path: path, Err: err}
}
