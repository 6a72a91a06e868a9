package nem12

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat matches every structural or field validation failure.
	ErrFormat = errors.New("invalid nem12 file")
	// ErrIO matches read failures of the underlying source.
	ErrIO = errors.New("nem12 read failed")
)

// Format error kinds. A *FormatError matches ErrFormat and exactly one of these.
var (
	ErrFraming     = errors.New("bad file framing")
	ErrMissingData = errors.New("missing data")
	ErrNMILength   = errors.New("invalid NMI length")
	ErrRecordType  = errors.New("invalid record type")
	ErrEnum        = errors.New("invalid enumerated value")
	ErrDate        = errors.New("invalid date")
	ErrNumber      = errors.New("invalid number")
)

// FormatError describes the first violation found in a file.
type FormatError struct {
	Line int // 1-based; 0 when the failure is not tied to a line
	Kind error
	Msg  string
	Err  error // underlying cause, if any
}

func (e *FormatError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return "nem12: " + msg
}

func (e *FormatError) Unwrap() []error {
	errs := []error{ErrFormat, e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func formatErr(line int, kind error, format string, args ...any) *FormatError {
	return &FormatError{Line: line, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
