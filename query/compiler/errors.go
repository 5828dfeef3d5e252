package compiler

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedQuery  = errors.New("unsupported query")
	ErrInvalidQuery      = errors.New("invalid query")
	ErrCompilationFailed = errors.New("query compilation failed")
)

// DecodeError reports a value whose embedded text could not be decoded,
// such as malformed JSON or WKT.
type DecodeError struct {
	Field string
	Kind  string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s value for field %s: %v", e.Kind, e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is makes every DecodeError match ErrCompilationFailed.
func (e *DecodeError) Is(target error) bool {
	return target == ErrCompilationFailed
}
