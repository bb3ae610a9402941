package jsonfeed

import (
	"errors"
	"strings"
)

var (
	ErrMissingField     = errors.New("missing required field")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrAuthorIncomplete = errors.New("at least one member required")
)

// DecodeError reports where in the document decoding stopped and why.
// Err is always one of ErrMissingField, ErrTypeMismatch or ErrAuthorIncomplete.
type DecodeError struct {
	Path   string // e.g. "items[2].author.url", empty for the document root
	Err    error
	Detail string
	Cause  error
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString("jsonfeed: ")
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString(e.Err.Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *DecodeError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// Code returns a stable machine-readable name for the error kind.
func (e *DecodeError) Code() string {
	switch e.Err {
	case ErrMissingField:
		return "missing_required_field"
	case ErrTypeMismatch:
		return "type_mismatch"
	case ErrAuthorIncomplete:
		return "author_incomplete"
	default:
		return "unknown"
	}
}

func IsMissingField(err error) bool {
	return errors.Is(err, ErrMissingField)
}

func IsTypeMismatch(err error) bool {
	return errors.Is(err, ErrTypeMismatch)
}

func IsAuthorIncomplete(err error) bool {
	return errors.Is(err, ErrAuthorIncomplete)
}

func missingField(path string) error {
	return &DecodeError{Path: path, Err: ErrMissingField}
}

func typeMismatch(path, detail string, cause error) error {
	return &DecodeError{Path: path, Err: ErrTypeMismatch, Detail: detail, Cause: cause}
}

func authorIncomplete(path string) error {
	return &DecodeError{Path: path, Err: ErrAuthorIncomplete, Detail: "name, url or avatar"}
}
