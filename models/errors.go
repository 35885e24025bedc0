package models

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrorKind is the closed set of failure classes the agent distinguishes.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindSpecFormat
	KindVersionUnsupported
	KindMissingSection
	KindPortFormat
	KindVolumeFormat
	KindInit
	KindRuntimeOperation
	KindTransport
	KindProtocol
)

func (k ErrorKind) String() string {
	switch k {
	case KindSpecFormat:
		return "SpecFormatError"
	case KindVersionUnsupported:
		return "VersionUnsupportedError"
	case KindMissingSection:
		return "MissingSectionError"
	case KindPortFormat:
		return "PortFormatError"
	case KindVolumeFormat:
		return "VolumeFormatError"
	case KindInit:
		return "InitError"
	case KindRuntimeOperation:
		return "RuntimeOperationError"
	case KindTransport:
		return "TransportError"
	case KindProtocol:
		return "ProtocolError"
	default:
		return "UnknownError"
	}
}

// Fatal reports whether the kind must stop the agent instead of being retried.
func (k ErrorKind) Fatal() bool {
	return k == KindInit
}

// Error is a failure tagged with its kind.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a kind-tagged error from a format string.
func NewError(kind ErrorKind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapError tags err with kind. A nil err stays nil.
func WrapError(kind ErrorKind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the outermost tagged error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries kind anywhere in its chain.
func IsKind(err error, kind ErrorKind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}
