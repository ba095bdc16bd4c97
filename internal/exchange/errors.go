package exchange

import (
	"errors"
	"fmt"
)

// Kind classifies why a run failed
type Kind int

const (
	KindUnexpected Kind = iota
	KindAuthBadStatus
	KindAuthRejected
	KindAuthMissingSession
	KindInitRejected
	KindUploadRejected
	KindManifestUnreadable
	KindImportRejected
	KindImportTransportError
)

func (k Kind) String() string {
	switch k {
	case KindAuthBadStatus:
		return "AuthBadStatus"
	case KindAuthRejected:
		return "AuthRejected"
	case KindAuthMissingSession:
		return "AuthMissingSession"
	case KindInitRejected:
		return "InitRejected"
	case KindUploadRejected:
		return "UploadRejected"
	case KindManifestUnreadable:
		return "ManifestUnreadable"
	case KindImportRejected:
		return "ImportRejected"
	case KindImportTransportError:
		return "ImportTransportError"
	default:
		return "UnexpectedTransportOrIOError"
	}
}

// Error is a classified run failure. Raw holds the server reply that caused it, if any.
type Error struct {
	Kind       Kind
	Filename   string
	StatusCode int
	Raw        string
	Err        error
}

// Sentinels for errors.Is; matching compares Kind only.
var (
	ErrUnexpected           = &Error{Kind: KindUnexpected}
	ErrAuthBadStatus        = &Error{Kind: KindAuthBadStatus}
	ErrAuthRejected         = &Error{Kind: KindAuthRejected}
	ErrAuthMissingSession   = &Error{Kind: KindAuthMissingSession}
	ErrInitRejected         = &Error{Kind: KindInitRejected}
	ErrUploadRejected       = &Error{Kind: KindUploadRejected}
	ErrManifestUnreadable   = &Error{Kind: KindManifestUnreadable}
	ErrImportRejected       = &Error{Kind: KindImportRejected}
	ErrImportTransportError = &Error{Kind: KindImportTransportError}
)

var errCancelled = errors.New("cancelled")

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Filename != "" {
		msg += " (" + e.Filename + ")"
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Raw != "" {
		msg += ": " + e.Raw
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the classification of err, or false if it is not an *Error
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
