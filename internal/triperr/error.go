// Package triperr defines the closed error taxonomy shared across the
// criticality engine. The engine packages (breadcrumb, chain, psd, levy,
// criticality, certificate, activeverify, schemavalidation, auditlog)
// return one of these kinds rather than an ad-hoc error string, so callers
// can switch on Kind instead of matching message text; the ambient config,
// logging and signer packages return plain errors.
package triperr

import "fmt"

// Kind enumerates the engine's error taxonomy. It is a closed set: callers
// may safely exhaustively switch over it.
type Kind int

const (
	// KindChainIntegrity covers any §4.1 invariant violation.
	KindChainIntegrity Kind = iota
	KindSignatureInvalid
	KindInsufficientBreadcrumbs
	KindPsdError
	KindLevyFitError
	KindInvalidH3Cell
	KindNonceMismatch
	KindDeadlineExpired
	KindCertificateError
	KindDeserializeError
)

func (k Kind) String() string {
	switch k {
	case KindChainIntegrity:
		return "chain_integrity"
	case KindSignatureInvalid:
		return "signature_invalid"
	case KindInsufficientBreadcrumbs:
		return "insufficient_breadcrumbs"
	case KindPsdError:
		return "psd_error"
	case KindLevyFitError:
		return "levy_fit_error"
	case KindInvalidH3Cell:
		return "invalid_h3_cell"
	case KindNonceMismatch:
		return "nonce_mismatch"
	case KindDeadlineExpired:
		return "deadline_expired"
	case KindCertificateError:
		return "certificate_error"
	case KindDeserializeError:
		return "deserialize_error"
	default:
		return "unknown"
	}
}

// Error is the engine's single error type. It carries a closed Kind plus
// free-form context, the Go analogue of a thiserror enum: one struct with a
// discriminant field instead of a type per variant.
type Error struct {
	Kind    Kind
	Message string
	Index   int // breadcrumb index, -1 when not applicable
	Got     int // for InsufficientBreadcrumbs
	Need    int
	Cell    string // for InvalidH3Cell
	wrapped error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindSignatureInvalid:
		return fmt.Sprintf("signature invalid at breadcrumb %d", e.Index)
	case KindInsufficientBreadcrumbs:
		return fmt.Sprintf("insufficient breadcrumbs: got %d, need %d", e.Got, e.Need)
	case KindInvalidH3Cell:
		return fmt.Sprintf("invalid H3 cell %q", e.Cell)
	case KindNonceMismatch:
		return "nonce mismatch"
	case KindDeadlineExpired:
		return "response deadline expired"
	default:
		if e.Message != "" {
			return fmt.Sprintf("%s: %s", e.Kind, e.Message)
		}
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.wrapped }

// Is implements errors.Is against a Kind-tagged sentinel built with New(kind).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Index: -1}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Index: -1, wrapped: err}
}

func ChainIntegrity(format string, args ...any) *Error {
	return New(KindChainIntegrity, fmt.Sprintf(format, args...))
}

func SignatureInvalid(index int) *Error {
	return &Error{Kind: KindSignatureInvalid, Index: index}
}

func InsufficientBreadcrumbs(got, need int) *Error {
	return &Error{Kind: KindInsufficientBreadcrumbs, Got: got, Need: need, Index: -1}
}

func PsdError(format string, args ...any) *Error {
	return New(KindPsdError, fmt.Sprintf(format, args...))
}

func LevyFitError(format string, args ...any) *Error {
	return New(KindLevyFitError, fmt.Sprintf(format, args...))
}

func InvalidH3Cell(cell string) *Error {
	return &Error{Kind: KindInvalidH3Cell, Cell: cell, Index: -1}
}

func NonceMismatch() *Error {
	return &Error{Kind: KindNonceMismatch, Index: -1}
}

func DeadlineExpired() *Error {
	return &Error{Kind: KindDeadlineExpired, Index: -1}
}

func CertificateError(format string, args ...any) *Error {
	return New(KindCertificateError, fmt.Sprintf(format, args...))
}

func DeserializeError(format string, args ...any) *Error {
	return New(KindDeserializeError, fmt.Sprintf(format, args...))
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if te, ok := err.(*Error); ok {
			e = te
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}
