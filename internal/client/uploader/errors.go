package uploader

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/dmitrijs2005/gophstore/internal/catalog"
	"github.com/dmitrijs2005/gophstore/internal/client/authz"
)

// Kind is the closed set of upload failure classes.
type Kind int

const (
	KindUnclassified Kind = iota
	KindAuthFailure
	KindAborted
	KindInvalidRequest
	KindNetwork
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindAuthFailure:
		return "AuthFailure"
	case KindAborted:
		return "Aborted"
	case KindInvalidRequest:
		return "InvalidRequest"
	case KindNetwork:
		return "NetworkError"
	case KindServer:
		return "ServerError"
	default:
		return "Unclassified"
	}
}

// Retryable reports whether another try with a fresh credential may succeed.
func (k Kind) Retryable() bool {
	return k == KindNetwork || k == KindServer
}

var (
	ErrCredentialExpired = errors.New("upload credential expired")
	ErrMissingURL        = errors.New("asset store response has no url")
)

// StatusError carries a non-2xx response from the asset store.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("asset store: %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("asset store: %d %s: %s", e.Code, http.StatusText(e.Code), e.Body)
}

// Error is the failure of one upload attempt. Err keeps the raw cause.
type Error struct {
	Kind  Kind
	Index int
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("asset %d: %s: %v", e.Index, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Classify wraps err in an *Error. An err that already is one keeps its kind
// and only takes the index.
func Classify(index int, err error) *Error {
	if err == nil {
		return nil
	}
	var ue *Error
	if errors.As(err, &ue) {
		return &Error{Kind: ue.Kind, Index: index, Err: ue.Err}
	}
	return &Error{Kind: KindOf(err), Index: index, Err: err}
}

// KindOf maps a raw error to its failure class.
func KindOf(err error) Kind {
	var ue *Error
	var se *StatusError
	var ne net.Error
	switch {
	case err == nil:
		return KindUnclassified
	case errors.As(err, &ue):
		return ue.Kind
	case errors.Is(err, context.Canceled):
		return KindAborted
	case errors.Is(err, authz.ErrAuthFailure):
		return KindAuthFailure
	case errors.Is(err, ErrCredentialExpired), errors.Is(err, catalog.ErrMalformedCredential):
		return KindInvalidRequest
	case errors.As(err, &se):
		return kindOfStatus(se.Code)
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne):
		return KindNetwork
	default:
		return KindUnclassified
	}
}

func kindOfStatus(code int) Kind {
	switch {
	case code == http.StatusRequestTimeout:
		return KindNetwork
	case code == http.StatusTooManyRequests:
		return KindServer
	case code >= 500:
		return KindServer
	case code >= 400:
		return KindInvalidRequest
	default:
		return KindUnclassified
	}
}
