package client

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/gophstore/internal/catalog"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRejected     = errors.New("request rejected")
)

// RejectedError is a 4xx answer from the backend.
type RejectedError struct {
	Status  int
	Message string
	Fields  []catalog.FieldError
}

func (e *RejectedError) Error() string {
	var b strings.Builder
	b.WriteString(ErrRejected.Error())
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	for _, f := range e.Fields {
		b.WriteString("; " + f.Field + " " + f.Reason)
	}
	return b.String()
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}
