// Package products is the record store and reference data source, backed by
// PostgreSQL.
package products

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophstore/internal/catalog"
)

var (
	ErrSlugTaken        = errors.New("slug already taken")
	ErrUnknownReference = errors.New("unknown reference")
)

// ReferenceError names the category or collection that does not exist.
type ReferenceError struct {
	Field string
	ID    string
}

func (e *ReferenceError) Error() string {
	return ErrUnknownReference.Error() + ": " + e.Field + " " + e.ID
}

func (e *ReferenceError) Is(target error) bool {
	return target == ErrUnknownReference
}

type Repository interface {
	Create(ctx context.Context, p catalog.Product) (string, error)
	Categories(ctx context.Context) ([]catalog.Reference, error)
	Collections(ctx context.Context) ([]catalog.Reference, error)
}
