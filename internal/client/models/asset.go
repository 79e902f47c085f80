// Package models holds client-side types that never leave the process.
package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/dmitrijs2005/gophstore/internal/catalog"
)

// AcceptedMediaType is the only media type the asset store takes.
const AcceptedMediaType = catalog.AssetMediaType

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrEmptyAsset           = errors.New("empty asset")
)

// Asset is a selected local file. It is immutable once created; Index is
// assigned by the batch coordinator.
type Asset struct {
	Index     int
	FileName  string
	MediaType string
	Data      []byte
	Checksum  string
}

// NewAsset sniffs data and accepts it only when it is AcceptedMediaType.
func NewAsset(fileName string, data []byte) (Asset, error) {
	if len(data) == 0 {
		return Asset{}, fmt.Errorf("%s: %w", fileName, ErrEmptyAsset)
	}
	mt := mimetype.Detect(data)
	if !mt.Is(AcceptedMediaType) {
		return Asset{}, fmt.Errorf("%s: %w: %s", fileName, ErrUnsupportedMediaType, mt.String())
	}
	return Asset{
		FileName:  fileName,
		MediaType: AcceptedMediaType,
		Data:      data,
		Checksum:  catalog.Checksum(data),
	}, nil
}

// LoadAsset reads path from disk and validates it with NewAsset.
func LoadAsset(path string) (Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Asset{}, fmt.Errorf("read %s: %w", path, err)
	}
	return NewAsset(filepath.Base(path), data)
}

// Size returns the payload length in bytes.
func (a Asset) Size() int {
	return len(a.Data)
}
