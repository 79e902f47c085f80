// Package api contains the HTTP routes and wire types shared by the gophstore
// server and its client.
package api

import "github.com/dmitrijs2005/gophstore/internal/catalog"

// Routes served by the backend.
const (
	UploadAuthPath  = "/api/v1/upload-auth"
	UploadPath      = "/api/v1/files/upload"
	ProductsPath    = "/api/v1/products"
	CategoriesPath  = "/api/v1/categories"
	CollectionsPath = "/api/v1/collections"
	MetricsPath     = "/metrics"
)

// Multipart field names of an upload request.
const (
	FieldFile              = "file"
	FieldFileName          = "fileName"
	FieldFolder            = "folder"
	FieldUseUniqueFileName = "useUniqueFileName"
	FieldChecksum          = "checksum"
	FieldSignature         = "signature"
	FieldExpire            = "expire"
	FieldToken             = "token"
	FieldPublicKey         = "publicKey"
)

// UploadResponse is returned by the asset store. URL is mandatory; a
// response without it is a failed upload.
type UploadResponse struct {
	URL    string `json:"url"`
	FileID string `json:"fileId"`
	Name   string `json:"name"`
}

// CreateProductResponse is returned by the record store on success.
type CreateProductResponse struct {
	ID string `json:"id"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  string               `json:"error"`
	Fields []catalog.FieldError `json:"fields,omitempty"`
}
