package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/dmitrijs2005/gophstore/internal/api"
	"github.com/dmitrijs2005/gophstore/internal/catalog"
	"github.com/dmitrijs2005/gophstore/internal/server/metrics"
	"github.com/dmitrijs2005/gophstore/internal/server/storage"
)

// formOverhead is the room left for the non-file multipart fields.
const formOverhead = 64 << 10

func (h *Handler) uploadAuth(w http.ResponseWriter, r *http.Request) {
	cred, err := h.issuer.Issue()
	if err != nil {
		h.logger.Error(r.Context(), "issue credential", "error", err)
		writeError(w, http.StatusInternalServerError, "could not issue credential")
		return
	}
	h.metrics.CredentialIssued()
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, cred)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+formOverhead)

	if err := r.ParseMultipartForm(1 << 20); err != nil {
		h.rejectUpload(w, r, uploadStatus(err), "malformed upload: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	expire, err := strconv.ParseInt(r.FormValue(api.FieldExpire), 10, 64)
	if err != nil {
		h.rejectUpload(w, r, http.StatusBadRequest, "expire must be a unix timestamp")
		return
	}
	unique := true
	if v := r.FormValue(api.FieldUseUniqueFileName); v != "" {
		if unique, err = strconv.ParseBool(v); err != nil {
			h.rejectUpload(w, r, http.StatusBadRequest, api.FieldUseUniqueFileName+" must be a boolean")
			return
		}
	}
	cred := catalog.Credential{
		Signature: r.FormValue(api.FieldSignature),
		Expire:    expire,
		Token:     r.FormValue(api.FieldToken),
		PublicKey: r.FormValue(api.FieldPublicKey),
	}
	if err := h.issuer.Verify(cred); err != nil {
		h.rejectUpload(w, r, http.StatusForbidden, err.Error())
		return
	}

	file, header, err := r.FormFile(api.FieldFile)
	if err != nil {
		h.rejectUpload(w, r, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadSize+1))
	if err != nil {
		h.rejectUpload(w, r, http.StatusBadRequest, "read file: "+err.Error())
		return
	}
	switch {
	case len(data) == 0:
		h.rejectUpload(w, r, http.StatusBadRequest, "file is empty")
		return
	case int64(len(data)) > h.maxUploadSize:
		h.rejectUpload(w, r, http.StatusRequestEntityTooLarge, "file exceeds the upload limit")
		return
	}

	if mt := mimetype.Detect(data); !mt.Is(catalog.AssetMediaType) {
		h.rejectUpload(w, r, http.StatusUnsupportedMediaType, "unsupported media type "+mt.String())
		return
	}

	checksum := strings.ToLower(strings.TrimSpace(r.FormValue(api.FieldChecksum)))
	if checksum == "" {
		h.rejectUpload(w, r, http.StatusBadRequest, "checksum is required")
		return
	}
	if checksum != catalog.Checksum(data) {
		h.rejectUpload(w, r, http.StatusUnprocessableEntity, "checksum mismatch")
		return
	}

	fileName := r.FormValue(api.FieldFileName)
	if fileName == "" {
		fileName = header.Filename
	}

	obj, err := h.store.Put(ctx, storage.PutRequest{
		FileName:    fileName,
		Folder:      r.FormValue(api.FieldFolder),
		Unique:      unique,
		ContentType: catalog.AssetMediaType,
		Checksum:    checksum,
		Data:        data,
	})
	if err != nil {
		h.logger.Error(ctx, "store asset", "error", err, "file", fileName)
		h.metrics.Upload(metrics.ResultError, len(data))
		writeError(w, http.StatusBadGateway, "asset store unavailable")
		return
	}

	h.metrics.Upload(metrics.ResultOK, len(data))
	writeJSON(w, http.StatusOK, api.UploadResponse{URL: obj.URL, FileID: obj.ID, Name: obj.Name})
}

func (h *Handler) rejectUpload(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.logger.Warn(r.Context(), "upload rejected", "status", status, "reason", msg)
	h.metrics.Upload(metrics.ResultRejected, 0)
	writeError(w, status, msg)
}

func uploadStatus(err error) int {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
