// Package uploader performs one authorized transfer of one asset to the asset
// store and classifies its failure. It never retries.
package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/api"
	"github.com/dmitrijs2005/gophstore/internal/catalog"
	"github.com/dmitrijs2005/gophstore/internal/client/models"
	"github.com/dmitrijs2005/gophstore/internal/logging"
)

// Options controls where and how assets land in the store.
type Options struct {
	Folder            string
	UseUniqueFileName bool
}

type Uploader struct {
	endpoint string
	http     *http.Client
	opts     Options
	logger   logging.Logger
	now      func() time.Time
}

// New returns an Uploader posting to baseURL. A nil hc uses
// http.DefaultClient.
func New(baseURL string, hc *http.Client, opts Options, logger logging.Logger) *Uploader {
	if hc == nil {
		hc = http.DefaultClient
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Uploader{
		endpoint: strings.TrimRight(baseURL, "/") + api.UploadPath,
		http:     hc,
		opts:     opts,
		logger:   logger.With("module", "uploader"),
		now:      time.Now,
	}
}

// Upload sends asset under cred and returns the stored URL. onProgress, if
// set, receives a non-decreasing percentage ending at 100 once the body is
// fully handed to the transport. Every failure is an *Error.
func (u *Uploader) Upload(ctx context.Context, asset models.Asset, cred catalog.Credential, onProgress func(int)) (string, error) {
	fail := func(err error) (string, error) {
		return "", Classify(asset.Index, err)
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if err := cred.Validate(); err != nil {
		return fail(err)
	}
	if cred.Expired(u.now()) {
		return fail(fmt.Errorf("%w at %s", ErrCredentialExpired, cred.ExpiresAt().UTC().Format(time.RFC3339)))
	}
	if asset.Size() == 0 {
		return fail(&Error{Kind: KindInvalidRequest, Err: models.ErrEmptyAsset})
	}

	// The body is streamed, so progress follows the file bytes the transport
	// actually pulls.
	body, pw := io.Pipe()
	defer body.Close()
	mw := multipart.NewWriter(pw)
	contentType := mw.FormDataContentType()
	pr := &progressReader{r: bytes.NewReader(asset.Data), total: int64(asset.Size()), fn: onProgress}
	go func() {
		_ = pw.CloseWithError(u.encode(mw, asset, cred, pr))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, body)
	if err != nil {
		_ = body.CloseWithError(err)
		return fail(err)
	}
	req.ContentLength = -1
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := u.http.Do(req)
	if err != nil {
		// The transport may report a cancelled request as a plain I/O error.
		if ctx.Err() != nil {
			return fail(ctx.Err())
		}
		return fail(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return fail(&StatusError{Code: resp.StatusCode, Body: errorMessage(b)})
	}

	var out api.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if ctx.Err() != nil {
			return fail(ctx.Err())
		}
		return fail(&Error{Kind: KindUnclassified, Err: fmt.Errorf("decode response: %w", err)})
	}
	if strings.TrimSpace(out.URL) == "" {
		return fail(&Error{Kind: KindUnclassified, Err: ErrMissingURL})
	}

	pr.finish()
	u.logger.Debug(ctx, "asset uploaded", "index", asset.Index, "file", asset.FileName, "url", out.URL)
	return out.URL, nil
}

// encode writes the multipart body to mw, taking the file part from file.
func (u *Uploader) encode(mw *multipart.Writer, asset models.Asset, cred catalog.Credential, file io.Reader) error {
	fields := []struct{ k, v string }{
		{api.FieldFileName, asset.FileName},
		{api.FieldFolder, u.opts.Folder},
		{api.FieldUseUniqueFileName, strconv.FormatBool(u.opts.UseUniqueFileName)},
		{api.FieldChecksum, asset.Checksum},
		{api.FieldSignature, cred.Signature},
		{api.FieldExpire, strconv.FormatInt(cred.Expire, 10)},
		{api.FieldToken, cred.Token},
		{api.FieldPublicKey, cred.PublicKey},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.k, f.v); err != nil {
			return fmt.Errorf("write %s: %w", f.k, err)
		}
	}

	fw, err := mw.CreateFormFile(api.FieldFile, asset.FileName)
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(fw, file); err != nil {
		return fmt.Errorf("write file part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}
	return nil
}

func errorMessage(b []byte) string {
	var er api.ErrorResponse
	if err := json.Unmarshal(b, &er); err == nil && er.Error != "" {
		return er.Error
	}
	return strings.TrimSpace(string(b))
}
