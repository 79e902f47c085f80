package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophstore/internal/catalog"
	"github.com/dmitrijs2005/gophstore/internal/client/client"
	"github.com/dmitrijs2005/gophstore/internal/client/config"
	"github.com/dmitrijs2005/gophstore/internal/client/gate"
	"github.com/dmitrijs2005/gophstore/internal/client/models"
)

type fakeAPI struct {
	mu       sync.Mutex
	pingErr  error
	created  []catalog.Product
	closed   bool
	createFn func(catalog.Product) (string, error)
}

func (f *fakeAPI) Close() error { f.closed = true; return nil }

func (f *fakeAPI) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingErr
}

func (f *fakeAPI) Categories(context.Context) ([]catalog.Reference, error) {
	return []catalog.Reference{{ID: "cat-1", Name: "Hoodies"}}, nil
}

func (f *fakeAPI) Collections(context.Context) ([]catalog.Reference, error) {
	return []catalog.Reference{{ID: "col-1", Name: "Winter"}}, nil
}

func (f *fakeAPI) CreateProduct(_ context.Context, p catalog.Product) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, p)
	if f.createFn != nil {
		return f.createFn(p)
	}
	return fmt.Sprintf("prod-%d", len(f.created)), nil
}

var _ client.Client = (*fakeAPI)(nil)

type okAuth struct{}

func (okAuth) Authorize(context.Context) (catalog.Credential, error) {
	return catalog.Credential{Signature: "s", Expire: time.Now().Add(time.Minute).Unix(), Token: "t", PublicKey: "p"}, nil
}

type okUploader struct{}

func (okUploader) Upload(_ context.Context, a models.Asset, _ catalog.Credential, onProgress func(int)) (string, error) {
	onProgress(100)
	return "https://cdn.example/" + a.FileName, nil
}

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	return c
}

func newTestApp(t *testing.T, api *fakeAPI, input string) (*App, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	a := newApp(testConfig(), api, okAuth{}, okUploader{}, strings.NewReader(input), &out, false, nil)
	require.NoError(t, a.Refresh(context.Background()))
	return a, &out
}

func writeFiles(t *testing.T) (webp, txt string) {
	t.Helper()
	dir := t.TempDir()
	webp = filepath.Join(dir, "a.webp")
	txt = filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(webp, []byte("RIFF\x00\x00\x00\x00WEBPVP8 data"), 0o600))
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o600))
	return webp, txt
}

func TestApp_ComposeAndSubmit(t *testing.T) {
	api := &fakeAPI{}
	a, out := newTestApp(t, api, "")
	webp, txt := writeFiles(t)

	require.NoError(t, a.SetName([]string{"Warm", "Hoodie"}))
	require.NoError(t, a.SetSlug([]string{"warm-hoodie"}))
	require.NoError(t, a.SetCategory([]string{"cat-1"}))
	require.NoError(t, a.ToggleCollection([]string{"col-1"}))
	require.NoError(t, a.SetPrice([]string{"19.999"}))
	require.NoError(t, a.AddColor([]string{"#000", "Jet", "Black"}))
	require.NoError(t, a.ToggleFlag([]string{"onsale"}))

	err := a.AddAssets([]string{webp, txt})
	assert.Error(t, err, "non-webp files are reported")
	assert.Contains(t, out.String(), "skipped")
	assert.Equal(t, 1, a.batch.Len())

	require.NoError(t, a.Submit(context.Background()))
	assert.Contains(t, out.String(), "Product created: prod-1")

	require.Len(t, api.created, 1)
	p := api.created[0]
	assert.Equal(t, "Warm Hoodie", p.Name)
	assert.Equal(t, []string{"https://cdn.example/a.webp"}, p.Images)
	assert.Equal(t, 20.0, *p.Price)
	assert.Equal(t, []catalog.Color{{Name: "Jet Black", Hex: "#000"}}, p.Colors)
	assert.True(t, p.Flags.Has(catalog.FlagOnSale))
	assert.Equal(t, gate.PhaseSubmitted, a.gate.Phase())
}

func TestApp_SubmitReportsValidation(t *testing.T) {
	api := &fakeAPI{}
	a, out := newTestApp(t, api, "")

	err := a.Submit(context.Background())
	assert.ErrorIs(t, err, catalog.ErrValidation)
	assert.Contains(t, out.String(), "name is required")
	assert.Contains(t, out.String(), "images at least one image is required")
	assert.Empty(t, api.created)
}

func TestApp_RejectsBadInput(t *testing.T) {
	a, out := newTestApp(t, &fakeAPI{}, "")

	assert.Error(t, a.AddColor([]string{"000000", "Black"}))
	assert.Error(t, a.SetCategory([]string{"nope"}))
	assert.Error(t, a.SetPrice([]string{"-1"}))
	assert.ErrorIs(t, a.RemoveAsset([]string{"x"}), errUsage)
	assert.ErrorIs(t, a.AddColor(nil), errUsage)

	for _, f := range []string{"active", "onsale", "newarrival"} {
		require.NoError(t, a.ToggleFlag([]string{f}))
	}
	assert.ErrorIs(t, a.ToggleFlag([]string{"limitededition"}), catalog.ErrFlagLimit)
	assert.Contains(t, out.String(), "at most 3 flags")
}

func TestApp_NewAsksBeforeDiscarding(t *testing.T) {
	a, _ := newTestApp(t, &fakeAPI{}, "n\ny\n")
	a.form.SetName("Hoodie")

	require.NoError(t, a.New())
	assert.Equal(t, "Hoodie", a.form.Draft().Name)

	require.NoError(t, a.New())
	assert.Empty(t, a.form.Draft().Name)
}

func TestApp_DescriptionPrompt(t *testing.T) {
	a, _ := newTestApp(t, &fakeAPI{}, "line one\nline two\n\n")
	require.NoError(t, a.SetDescription(nil))
	assert.Equal(t, "line one\nline two", a.form.Draft().Description)
}

func TestApp_StoreFailureKeepsDraft(t *testing.T) {
	api := &fakeAPI{createFn: func(catalog.Product) (string, error) {
		return "", &client.RejectedError{Status: 409, Message: "slug already taken", Fields: []catalog.FieldError{{Field: "slug", Reason: "already taken"}}}
	}}
	a, out := newTestApp(t, api, "")
	webp, _ := writeFiles(t)
	a.form.SetName("Hoodie")
	a.form.SetSlug("hoodie")
	require.NoError(t, a.form.SetCategory("cat-1"))
	require.NoError(t, a.form.SetPrice("5"))
	require.NoError(t, a.AddAssets([]string{webp}))

	err := a.Submit(context.Background())
	assert.ErrorIs(t, err, gate.ErrRecordStoreFailure)
	assert.Contains(t, out.String(), "slug already taken")
	assert.Equal(t, gate.PhaseEditable, a.gate.Phase())
	assert.Equal(t, "Hoodie", a.form.Draft().Name)
}

func TestApp_OnlineWatcher(t *testing.T) {
	api := &fakeAPI{}
	a, _ := newTestApp(t, api, "")

	a.checkOnline(context.Background())
	assert.Equal(t, ModeOnline, a.getMode())

	api.mu.Lock()
	api.pingErr = errors.New("down")
	api.mu.Unlock()
	a.checkOnline(context.Background())
	assert.Equal(t, ModeOffline, a.getMode())
	assert.Contains(t, a.getStatus(), "offline")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.StartOnlineStatusWatcher(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

// blockingUploader holds every upload until its ctx ends or release closes.
type blockingUploader struct {
	started chan string
	release chan struct{}
}

func (b *blockingUploader) Upload(ctx context.Context, a models.Asset, _ catalog.Credential, onProgress func(int)) (string, error) {
	b.started <- a.FileName
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-b.release:
		onProgress(100)
		return "https://cdn.example/" + a.FileName, nil
	}
}

func TestApp_UploadRunsInBackgroundAndRemoveCancels(t *testing.T) {
	up := &blockingUploader{started: make(chan string, 2), release: make(chan struct{})}
	var out bytes.Buffer
	a := newApp(testConfig(), &fakeAPI{}, okAuth{}, up, strings.NewReader(""), &out, false, nil)

	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.webp", "b.webp"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("RIFF\x00\x00\x00\x00WEBPVP8 data"), 0o600))
		paths = append(paths, p)
	}
	require.NoError(t, a.AddAssets(paths))

	require.NoError(t, a.Upload(context.Background()))
	for range 2 {
		select {
		case <-up.started:
		case <-time.After(time.Second):
			t.Fatal("upload did not start")
		}
	}
	assert.True(t, a.uploading.Load())

	require.NoError(t, a.Upload(context.Background()), "a second upload is refused quietly")

	require.NoError(t, a.RemoveAsset([]string{"0"}))
	close(up.release)
	a.uploads.Wait()

	snap := a.batch.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "b.webp", snap[0].FileName)
	assert.True(t, a.batch.Complete())
	assert.False(t, a.uploading.Load())
	assert.Contains(t, out.String(), "already running")
	assert.Contains(t, out.String(), "All 1 asset(s) uploaded.")
}

func TestApp_RunREPLSession(t *testing.T) {
	silence(t)
	api := &fakeAPI{}
	var out bytes.Buffer
	a := newApp(testConfig(), api, okAuth{}, okUploader{}, strings.NewReader("name Hoodie\nshow\nexit\n"), &out, false, nil)
	a.config.OnlineCheckInterval = 0

	a.Run(context.Background())
	assert.True(t, api.closed)
	assert.Contains(t, out.String(), `"name": "Hoodie"`)
}
