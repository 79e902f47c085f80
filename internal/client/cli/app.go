package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/term"

	"github.com/dmitrijs2005/gophstore/internal/client/authz"
	"github.com/dmitrijs2005/gophstore/internal/client/batch"
	"github.com/dmitrijs2005/gophstore/internal/client/client"
	"github.com/dmitrijs2005/gophstore/internal/client/config"
	"github.com/dmitrijs2005/gophstore/internal/client/form"
	"github.com/dmitrijs2005/gophstore/internal/client/gate"
	"github.com/dmitrijs2005/gophstore/internal/client/uploader"
	"github.com/dmitrijs2005/gophstore/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config *config.Config
	logger logging.Logger
	api    client.Client

	form  *form.Aggregator
	batch *batch.Coordinator
	gate  *gate.Gate

	reader *bufio.Reader
	out    io.Writer
	view   *progressView

	// uploads tracks the background batch started by the upload command.
	uploads   sync.WaitGroup
	uploading atomic.Bool

	mu   sync.Mutex
	mode Mode
}

// syncWriter serializes writes from the REPL and from upload goroutines.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// NewApp wires the production transport from c.
func NewApp(c *config.Config, logger logging.Logger) (*App, error) {
	health, err := client.NewHealthChecker(c.HealthAddr, "")
	if err != nil {
		return nil, fmt.Errorf("health client: %w", err)
	}

	apiHTTP := &http.Client{Timeout: c.RequestTimeout}
	// Uploads are bounded by credential expiry and ctx, not a client timeout.
	uploadHTTP := &http.Client{}

	api := client.NewComposite(client.NewHTTPClient(c.ServerURL, apiHTTP, logger), health)
	auth := authz.New(c.ServerURL, apiHTTP, logger)
	up := uploader.New(c.ServerURL, uploadHTTP, uploader.Options{
		Folder:            c.UploadFolder,
		UseUniqueFileName: c.UniqueFileNames,
	}, logger)

	tty := term.IsTerminal(int(os.Stdout.Fd()))
	return newApp(c, api, auth, up, os.Stdin, os.Stdout, tty, logger), nil
}

func newApp(c *config.Config, api client.Client, auth batch.Authorizer, up batch.Uploader, in io.Reader, out io.Writer, tty bool, logger logging.Logger) *App {
	if logger == nil {
		logger = logging.Nop{}
	}
	out = &syncWriter{w: out}
	a := &App{
		config: c,
		logger: logger,
		api:    api,
		form:   form.New(),
		reader: bufio.NewReader(in),
		out:    out,
		view:   newProgressView(out, tty),
	}
	a.batch = batch.New(auth, up, batch.Options{
		MaxParallel: c.MaxParallelUploads,
		Retries:     c.UploadRetries,
		Logger:      logger,
	})

	policy := gate.PolicyPreserve
	if c.ResetAfterSubmit {
		policy = gate.PolicyReset
	}
	a.gate = gate.New(a.form, a.batch, api, gate.Options{
		Policy:  policy,
		OnPhase: a.onPhase,
		Logger:  logger,
	})
	return a
}

// Run loads reference data, starts the online watcher and blocks in the
// REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.api.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(a.out, "Welcome to gophstore (type 'help' for commands)")
	if err := a.Refresh(ctx); err != nil {
		fmt.Fprintln(a.out, "Reference data unavailable; use 'refresh' once the server is up.")
	}

	unsubscribe := a.batch.Subscribe(a.view.observe)
	defer unsubscribe()

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)

	cancel()
	a.uploads.Wait()
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()
	if changed {
		a.logger.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
}

func (a *App) getMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// StartOnlineStatusWatcher pings the backend every interval until ctx ends.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		a.checkOnline(ctx)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.api.Ping(pctx)
	cancel()
	if err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

func (a *App) getStatus() string {
	s := a.gate.Phase().String()
	if n := a.batch.Len(); n > 0 {
		s += fmt.Sprintf(" %d asset(s) %s", n, a.batch.Status())
	}
	if m := a.getMode(); m != "" {
		s += " " + string(m)
	}
	return "(" + s + ")"
}

func (a *App) onPhase(p gate.Phase) {
	a.logger.Debug(context.Background(), "submission phase", "phase", p.String())
	if p == gate.PhaseUploading {
		fmt.Fprintln(a.out, "Uploading selected assets before submit...")
	}
}
