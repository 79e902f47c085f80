package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophstore/internal/catalog"
	"github.com/dmitrijs2005/gophstore/internal/client/client"
	"github.com/dmitrijs2005/gophstore/internal/client/models"
)

var errUsage = errors.New("usage")

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}

// report prints err in a form suited to its type and returns it.
func (a *App) report(err error) error {
	if err == nil {
		return nil
	}
	var verr *catalog.ValidationError
	var rej *client.RejectedError
	switch {
	case errors.As(err, &verr):
		a.printf("Cannot submit:")
		for _, f := range verr.Fields {
			a.printf("  %s %s", f.Field, f.Reason)
		}
	case errors.As(err, &rej) && len(rej.Fields) > 0:
		a.printf("Rejected by server: %s", rej.Message)
		for _, f := range rej.Fields {
			a.printf("  %s %s", f.Field, f.Reason)
		}
	default:
		a.printf("Error: %v", err)
	}
	return err
}

func (a *App) usage(text string) error {
	a.printf("Usage: %s", text)
	return errUsage
}

func (a *App) SetName(args []string) error {
	a.form.SetName(strings.Join(args, " "))
	return nil
}

func (a *App) SetSlug(args []string) error {
	a.form.SetSlug(strings.Join(args, " "))
	return nil
}

// SetDescription takes inline text, or prompts for several lines.
func (a *App) SetDescription(args []string) error {
	text := strings.Join(args, " ")
	if len(args) == 0 {
		var err error
		text, err = GetMultiline(a.reader, "Description:", a.out)
		if err != nil {
			return a.report(err)
		}
	}
	a.form.SetDescription(text)
	return nil
}

func (a *App) SetSize(args []string) error {
	a.form.SetSize(strings.Join(args, " "))
	return nil
}

func (a *App) AddColor(args []string) error {
	if len(args) < 2 {
		return a.usage("color <hex> <name>")
	}
	return a.report(a.form.AddColor(strings.Join(args[1:], " "), args[0]))
}

func (a *App) RemoveColor(args []string) error {
	n, err := position(args)
	if err != nil {
		return a.usage("uncolor <n> (see show)")
	}
	return a.report(a.form.RemoveColor(n - 1))
}

func (a *App) SetCategory(args []string) error {
	if len(args) != 1 {
		return a.usage("category <id> (see categories)")
	}
	return a.report(a.form.SetCategory(args[0]))
}

func (a *App) ListCategories() error {
	selected := a.form.Draft().Category
	for _, r := range a.form.Categories() {
		mark := " "
		if r.ID == selected {
			mark = "*"
		}
		a.printf(" %s %-12s %s", mark, r.ID, r.Name)
	}
	return nil
}

func (a *App) ToggleCollection(args []string) error {
	if len(args) != 1 {
		return a.usage("collection <id> (see collections)")
	}
	on, err := a.form.ToggleCollection(args[0])
	if err != nil {
		return a.report(err)
	}
	a.printf("collection %s %s", args[0], onOff(on))
	return nil
}

func (a *App) ListCollections() error {
	selected := a.form.Draft().Collections
	for _, r := range a.form.Collections() {
		mark := " "
		for _, id := range selected {
			if id == r.ID {
				mark = "*"
			}
		}
		a.printf(" %s %-12s %s", mark, r.ID, r.Name)
	}
	return nil
}

func (a *App) SetPrice(args []string) error {
	if err := a.form.SetPrice(strings.Join(args, "")); err != nil {
		return a.report(err)
	}
	a.printf("price %s", catalog.FormatPrice(a.form.Draft().Price))
	return nil
}

func (a *App) SetSalePrice(args []string) error {
	if err := a.form.SetSalePrice(strings.Join(args, "")); err != nil {
		return a.report(err)
	}
	a.printf("sale price %s", catalog.FormatPrice(a.form.Draft().SalePrice))
	return nil
}

func (a *App) ToggleFlag(args []string) error {
	if len(args) != 1 {
		names := make([]string, 0)
		for _, f := range catalog.AllFlags() {
			names = append(names, f.String())
		}
		return a.usage("flag <" + strings.Join(names, "|") + ">")
	}
	f, err := catalog.ParseFlag(args[0])
	if err != nil {
		return a.report(err)
	}
	on, err := a.form.ToggleFlag(f)
	if err != nil {
		return a.report(err)
	}
	a.printf("%s %s", f, onOff(on))
	return nil
}

// AddAssets selects files. Anything that is not webp is reported and left
// out.
func (a *App) AddAssets(args []string) error {
	if len(args) == 0 {
		return a.usage("add <file>...")
	}
	var accepted []models.Asset
	var skipped int
	for _, path := range args {
		as, err := models.LoadAsset(path)
		if err != nil {
			skipped++
			a.printf("skipped %s: %v", path, err)
			continue
		}
		accepted = append(accepted, as)
	}
	for i, idx := range a.batch.Add(accepted...) {
		a.printf("  #%d %s (%d bytes)", idx, accepted[i].FileName, accepted[i].Size())
	}
	if skipped > 0 {
		return fmt.Errorf("%d file(s) skipped: only %s is accepted", skipped, models.AcceptedMediaType)
	}
	return nil
}

func (a *App) RemoveAsset(args []string) error {
	n, err := position(args)
	if err != nil {
		return a.usage("remove <index> (see status)")
	}
	return a.report(a.batch.RemoveAsset(n))
}

// Upload starts the batch in the background and returns at once, so that
// remove can cancel an in-flight asset. Only failed or pending assets are
// sent. Submit waits for a running batch before it uploads anything.
func (a *App) Upload(ctx context.Context) error {
	if a.batch.Len() == 0 {
		a.printf("Nothing to upload; use add first.")
		return nil
	}
	if !a.uploading.CompareAndSwap(false, true) {
		a.printf("An upload is already running; use status to follow it.")
		return nil
	}

	a.printf("Uploading in the background; status shows progress, remove <index> cancels one.")
	a.uploads.Add(1)
	go func() {
		defer a.uploads.Done()
		defer a.uploading.Store(false)

		out := a.batch.Run(ctx)
		if out.Succeeded() {
			a.printf("All %d asset(s) uploaded.", len(out.URLs))
			return
		}
		a.printf("%d asset(s) failed; run upload again to retry them.", len(out.Failures))
	}()
	return nil
}

func (a *App) Status() error {
	a.printf("phase: %s  batch: %s  mode: %s", a.gate.Phase(), a.batch.Status(), a.getMode())
	for _, s := range a.batch.Snapshot() {
		a.printf("%s", formatAttempt(s))
	}
	if err := a.gate.LastError(); err != nil {
		a.printf("last error: %v", err)
	}
	if id := a.gate.RecordID(); id != "" {
		a.printf("record id: %s", id)
	}
	return nil
}

func (a *App) Show() error {
	d := a.form.Draft()
	if urls, ok := a.batch.URLs(); ok {
		d.Images = urls
	}
	a.printf("%s", d.MarshalIndent())
	for i, c := range d.Colors {
		a.printf("  color %d: %s %s", i+1, c.Hex, c.Name)
	}
	if err := a.form.Validate(); err != nil {
		_ = a.report(err)
	}
	return nil
}

func (a *App) Submit(ctx context.Context) error {
	id, err := a.gate.Submit(ctx)
	if err != nil {
		return a.report(err)
	}
	a.printf("Product created: %s", id)
	return nil
}

// New starts an empty draft. Unsubmitted work needs confirmation.
func (a *App) New() error {
	dirty := a.batch.Len() > 0 || a.form.Draft().Name != ""
	if dirty && a.gate.RecordID() == "" && !confirm(a.reader, "Discard the current draft?", a.out) {
		return nil
	}
	if err := a.gate.Restart(); err != nil {
		return a.report(err)
	}
	a.form.Reset()
	a.batch.Reset()
	a.printf("New draft started.")
	return nil
}

// Refresh reloads categories and collections from the server.
func (a *App) Refresh(ctx context.Context) error {
	cats, err := a.api.Categories(ctx)
	if err != nil {
		return a.report(err)
	}
	cols, err := a.api.Collections(ctx)
	if err != nil {
		return a.report(err)
	}
	a.form.SetReferenceData(cats, cols)
	a.printf("Loaded %d categories and %d collections.", len(cats), len(cols))
	return nil
}

func position(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errUsage
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		return 0, errUsage
	}
	return n, nil
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

var _ execIface = (*App)(nil)
