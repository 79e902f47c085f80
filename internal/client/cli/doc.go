// Package cli provides the interactive gophstore terminal client.
//
// It wires configuration, the backend transport, the upload pipeline and an
// interactive REPL. Typical flow: load reference data, start a background
// connectivity watcher, compose the product with field commands, select
// .webp files with add, then submit. Uploads run on submit if they have not
// been started with upload.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher and runREPL for details.
package cli
