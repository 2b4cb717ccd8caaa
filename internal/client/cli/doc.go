// Package cli provides the interactive Agile storage command-line client.
//
// App wires an API client, the chunked uploader and the directory syncer to
// a read-eval-print loop. Remote paths that do not start with "/" are taken
// relative to the home directory returned at login.
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See runREPL and the commands table for the available commands.
package cli
