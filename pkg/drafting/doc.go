// Package drafting implements the draftkit commands against a drawing
// application: catalog generation, border insertion, title block updates
// with plotting, and layer rules.
//
// A [Runner] connects to the application once per command and drives it
// from the calling goroutine only. Progress is reported to subscribers as
// events, which the terminal UI renders.
package drafting
