// Package draftingtui provides a terminal user interface for drafting
// commands.
//
// It renders the events of a [drafting.Runner] with Bubble Tea: a spinner
// per drawing or layout in progress, a progress bar, and a ✓ or ✗ line as
// each one finishes. Log output is routed through the program so it does
// not tear the display.
//
// [drafting.Runner]: https://pkg.go.dev/github.com/macropower/draftkit/pkg/drafting#Runner
package draftingtui
