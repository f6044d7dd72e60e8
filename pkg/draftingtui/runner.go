package draftingtui

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/macropower/draftkit/pkg/config"
	"github.com/macropower/draftkit/pkg/log"
	"github.com/macropower/draftkit/pkg/sheet"
)

// Commander runs drafting commands and reports their events. Each command
// must broadcast exactly one [drafting.EventDone] before returning.
type Commander interface {
	CreateCatalog(ctx context.Context, sheets []sheet.Sheet) error
	InsertBorders(ctx context.Context, sheets []sheet.Sheet) error
	UpdateTitleBlocks(ctx context.Context, sheets []sheet.Sheet, plot bool) error
	FreezeLayers(ctx context.Context, files []string, rule config.FreezeRule) error
	SetLineweights(ctx context.Context, files []string, rule config.LineweightRule) error
	SetLayerProperty(ctx context.Context, files []string, pattern, name string, value any) error
	Subscribe(f func(any))
}

var _ Commander = (*DraftTUI)(nil)

// DraftTUI runs a [Commander] behind a progress display.
type DraftTUI struct {
	cmd  Commander
	p    *tea.Program
	w    io.Writer
	opts []tea.ProgramOption
}

// NewDraftTUI returns a TUI writing to w. The default logger is replaced
// by one that prints through the TUI at logLevel.
func NewDraftTUI(w io.Writer, logLevel string, cmd Commander, opts ...tea.ProgramOption) (*DraftTUI, error) {
	c := &DraftTUI{
		cmd:  cmd,
		w:    w,
		opts: opts,
	}

	c.cmd.Subscribe(c.broadcastEvent)

	h, err := log.CreateHandlerWithStrings(c, logLevel, log.FormatText)
	if err != nil {
		return nil, fmt.Errorf("failed to create log handler: %w", err)
	}

	slog.SetDefault(slog.New(h))

	return c, nil
}

func (c *DraftTUI) broadcastEvent(evt any) {
	if c.p != nil {
		c.p.Send(evt)
	}
}

// Write sends p to the TUI as a log line.
func (c *DraftTUI) Write(p []byte) (int, error) {
	c.broadcastEvent(teaMsgWriteLog(string(p)))

	return len(p), nil
}

func (c *DraftTUI) Subscribe(f func(any)) {
	c.cmd.Subscribe(f)
}

func (c *DraftTUI) CreateCatalog(ctx context.Context, sheets []sheet.Sheet) error {
	return c.run("Filling", func() error {
		return c.cmd.CreateCatalog(ctx, sheets)
	})
}

func (c *DraftTUI) InsertBorders(ctx context.Context, sheets []sheet.Sheet) error {
	return c.run("Inserting borders into", func() error {
		return c.cmd.InsertBorders(ctx, sheets)
	})
}

func (c *DraftTUI) UpdateTitleBlocks(ctx context.Context, sheets []sheet.Sheet, plot bool) error {
	verb := "Updating"
	if plot {
		verb = "Plotting"
	}

	return c.run(verb, func() error {
		return c.cmd.UpdateTitleBlocks(ctx, sheets, plot)
	})
}

func (c *DraftTUI) FreezeLayers(ctx context.Context, files []string, rule config.FreezeRule) error {
	return c.run("Freezing layers in", func() error {
		return c.cmd.FreezeLayers(ctx, files, rule)
	})
}

func (c *DraftTUI) SetLineweights(ctx context.Context, files []string, rule config.LineweightRule) error {
	return c.run("Setting lineweights in", func() error {
		return c.cmd.SetLineweights(ctx, files, rule)
	})
}

func (c *DraftTUI) SetLayerProperty(ctx context.Context, files []string, pattern, name string, value any) error {
	return c.run("Setting "+name+" in", func() error {
		return c.cmd.SetLayerProperty(ctx, files, pattern, name, value)
	})
}

// run executes fn in the background while the TUI is shown. The program
// quits on the [drafting.EventDone] that fn's command broadcasts.
func (c *DraftTUI) run(verb string, fn func() error) error {
	opts := append([]tea.ProgramOption{tea.WithOutput(c.w)}, c.opts...)
	c.p = tea.NewProgram(NewProgressModel(verb), opts...)

	errc := make(chan error, 1)
	go func() {
		errc <- fn()
	}()

	if _, err := c.p.Run(); err != nil {
		return fmt.Errorf("failed to launch tui: %w", err)
	}

	return <-errc
}
