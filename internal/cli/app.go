package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/macropower/draftkit/pkg/automation"
	"github.com/macropower/draftkit/pkg/cad"
	"github.com/macropower/draftkit/pkg/config"
	"github.com/macropower/draftkit/pkg/drafterrors"
	"github.com/macropower/draftkit/pkg/drafting"
	"github.com/macropower/draftkit/pkg/draftingtui"
	"github.com/macropower/draftkit/pkg/metrics"
	"github.com/macropower/draftkit/pkg/pathutil"
	"github.com/macropower/draftkit/pkg/sheet"
	"github.com/macropower/draftkit/pkg/templatestore"
)

// app holds what a command needs after flags are parsed.
type app struct {
	config      *config.Config
	metrics     *metrics.Metrics
	out         io.Writer
	configPath  string
	metricsFile string
	logLevel    string
	quiet       bool
}

func newApp(cc *cobra.Command) (*app, error) {
	flags := cc.Flags()

	var merr error

	configPath, err := flags.GetString("config")
	if err != nil {
		merr = multierror.Append(merr, err)
	}
	metricsFile, err := flags.GetString("metrics_file")
	if err != nil {
		merr = multierror.Append(merr, err)
	}
	logLevel, err := flags.GetString("log_level")
	if err != nil {
		merr = multierror.Append(merr, err)
	}
	quiet, err := flags.GetBool("quiet")
	if err != nil {
		merr = multierror.Append(merr, err)
	}

	if merr != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, merr)
	}

	cfg, err := loadConfig(configPath, flags.Changed("config"))
	if err != nil {
		return nil, err
	}

	return &app{
		config:      cfg,
		metrics:     metrics.New(),
		out:         cc.OutOrStdout(),
		configPath:  configPath,
		metricsFile: metricsFile,
		logLevel:    logLevel,
		quiet:       quiet,
	}, nil
}

// loadConfig reads path. A missing file is only an error when the path was
// given explicitly; otherwise the defaults are used.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, drafterrors.ErrFileNotFound) && !explicit {
		slog.Debug("no configuration file, using defaults", slog.String("path", path))

		return config.Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

// projectFile resolves a relative path under the project path.
func (a *app) projectFile(path string) string {
	if path == "" || filepath.IsAbs(path) || a.config.Project.Path == "" {
		return path
	}

	return filepath.Join(a.config.Project.Path, path)
}

// excelFile picks the first configured workbook: the flag, the command's
// section, then the project's.
func (a *app) excelFile(candidates ...string) (string, error) {
	for _, c := range candidates {
		if c != "" {
			return a.projectFile(c), nil
		}
	}
	if a.config.Project.ExcelFile != "" {
		return a.projectFile(a.config.Project.ExcelFile), nil
	}

	return "", fmt.Errorf("%w: no excel file configured", ErrInvalidArgument)
}

func (a *app) readSheets(path string, names, required []string) ([]sheet.Sheet, error) {
	wb, err := sheet.Read(path, sheet.Options{Sheets: names, Required: required})
	if err != nil {
		return nil, err
	}

	return wb.Sheets, nil
}

func (a *app) openTemplates() (*templatestore.Store, error) {
	db := a.projectFile(a.config.System.TemplateDB)

	return templatestore.Open(db,
		templatestore.WithTempPaths(pathutil.NewTempPaths(a.config.System.TempPath)),
	)
}

// connector dials the drawing application with the configured retry policy
// and reports retries to the run's metrics.
func (a *app) connector() drafting.Connector {
	sys := a.config.System

	return func() (*cad.Application, io.Closer, error) {
		policy, err := sys.RetryPolicy()
		if err != nil {
			return nil, nil, err
		}

		sess, err := automation.Dial(sys.ProgIDOrDefault(), sys.Visible,
			automation.WithPolicy(policy),
			automation.WithObserver(a.metrics),
		)
		if err != nil {
			return nil, nil, err
		}

		return cad.NewApplication(sess.App), sess, nil
	}
}

// draft runs fn against a drafting runner, behind the TUI when stdout is a
// terminal.
func (a *app) draft(ctx context.Context, fn func(ctx context.Context, c draftingtui.Commander) error) error {
	store, err := a.openTemplates()
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("close template store", slog.Any("err", err))
		}
	}()

	r := drafting.NewRunner(a.config, a.connector(),
		drafting.WithTemplates(store),
		drafting.WithRecorder(a.metrics),
	)

	var c draftingtui.Commander = r
	if !a.quiet && isatty.IsTerminal(os.Stdout.Fd()) {
		c, err = draftingtui.NewDraftTUI(a.out, a.logLevel, r)
		if err != nil {
			return fmt.Errorf("failed to create tui: %w", err)
		}
	}

	err = fn(ctx, c)
	if merr := a.writeMetrics(); merr != nil {
		err = multierror.Append(err, merr)
	}

	return err
}

func (a *app) writeMetrics() error {
	if a.metricsFile == "" {
		return nil
	}
	if err := a.metrics.WriteTextfile(a.metricsFile); err != nil {
		return fmt.Errorf("%w: %w", drafterrors.ErrWriteFile, err)
	}

	return nil
}

func fileMissing(path string) bool {
	_, err := os.Stat(path)

	return errors.Is(err, fs.ErrNotExist)
}
