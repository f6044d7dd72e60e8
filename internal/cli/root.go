package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/macropower/draftkit/internal/version"
	"github.com/macropower/draftkit/pkg/log"
)

// DefaultConfigFile is read when --config is not given. A missing default
// file means built-in defaults.
const DefaultConfigFile = "draftkit.yaml"

var ErrInvalidArgument = errors.New("invalid argument")

func NewRootCmd(name, shortDesc, longDesc string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           name,
		Short:         shortDesc,
		Long:          longDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.String(),
	}

	cmd.PersistentFlags().StringP("config", "c", DefaultConfigFile, "Path to the configuration file (yaml, toml or json)")
	cmd.PersistentFlags().String("log_level", "warn", "Set the log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log_format", "text", "Set the log format (text, logfmt, json)")
	cmd.PersistentFlags().String("metrics_file", "", "Write Prometheus metrics to this textfile when the command ends")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Run in quiet mode")

	cmd.PersistentPreRunE = func(cc *cobra.Command, _ []string) error {
		flags := cc.Flags()

		var merr error

		logLevel, err := flags.GetString("log_level")
		if err != nil {
			merr = multierror.Append(merr, err)
		}

		logFormat, err := flags.GetString("log_format")
		if err != nil {
			merr = multierror.Append(merr, err)
		}

		if merr != nil {
			return fmt.Errorf("%w: %w", ErrInvalidArgument, merr)
		}

		h, err := log.CreateHandlerWithStrings(os.Stderr, logLevel, logFormat)
		if err != nil {
			return fmt.Errorf("failed creating log handler: %w", err)
		}
		slog.SetDefault(slog.New(h))

		return nil
	}

	cmd.AddCommand(NewCatalogCmd())
	cmd.AddCommand(NewBorderCmd())
	cmd.AddCommand(NewPlotCmd())
	cmd.AddCommand(NewLayerCmd())
	cmd.AddCommand(NewTemplateCmd())
	cmd.AddCommand(NewConfigCmd())
	cmd.AddCommand(NewCollateCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}
