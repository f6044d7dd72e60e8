package cli

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/macropower/draftkit/pkg/config"
)

// NewConfigCmd returns the config command.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration file management",
	}

	cmd.AddCommand(NewConfigInitCmd())
	cmd.AddCommand(NewConfigShowCmd())
	cmd.AddCommand(NewConfigSetCmd())
	cmd.AddCommand(NewConfigValidateCmd())
	cmd.AddCommand(NewConfigSchemaCmd())

	return cmd
}

func NewConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration",
		Long: `Write the default configuration.

The file format follows the extension of path, which defaults to the
--config flag.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cc *cobra.Command, args []string) error {
			var merr error

			flags := cc.Flags()
			path, err := flags.GetString("config")
			if err != nil {
				merr = multierror.Append(merr, err)
			}
			force, err := flags.GetBool("force")
			if err != nil {
				merr = multierror.Append(merr, err)
			}

			if merr != nil {
				return fmt.Errorf("%w: %w", ErrInvalidArgument, merr)
			}

			if len(args) == 1 {
				path = args[0]
			}

			if !force && !fileMissing(path) {
				return fmt.Errorf("%w: %s already exists, use --force to replace it", ErrInvalidArgument, path)
			}

			if err := config.Default().Save(path); err != nil {
				return err
			}

			cc.Printf("Wrote %s\n", path)

			return nil
		},
	}

	cmd.Flags().BoolP("force", "f", false, "Replace an existing file")

	return cmd
}

func NewConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cc *cobra.Command, _ []string) error {
			format, err := cc.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
			}

			a, err := newApp(cc)
			if err != nil {
				return err
			}

			b, err := a.config.Marshal(config.Format(strings.ToLower(format)))
			if err != nil {
				return err
			}

			_, err = a.out.Write(b)

			return err
		},
	}

	cmd.Flags().StringP("format", "o", string(config.FormatYAML), "Output format (yaml, toml, json)")

	return cmd
}

func NewConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key=value>...",
		Short: "Set configuration values and save the file",
		Example: `  draftkit config set plot.print_path=out/pdf
  draftkit config set paper_sizes.A0="ISO full bleed A0 (841.00 x 1189.00 MM)"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cc *cobra.Command, args []string) error {
			a, err := newApp(cc)
			if err != nil {
				return err
			}

			var merr error
			for _, arg := range args {
				key, value, ok := strings.Cut(arg, "=")
				if !ok {
					merr = multierror.Append(merr, fmt.Errorf("%w: expected key=value, got %q", ErrInvalidArgument, arg))

					continue
				}
				if err := a.config.Set(key, value); err != nil {
					merr = multierror.Append(merr, fmt.Errorf("%s: %w", key, err))
				}
			}
			if merr != nil {
				return merr
			}

			if err := a.config.Validate(); err != nil {
				return err
			}

			return a.config.Save(a.configPath)
		},
	}
}

func NewConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cc *cobra.Command, _ []string) error {
			a, err := newApp(cc)
			if err != nil {
				return err
			}

			if err := a.config.Validate(); err != nil {
				return err
			}

			cc.Printf("%s is valid\n", a.configPath)

			return nil
		},
	}
}

func NewConfigSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cc *cobra.Command, _ []string) error {
			format, err := cc.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
			}

			b, err := config.Schema(config.Format(strings.ToLower(format)))
			if err != nil {
				return err
			}

			_, err = cc.OutOrStdout().Write(b)

			return err
		},
	}

	cmd.Flags().StringP("format", "o", string(config.FormatJSON), "Output format (json, yaml)")

	return cmd
}
