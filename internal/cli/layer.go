package cli

import (
	"context"
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/macropower/draftkit/pkg/draftingtui"
)

// NewLayerCmd returns the layer command.
func NewLayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layer",
		Short: "Layer freezing, lineweights and properties",
		Long: `Layer freezing, lineweights and properties.

Patterns are case-insensitive and match whole names. "*" matches any text and
"|" separates alternatives. Without drawing arguments the active drawing is
changed and left unsaved.`,
	}

	cmd.AddCommand(NewLayerFreezeCmd())
	cmd.AddCommand(NewLayerLineweightCmd())
	cmd.AddCommand(NewLayerSetCmd())

	return cmd
}

func NewLayerFreezeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "freeze [drawing]...",
		Short:   "Freeze layers matching a pattern",
		Example: `  draftkit layer freeze --include "*text*|dim*" --exclude "dim_keep" a.dwg b.dwg`,
		RunE: func(cc *cobra.Command, files []string) error {
			var merr error

			flags := cc.Flags()
			include, err := flags.GetString("include")
			if err != nil {
				merr = multierror.Append(merr, err)
			}
			exclude, err := flags.GetString("exclude")
			if err != nil {
				merr = multierror.Append(merr, err)
			}
			unfreeze, err := flags.GetBool("unfreeze")
			if err != nil {
				merr = multierror.Append(merr, err)
			}

			if merr != nil {
				return fmt.Errorf("%w: %w", ErrInvalidArgument, merr)
			}

			a, err := newApp(cc)
			if err != nil {
				return err
			}

			rule := a.config.Layers.Freeze
			if flags.Changed("include") {
				rule.Include = include
			}
			if flags.Changed("exclude") {
				rule.Exclude = exclude
			}
			if flags.Changed("unfreeze") {
				rule.Unfreeze = unfreeze
			}
			if rule.Include == "" {
				return fmt.Errorf("%w: no include pattern (set --include or layers.freeze.include)", ErrInvalidArgument)
			}

			return a.draft(cmdContext(cc), func(ctx context.Context, c draftingtui.Commander) error {
				return c.FreezeLayers(ctx, files, rule)
			})
		},
	}

	cmd.Flags().StringP("include", "i", "", "Layers to freeze (default layers.freeze.include)")
	cmd.Flags().StringP("exclude", "x", "", "Layers to leave alone (default layers.freeze.exclude)")
	cmd.Flags().Bool("unfreeze", false, "Thaw frozen layers that are not selected")

	return cmd
}

func NewLayerLineweightCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lineweight [drawing]...",
		Short: "Set layer lineweights from layers.lineweight",
		Long: `Set layer lineweights from layers.lineweight.

The last "|" segment of each layer name is matched against the heavy, middle
and thin patterns in that order.`,
		RunE: func(cc *cobra.Command, files []string) error {
			a, err := newApp(cc)
			if err != nil {
				return err
			}

			rule := a.config.Layers.Lineweight

			return a.draft(cmdContext(cc), func(ctx context.Context, c draftingtui.Commander) error {
				return c.SetLineweights(ctx, files, rule)
			})
		},
	}
}

func NewLayerSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <pattern> <property> <value> [drawing]...",
		Short: "Set a property on layers matching a pattern",
		Long: `Set a property on layers matching a pattern.

The value is read as a boolean or number when it looks like one. Use --string
to pass it through as text.`,
		Example: `  draftkit layer set "*text*" Color 1 a.dwg
  draftkit layer set "hatch*" Plottable false`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cc *cobra.Command, args []string) error {
			asString, err := cc.Flags().GetBool("string")
			if err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
			}

			a, err := newApp(cc)
			if err != nil {
				return err
			}

			pattern, prop := args[0], args[1]
			var value any = args[2]
			if !asString {
				value = layerValue(args[2])
			}

			return a.draft(cmdContext(cc), func(ctx context.Context, c draftingtui.Commander) error {
				return c.SetLayerProperty(ctx, args[3:], pattern, prop, value)
			})
		},
	}

	cmd.Flags().Bool("string", false, "Pass the value as text")

	return cmd
}

// layerValue reads s as a YAML scalar. Integers become int32, which is what
// layer properties such as Color and Lineweight expect.
func layerValue(s string) any {
	var v any
	if err := yamlv3.Unmarshal([]byte(s), &v); err != nil {
		return s
	}

	switch x := v.(type) {
	case bool, float64:
		return x
	case int:
		if x >= math.MinInt32 && x <= math.MaxInt32 {
			return int32(x)
		}

		return x
	}

	return s
}
