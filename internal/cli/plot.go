package cli

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/macropower/draftkit/pkg/drafting"
	"github.com/macropower/draftkit/pkg/draftingtui"
)

// NewPlotCmd returns the plot command.
func NewPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Update title blocks and plot layouts to PDF",
		Long: `Update title blocks and plot layouts to PDF.

Each workbook row names a drawing (file) and a layout. The layout's title
block attributes are set from the row's columns, then the layout is plotted
to plot.print_path using plot.named_template.`,
		Example: `  # Update title blocks without plotting
  draftkit plot --no-plot

  # Plot one sub-project
  draftkit plot --sheet Sub1`,
		Args: cobra.NoArgs,
		RunE: func(cc *cobra.Command, _ []string) error {
			var merr error

			flags := cc.Flags()
			excel, err := flags.GetString("excel")
			if err != nil {
				merr = multierror.Append(merr, err)
			}
			sheets, err := flags.GetStringSlice("sheet")
			if err != nil {
				merr = multierror.Append(merr, err)
			}
			noPlot, err := flags.GetBool("no-plot")
			if err != nil {
				merr = multierror.Append(merr, err)
			}
			printPath, err := flags.GetString("print_path")
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

			if printPath != "" {
				a.config.Plot.PrintPath = printPath
			}
			plot := a.config.Plot.Enabled && !noPlot

			path, err := a.excelFile(excel)
			if err != nil {
				return err
			}

			data, err := a.readSheets(path, sheets, drafting.TitleBlockColumns)
			if err != nil {
				return err
			}

			return a.draft(cmdContext(cc), func(ctx context.Context, c draftingtui.Commander) error {
				return c.UpdateTitleBlocks(ctx, data, plot)
			})
		},
	}

	cmd.Flags().StringP("excel", "e", "", "Workbook to read (default project.excel_file)")
	cmd.Flags().StringSliceP("sheet", "s", nil, "Sheets to include (default all)")
	cmd.Flags().Bool("no-plot", false, "Only update title blocks")
	cmd.Flags().String("print_path", "", "Output directory (default plot.print_path)")

	return cmd
}
