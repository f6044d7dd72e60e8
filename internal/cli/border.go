package cli

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/macropower/draftkit/pkg/drafting"
	"github.com/macropower/draftkit/pkg/draftingtui"
)

// NewBorderCmd returns the border command.
func NewBorderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "border",
		Short: "Drawing border management",
	}

	cmd.AddCommand(NewBorderInsertCmd())

	return cmd
}

func NewBorderInsertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insert",
		Short: "Insert the border of each listed layout",
		Long: `Insert the border of each listed layout.

The workbook needs the columns file, layout and border_style. Borders of the
same style already on a layout are replaced.`,
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

			if merr != nil {
				return fmt.Errorf("%w: %w", ErrInvalidArgument, merr)
			}

			a, err := newApp(cc)
			if err != nil {
				return err
			}

			path, err := a.excelFile(excel, a.config.Border.ExcelFile)
			if err != nil {
				return err
			}

			data, err := a.readSheets(path, sheets, drafting.BorderColumns)
			if err != nil {
				return err
			}

			return a.draft(cmdContext(cc), func(ctx context.Context, c draftingtui.Commander) error {
				return c.InsertBorders(ctx, data)
			})
		},
	}

	cmd.Flags().StringP("excel", "e", "", "Workbook to read (default border.excel_file or project.excel_file)")
	cmd.Flags().StringSliceP("sheet", "s", nil, "Sheets to include (default all)")

	return cmd
}
