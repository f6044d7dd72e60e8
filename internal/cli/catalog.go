package cli

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/macropower/draftkit/pkg/draftingtui"
)

const catalogExample = `  # Build the catalog from every sheet of the configured workbook
  draftkit catalog create

  # Rebuild two sheets into a different drawing
  draftkit catalog create --sheet "Building A" --sheet "Building B" --target catalog-b.dwg --rebuild`

// NewCatalogCmd returns the catalog command.
func NewCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Drawing catalog management",
	}

	cmd.AddCommand(NewCatalogCreateCmd())

	return cmd
}

func NewCatalogCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Write one catalog layout per sheet",
		Example: catalogExample,
		Args:    cobra.NoArgs,
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
			target, err := flags.GetString("target")
			if err != nil {
				merr = multierror.Append(merr, err)
			}
			style, err := flags.GetString("style")
			if err != nil {
				merr = multierror.Append(merr, err)
			}
			rebuild, err := flags.GetBool("rebuild")
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

			section := &a.config.Catalog
			if target != "" {
				section.TargetFile = target
			}
			if style != "" {
				section.Style = style
			}
			if rebuild {
				section.Update = false
			}

			path, err := a.excelFile(excel, section.ExcelFile)
			if err != nil {
				return err
			}

			data, err := a.readSheets(path, sheets, nil)
			if err != nil {
				return err
			}

			return a.draft(cmdContext(cc), func(ctx context.Context, c draftingtui.Commander) error {
				return c.CreateCatalog(ctx, data)
			})
		},
	}

	cmd.Flags().StringP("excel", "e", "", "Workbook to read (default catalog.excel_file or project.excel_file)")
	cmd.Flags().StringSliceP("sheet", "s", nil, "Sheets to include (default all)")
	cmd.Flags().StringP("target", "t", "", "Catalog drawing to write (default catalog.target_file)")
	cmd.Flags().String("style", "", "Catalog style (default catalog.style)")
	cmd.Flags().Bool("rebuild", false, "Delete and rebuild existing catalog layouts")

	return cmd
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}
